package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"scholarserbisyo/internal/cache"
	"scholarserbisyo/internal/config"
	"scholarserbisyo/internal/logger"
	"scholarserbisyo/internal/metrics"
	"scholarserbisyo/internal/mongo"
	"scholarserbisyo/internal/mysql"
	"scholarserbisyo/internal/routing"
	"scholarserbisyo/internal/scheduler"
	"scholarserbisyo/pkg/backend"
	"scholarserbisyo/pkg/directory"
	"scholarserbisyo/pkg/event"
	"scholarserbisyo/pkg/handlers"
	"scholarserbisyo/pkg/returnservice"
	"scholarserbisyo/pkg/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load() // load env var from .env
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.Load(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	routes, err := config.LoadRoutes(cfg.RoutesFile)
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}

	db, err := mysql.LoadDB(ctx, cfg.MySQLDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	mongoDB, disconnect, err := mongo.LoadDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := disconnect(dctx); err != nil {
			log.Error("mongo disconnect", "error", err)
		}
	}()

	redis := cache.New(cfg.RedisAddr, cfg.CacheTTL)
	defer redis.Close()
	if err := redis.Ping(ctx); err != nil {
		log.Warn("redis unreachable, directory lookups go straight to the backend", "error", err)
	}

	m := metrics.New()

	remote := backend.New(cfg.BackendURL, cfg.BackendTimeout)
	remote.Observe = m.ObserveBackend

	classifier := event.NewClassifier(cfg.Location)
	sessions := session.NewMySQLSessionRepo(db)

	eventService := event.NewService(event.NewMongoRepo(mongoDB), remote, classifier, log)
	directoryService := directory.NewService(remote, redis, log)
	returnService := returnservice.NewService(remote, classifier, cfg.ReturnServiceRequired, log)

	h := routing.Handlers{
		Auth:          handlers.NewAuthHandler(remote, sessions, log, cfg.CookieSecure),
		Events:        handlers.NewEventHandler(eventService, log),
		Directory:     handlers.NewDirectoryHandler(directoryService, log),
		ReturnService: handlers.NewReturnServiceHandler(returnService, log),
	}

	checks := map[string]routing.Check{
		"mysql": db.PingContext,
		"mongo": func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, readpref.Primary()) },
		"redis": redis.Ping,
	}

	sched, err := scheduler.New(scheduler.Options{
		SyncSchedule: cfg.SyncSchedule,
		ServiceToken: cfg.BackendServiceToken,
		Timeout:      cfg.BackendTimeout * 3,
		Location:     cfg.Location,
	}, eventService, sessions, m, log)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	log.Info("starting scholaRSerbisyo dashboard",
		slog.String("env", cfg.Env),
		slog.String("timezone", cfg.Location.String()),
		slog.String("match", string(routes.Match)),
	)

	r := routing.NewRouter(h, routes, sessions, m, checks, log)
	return routing.StartServer(ctx, cfg.HTTPAddr, r, log)
}
