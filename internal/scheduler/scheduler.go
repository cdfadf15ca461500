package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"scholarserbisyo/internal/metrics"
)

type EventSyncer interface {
	Sync(ctx context.Context, token string, now time.Time) (int, error)
}

type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Scheduler keeps the event mirror fresh and drops expired sessions.
type Scheduler struct {
	cron      *cron.Cron
	syncEntry cron.EntryID
	events    EventSyncer
	purger    SessionPurger
	token     string
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Options struct {
	SyncSchedule string
	ServiceToken string
	Timeout      time.Duration
	Location     *time.Location
}

func New(opts Options, events EventSyncer, purger SessionPurger, m *metrics.Metrics, logger *slog.Logger) (*Scheduler, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
		),
		events:  events,
		purger:  purger,
		token:   opts.ServiceToken,
		timeout: opts.Timeout,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}

	if opts.ServiceToken == "" {
		logger.Warn("BACKEND_SERVICE_TOKEN is empty, scheduled event sync disabled")
	} else {
		id, err := s.cron.AddFunc(opts.SyncSchedule, s.SyncEvents)
		if err != nil {
			return nil, err
		}
		s.syncEntry = id
	}

	if _, err := s.cron.AddFunc("@hourly", s.PurgeSessions); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) SyncEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.events.Sync(ctx, s.token, s.now())
	if err != nil {
		s.metrics.SyncRuns.WithLabelValues("error").Inc()
		s.logger.Error("scheduled event sync", "error", err)
		return
	}
	s.metrics.SyncRuns.WithLabelValues("ok").Inc()
	s.metrics.EventsMirrored.Set(float64(n))
}

func (s *Scheduler) PurgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.purger.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("purge sessions", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", "count", n)
	}
}

// cronLogger routes cron's own messages, such as skipped overlapping runs,
// into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
