package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"scholarserbisyo/pkg/event"
)

type Config struct {
	Env      string
	HTTPAddr string

	BackendURL          string
	BackendTimeout      time.Duration
	BackendServiceToken string

	Timezone string
	Location *time.Location

	MySQLDSN    string
	MongoURI    string
	MongoDBName string
	RedisAddr   string
	CacheTTL    time.Duration

	RoutesFile   string
	SyncSchedule string

	ReturnServiceRequired int
	CookieSecure          bool
}

// Load reads the env file named by START (or .env when present) and then the
// process environment.
func Load() (*Config, error) {
	/*
		START picks the env file: .env-local for a local stack,
		.env.docker inside compose
	*/
	if path := os.Getenv("START"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("env file %s: %w", path, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("env file .env: %w", err)
		}
	}

	env := &envReader{}
	cfg := &Config{
		Env:                   getEnv("ENV", "local"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8082"),
		BackendURL:            os.Getenv("BACKEND_URL"),
		BackendTimeout:        env.getDuration("BACKEND_TIMEOUT", 10*time.Second),
		BackendServiceToken:   os.Getenv("BACKEND_SERVICE_TOKEN"),
		Timezone:              getEnv("TIMEZONE", event.DefaultTimezone),
		MySQLDSN:              os.Getenv("MYSQL_DSN"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDBName:           getEnv("MONGO_DB_NAME", "scholarserbisyo"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:              env.getDuration("CACHE_TTL", 5*time.Minute),
		RoutesFile:            getEnv("ROUTES_FILE", "routes.yaml"),
		SyncSchedule:          getEnv("SYNC_SCHEDULE", "*/10 * * * *"),
		ReturnServiceRequired: env.getInt("RETURN_SERVICE_REQUIRED", 5),
		CookieSecure:          env.getBool("COOKIE_SECURE", false),
	}

	if err := errors.Join(env.errs, cfg.validate()); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_URL is not set in environment"))
	}
	if c.MySQLDSN == "" {
		errs = append(errs, errors.New("MYSQL_DSN is not set in environment"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is not set in environment"))
	}
	if c.ReturnServiceRequired < 0 {
		errs = append(errs, errors.New("RETURN_SERVICE_REQUIRED must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envReader parses typed variables and keeps every malformed value so Load
// can report them together with the missing ones.
type envReader struct {
	errs error
}

func (e *envReader) fail(key, v string, err error) {
	e.errs = errors.Join(e.errs, fmt.Errorf("%s=%q: %w", key, v, err))
}

func (e *envReader) getInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return defaultVal
	}
	return i
}

func (e *envReader) getBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return defaultVal
	}
	return b
}

func (e *envReader) getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return defaultVal
	}
	if d <= 0 {
		e.fail(key, v, errors.New("must be positive"))
		return defaultVal
	}
	return d
}
