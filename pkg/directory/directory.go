package directory

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	keySchools   = "directory:schools"
	keyBarangays = "directory:barangays"
)

// Entry is a school or barangay that events can be organised under.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Remote interface {
	ListSchools(ctx context.Context, token string) ([]Entry, error)
	ListBarangays(ctx context.Context, token string) ([]Entry, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type ServiceDirectory interface {
	Schools(ctx context.Context, token string) ([]Entry, error)
	Barangays(ctx context.Context, token string) ([]Entry, error)
}

type Service struct {
	Remote Remote
	Cache  Cache
	Logger *slog.Logger
}

func NewService(remote Remote, cache Cache, logger *slog.Logger) *Service {
	return &Service{Remote: remote, Cache: cache, Logger: logger}
}

func (s *Service) Schools(ctx context.Context, token string) ([]Entry, error) {
	return s.cached(ctx, keySchools, func() ([]Entry, error) {
		return s.Remote.ListSchools(ctx, token)
	})
}

func (s *Service) Barangays(ctx context.Context, token string) ([]Entry, error) {
	return s.cached(ctx, keyBarangays, func() ([]Entry, error) {
		return s.Remote.ListBarangays(ctx, token)
	})
}

// cached serves key from the cache and falls through to load on a miss or a
// cache failure.
func (s *Service) cached(ctx context.Context, key string, load func() ([]Entry, error)) ([]Entry, error) {
	var entries []Entry
	hit, err := s.Cache.Get(ctx, key, &entries)
	if err != nil {
		s.Logger.Warn("cache get", "key", key, "error", err)
	}
	if hit && err == nil {
		return entries, nil
	}

	entries, err = load()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if entries == nil {
		entries = []Entry{}
	}

	if err := s.Cache.Set(ctx, key, entries); err != nil {
		s.Logger.Warn("cache set", "key", key, "error", err)
	}
	return entries, nil
}
