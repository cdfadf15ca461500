package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Remote is the part of the scholaRSerbisyo API the event service talks to.
type Remote interface {
	ListEvents(ctx context.Context, token string) ([]Event, error)
	CreateEvent(ctx context.Context, token string, event *Event) (*Event, error)
}

type ServiceEvent interface {
	List(ctx context.Context, now time.Time, filter *Status) ([]*Event, error)
	Grouped(ctx context.Context, now time.Time) (Groups, error)
	Get(ctx context.Context, id string, now time.Time) (*Event, error)
	Create(ctx context.Context, token string, event *Event, now time.Time) (*Event, error)
	Sync(ctx context.Context, token string, now time.Time) (int, error)
}

type Service struct {
	Repo       Repository
	Remote     Remote
	Classifier *Classifier
	Logger     *slog.Logger
}

func NewService(repo Repository, remote Remote, classifier *Classifier, logger *slog.Logger) *Service {
	return &Service{
		Repo:       repo,
		Remote:     remote,
		Classifier: classifier,
		Logger:     logger,
	}
}

// List returns the mirrored events with their status at now, optionally
// restricted to one status, ordered by start time.
func (s *Service) List(ctx context.Context, now time.Time, filter *Status) ([]*Event, error) {
	events, err := s.Repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	events = s.annotate(events, now)
	s.Classifier.SortByStart(events)

	if filter == nil {
		return events, nil
	}

	out := make([]*Event, 0, len(events))
	for _, e := range events {
		if e.Status == *filter {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) Grouped(ctx context.Context, now time.Time) (Groups, error) {
	events, err := s.Repo.GetAll(ctx)
	if err != nil {
		return Groups{}, err
	}
	return s.Classifier.Group(s.annotate(events, now)), nil
}

func (s *Service) Get(ctx context.Context, id string, now time.Time) (*Event, error) {
	event, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status, err := s.Classifier.Classify(event, now)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	event.Status = status
	return event, nil
}

func (s *Service) Create(ctx context.Context, token string, event *Event, now time.Time) (*Event, error) {
	event.ID = ""
	event.Status = ""
	if err := Validate(event); err != nil {
		return nil, err
	}

	created, err := s.Remote.CreateEvent(ctx, token, event)
	if err != nil {
		return nil, fmt.Errorf("remote create: %w", err)
	}

	created.SyncedAt = now
	if err := s.Repo.Upsert(ctx, created); err != nil {
		// the remote write succeeded; the next sync repairs the mirror
		s.Logger.Error("mirror upsert", "error", err, "event", created.ID)
	}

	status, err := s.Classifier.Classify(created, now)
	if err != nil {
		s.Logger.Warn("created event is unclassifiable", "event", created.ID, "error", err)
		return created, nil
	}
	created.Status = status
	return created, nil
}

// Sync replaces the mirror with the remote event list and returns the number
// of events mirrored.
func (s *Service) Sync(ctx context.Context, token string, now time.Time) (int, error) {
	remote, err := s.Remote.ListEvents(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("remote list: %w", err)
	}

	events := make([]*Event, 0, len(remote))
	ids := make([]string, 0, len(remote))
	for i := range remote {
		e := &remote[i]
		if e.ID == "" {
			s.Logger.Warn("sync: skipping event without id", "title", e.Title)
			continue
		}
		e.Status = ""
		e.SyncedAt = now
		events = append(events, e)
		ids = append(ids, e.ID)
	}

	if err := s.Repo.UpsertMany(ctx, events); err != nil {
		return 0, err
	}

	removed, err := s.Repo.DeleteMissing(ctx, ids)
	if err != nil {
		return 0, err
	}

	s.Logger.Info("events synced", "mirrored", len(events), "removed", removed)
	return len(events), nil
}

func (s *Service) annotate(events []*Event, now time.Time) []*Event {
	ok, failed := s.Classifier.Annotate(events, now)
	for id, err := range failed {
		s.Logger.Warn("unclassifiable event", "event", id, "error", err)
	}
	return ok
}
