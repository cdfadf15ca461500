package returnservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scholarserbisyo/pkg/event"
)

var ErrInvalidScholar = errors.New("invalid scholar id")

type Remote interface {
	ListScholarEvents(ctx context.Context, token, scholarID string) ([]event.Event, error)
}

// Summary is a scholar's progress on the return-service obligation. Only
// attended events that are already over count as completed.
type Summary struct {
	ScholarID string         `json:"scholar_id"`
	Required  int            `json:"required"`
	Completed int            `json:"completed"`
	Remaining int            `json:"remaining"`
	Done      bool           `json:"done"`
	Events    []*event.Event `json:"events"`
}

type ServiceReturn interface {
	Summary(ctx context.Context, token, scholarID string, now time.Time) (*Summary, error)
}

type Service struct {
	Remote     Remote
	Classifier *event.Classifier
	Required   int
	Logger     *slog.Logger
}

func NewService(remote Remote, classifier *event.Classifier, required int, logger *slog.Logger) *Service {
	return &Service{
		Remote:     remote,
		Classifier: classifier,
		Required:   required,
		Logger:     logger,
	}
}

func (s *Service) Summary(ctx context.Context, token, scholarID string, now time.Time) (*Summary, error) {
	if scholarID == "" {
		return nil, ErrInvalidScholar
	}

	attended, err := s.Remote.ListScholarEvents(ctx, token, scholarID)
	if err != nil {
		return nil, fmt.Errorf("scholar %s events: %w", scholarID, err)
	}

	events := make([]*event.Event, 0, len(attended))
	for i := range attended {
		events = append(events, &attended[i])
	}

	classified, failed := s.Classifier.Annotate(events, now)
	for id, err := range failed {
		s.Logger.Warn("return service: unclassifiable event", "scholar", scholarID, "event", id, "error", err)
	}
	s.Classifier.SortByStart(classified)

	sum := &Summary{
		ScholarID: scholarID,
		Required:  s.Required,
		Events:    classified,
	}
	for _, e := range classified {
		if e.Status == event.StatusPrevious {
			sum.Completed++
		}
	}
	sum.Remaining = max(s.Required-sum.Completed, 0)
	sum.Done = sum.Remaining == 0

	return sum, nil
}
