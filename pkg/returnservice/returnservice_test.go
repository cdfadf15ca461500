package returnservice_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scholarserbisyo/pkg/event"
	"scholarserbisyo/pkg/returnservice"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) ListScholarEvents(ctx context.Context, token, scholarID string) ([]event.Event, error) {
	args := m.Called(ctx, token, scholarID)
	if e := args.Get(0); e != nil {
		return e.([]event.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	pht = time.FixedZone("PHT", 8*60*60)
	now = time.Date(2024, 6, 1, 10, 0, 0, 0, pht)
	ctx = context.Background()
)

func newService(remote *mockRemote, required int) *returnservice.Service {
	return returnservice.NewService(remote, event.NewClassifier(pht), required, slog.New(slog.DiscardHandler))
}

func TestSummary(t *testing.T) {
	attended := []event.Event{
		{ID: "e3", Date: "2024-06-01", TimeFrom: "09:00", TimeTo: "11:00"},
		{ID: "e1", Date: "2024-05-01", TimeFrom: "09:00", TimeTo: "11:00"},
		{ID: "e2", Date: "2024-05-15", TimeFrom: "13:00", TimeTo: "15:00"},
		{ID: "e4", Date: "2024-06-20", TimeFrom: "09:00", TimeTo: "11:00"},
		{ID: "bad", Date: "someday", TimeFrom: "09:00", TimeTo: "11:00"},
	}

	t.Run("in progress", func(t *testing.T) {
		remote := new(mockRemote)
		remote.On("ListScholarEvents", ctx, "tok", "sch-1").Return(attended, nil)

		sum, err := newService(remote, 5).Summary(ctx, "tok", "sch-1", now)

		require.NoError(t, err)
		assert.Equal(t, 2, sum.Completed)
		assert.Equal(t, 3, sum.Remaining)
		assert.False(t, sum.Done)
		require.Len(t, sum.Events, 4)
		assert.Equal(t, "e1", sum.Events[0].ID)
		assert.Equal(t, event.StatusOngoing, sum.Events[2].Status)
	})

	t.Run("done", func(t *testing.T) {
		remote := new(mockRemote)
		remote.On("ListScholarEvents", ctx, "tok", "sch-1").Return(attended, nil)

		sum, err := newService(remote, 2).Summary(ctx, "tok", "sch-1", now)

		require.NoError(t, err)
		assert.Equal(t, 0, sum.Remaining)
		assert.True(t, sum.Done)
	})

	t.Run("over the requirement never goes negative", func(t *testing.T) {
		remote := new(mockRemote)
		remote.On("ListScholarEvents", ctx, "tok", "sch-1").Return(attended, nil)

		sum, err := newService(remote, 1).Summary(ctx, "tok", "sch-1", now)

		require.NoError(t, err)
		assert.Equal(t, 0, sum.Remaining)
	})

	t.Run("no events", func(t *testing.T) {
		remote := new(mockRemote)
		remote.On("ListScholarEvents", ctx, "tok", "sch-2").Return(nil, nil)

		sum, err := newService(remote, 3).Summary(ctx, "tok", "sch-2", now)

		require.NoError(t, err)
		assert.Equal(t, 3, sum.Remaining)
		assert.NotNil(t, sum.Events)
	})

	t.Run("remote error", func(t *testing.T) {
		remote := new(mockRemote)
		remote.On("ListScholarEvents", ctx, "tok", "sch-1").Return(nil, errors.New("404"))

		_, err := newService(remote, 3).Summary(ctx, "tok", "sch-1", now)

		assert.EqualError(t, err, "scholar sch-1 events: 404")
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := newService(new(mockRemote), 3).Summary(ctx, "tok", "", now)

		assert.ErrorIs(t, err, returnservice.ErrInvalidScholar)
	})
}
