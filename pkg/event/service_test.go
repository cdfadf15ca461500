package event_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scholarserbisyo/pkg/event"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Upsert(ctx context.Context, e *event.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockRepo) UpsertMany(ctx context.Context, events []*event.Event) error {
	return m.Called(ctx, events).Error(0)
}

func (m *mockRepo) GetAll(ctx context.Context) ([]*event.Event, error) {
	args := m.Called(ctx)
	if e := args.Get(0); e != nil {
		return e.([]*event.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if e := args.Get(0); e != nil {
		return e.(*event.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) GetByScope(ctx context.Context, scope string) ([]*event.Event, error) {
	args := m.Called(ctx, scope)
	if e := args.Get(0); e != nil {
		return e.([]*event.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) DeleteMissing(ctx context.Context, keepIDs []string) (int64, error) {
	args := m.Called(ctx, keepIDs)
	return args.Get(0).(int64), args.Error(1)
}

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) ListEvents(ctx context.Context, token string) ([]event.Event, error) {
	args := m.Called(ctx, token)
	if e := args.Get(0); e != nil {
		return e.([]event.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRemote) CreateEvent(ctx context.Context, token string, e *event.Event) (*event.Event, error) {
	args := m.Called(ctx, token, e)
	if c := args.Get(0); c != nil {
		return c.(*event.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	ctx     = context.Background()
	logger  = slog.New(slog.DiscardHandler)
	nowTime = time.Date(2024, 6, 1, 10, 0, 0, 0, pht)
)

func newService() (*event.Service, *mockRepo, *mockRemote) {
	repo := new(mockRepo)
	remote := new(mockRemote)
	return event.NewService(repo, remote, event.NewClassifier(pht), logger), repo, remote
}

func fixtures() []*event.Event {
	return []*event.Event{
		{ID: "up", Title: gofakeit.Sentence(3), Date: "2024-06-02", TimeFrom: "09:00", TimeTo: "10:00"},
		{ID: "on", Title: gofakeit.Sentence(3), Date: "2024-06-01", TimeFrom: "09:00", TimeTo: "11:00"},
		{ID: "prev", Title: gofakeit.Sentence(3), Date: "2024-05-01", TimeFrom: "09:00", TimeTo: "11:00"},
		{ID: "bad", Title: gofakeit.Sentence(3), Date: "2024-06-01", TimeFrom: "9", TimeTo: "11:00"},
	}
}

func TestService_List(t *testing.T) {
	t.Run("all statuses, ordered by start", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.On("GetAll", ctx).Return(fixtures(), nil)

		events, err := svc.List(ctx, nowTime, nil)

		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "prev", events[0].ID)
		assert.Equal(t, event.StatusPrevious, events[0].Status)
		assert.Equal(t, "on", events[1].ID)
		assert.Equal(t, event.StatusOngoing, events[1].Status)
		assert.Equal(t, "up", events[2].ID)
		assert.Equal(t, event.StatusUpcoming, events[2].Status)
		repo.AssertExpectations(t)
	})

	t.Run("filtered", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.On("GetAll", ctx).Return(fixtures(), nil)
		status := event.StatusUpcoming

		events, err := svc.List(ctx, nowTime, &status)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "up", events[0].ID)
	})

	t.Run("repo error", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.On("GetAll", ctx).Return(nil, errors.New("mongo down"))

		events, err := svc.List(ctx, nowTime, nil)

		assert.EqualError(t, err, "mongo down")
		assert.Nil(t, events)
	})
}

func TestService_Grouped(t *testing.T) {
	svc, repo, _ := newService()
	repo.On("GetAll", ctx).Return(fixtures(), nil)

	groups, err := svc.Grouped(ctx, nowTime)

	require.NoError(t, err)
	assert.Len(t, groups.Previous, 1)
	assert.Len(t, groups.Ongoing, 1)
	assert.Len(t, groups.Upcoming, 1)
}

func TestService_Get(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.On("GetByID", ctx, "on").Return(fixtures()[1], nil)

		e, err := svc.Get(ctx, "on", nowTime)

		require.NoError(t, err)
		assert.Equal(t, event.StatusOngoing, e.Status)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.On("GetByID", ctx, "nope").Return(nil, event.ErrNotFound)

		_, err := svc.Get(ctx, "nope", nowTime)

		assert.ErrorIs(t, err, event.ErrNotFound)
	})

	t.Run("malformed record", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.On("GetByID", ctx, "bad").Return(fixtures()[3], nil)

		_, err := svc.Get(ctx, "bad", nowTime)

		var perr *event.ParseError
		assert.True(t, errors.As(err, &perr))
	})
}

func TestService_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, repo, remote := newService()
		in := validEvent()
		in.Date = "2024-06-05"
		created := *in
		created.ID = "new-1"

		remote.On("CreateEvent", ctx, "tok", in).Return(&created, nil)
		repo.On("Upsert", ctx, mock.MatchedBy(func(e *event.Event) bool {
			return e.ID == "new-1" && e.SyncedAt.Equal(nowTime)
		})).Return(nil)

		out, err := svc.Create(ctx, "tok", in, nowTime)

		require.NoError(t, err)
		assert.Equal(t, "new-1", out.ID)
		assert.Equal(t, event.StatusUpcoming, out.Status)
		repo.AssertExpectations(t)
		remote.AssertExpectations(t)
	})

	t.Run("validation error never reaches remote", func(t *testing.T) {
		svc, _, remote := newService()
		in := validEvent()
		in.TimeTo = "08:00"

		_, err := svc.Create(ctx, "tok", in, nowTime)

		var verr *event.ValidationError
		assert.True(t, errors.As(err, &verr))
		remote.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("remote error", func(t *testing.T) {
		svc, repo, remote := newService()
		in := validEvent()
		remote.On("CreateEvent", ctx, "tok", in).Return(nil, errors.New("502"))

		_, err := svc.Create(ctx, "tok", in, nowTime)

		assert.EqualError(t, err, "remote create: 502")
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("mirror failure is not fatal", func(t *testing.T) {
		svc, repo, remote := newService()
		in := validEvent()
		created := *in
		created.ID = "new-2"
		remote.On("CreateEvent", ctx, "tok", in).Return(&created, nil)
		repo.On("Upsert", ctx, mock.Anything).Return(errors.New("mongo down"))

		out, err := svc.Create(ctx, "tok", in, nowTime)

		require.NoError(t, err)
		assert.Equal(t, event.StatusOngoing, out.Status)
	})

	t.Run("unclassifiable echo still returns the created event", func(t *testing.T) {
		svc, repo, remote := newService()
		in := validEvent()
		created := *in
		created.ID = "new-3"
		created.Date = "06/01/2024"
		remote.On("CreateEvent", ctx, "tok", in).Return(&created, nil)
		repo.On("Upsert", ctx, mock.Anything).Return(nil)

		out, err := svc.Create(ctx, "tok", in, nowTime)

		require.NoError(t, err)
		assert.Equal(t, "new-3", out.ID)
		assert.Empty(t, out.Status)
		repo.AssertExpectations(t)
	})
}

func TestService_Sync(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, repo, remote := newService()
		remote.On("ListEvents", ctx, "svc").Return([]event.Event{
			{ID: "a", Date: "2024-06-01", TimeFrom: "09:00", TimeTo: "10:00"},
			{ID: "", Title: "orphan"},
			{ID: "b", Date: "2024-06-02", TimeFrom: "09:00", TimeTo: "10:00"},
		}, nil)
		repo.On("UpsertMany", ctx, mock.MatchedBy(func(events []*event.Event) bool {
			return len(events) == 2 && events[0].SyncedAt.Equal(nowTime)
		})).Return(nil)
		repo.On("DeleteMissing", ctx, []string{"a", "b"}).Return(int64(1), nil)

		n, err := svc.Sync(ctx, "svc", nowTime)

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		repo.AssertExpectations(t)
	})

	t.Run("remote error", func(t *testing.T) {
		svc, repo, remote := newService()
		remote.On("ListEvents", ctx, "svc").Return(nil, errors.New("timeout"))

		_, err := svc.Sync(ctx, "svc", nowTime)

		assert.EqualError(t, err, "remote list: timeout")
		repo.AssertNotCalled(t, "UpsertMany", mock.Anything, mock.Anything)
	})

	t.Run("upsert error", func(t *testing.T) {
		svc, repo, remote := newService()
		remote.On("ListEvents", ctx, "svc").Return([]event.Event{{ID: "a"}}, nil)
		repo.On("UpsertMany", ctx, mock.Anything).Return(errors.New("bulk failed"))

		_, err := svc.Sync(ctx, "svc", nowTime)

		assert.EqualError(t, err, "bulk failed")
		repo.AssertNotCalled(t, "DeleteMissing", mock.Anything, mock.Anything)
	})
}
