package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scholarserbisyo/internal/metrics"
)

type mockSyncer struct {
	mock.Mock
}

func (m *mockSyncer) Sync(ctx context.Context, token string, now time.Time) (int, error) {
	args := m.Called(token, now)
	return args.Int(0), args.Error(1)
}

type mockPurger struct {
	mock.Mock
}

func (m *mockPurger) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

var (
	logger = slog.New(slog.DiscardHandler)
	fixed  = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
)

func newScheduler(t *testing.T, token string) (*Scheduler, *mockSyncer, *mockPurger, *metrics.Metrics) {
	syncer, purger, m := new(mockSyncer), new(mockPurger), metrics.New()
	s, err := New(Options{SyncSchedule: "*/10 * * * *", ServiceToken: token}, syncer, purger, m, logger)
	require.NoError(t, err)
	s.now = func() time.Time { return fixed }
	return s, syncer, purger, m
}

func TestNew(t *testing.T) {
	s, _, _, _ := newScheduler(t, "svc")
	assert.Len(t, s.cron.Entries(), 2)

	s, _, _, _ = newScheduler(t, "")
	assert.Len(t, s.cron.Entries(), 1, "sync is disabled without a service token")

	_, err := New(Options{SyncSchedule: "every tuesday", ServiceToken: "svc"}, new(mockSyncer), new(mockPurger), metrics.New(), logger)
	assert.Error(t, err)
}

func TestSyncEvents(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		s, syncer, _, m := newScheduler(t, "svc")
		syncer.On("Sync", "svc", fixed).Return(12, nil)

		s.SyncEvents()

		assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRuns.WithLabelValues("ok")))
		assert.Equal(t, 12.0, testutil.ToFloat64(m.EventsMirrored))
	})

	t.Run("error", func(t *testing.T) {
		s, syncer, _, m := newScheduler(t, "svc")
		syncer.On("Sync", "svc", fixed).Return(0, errors.New("remote down"))

		s.SyncEvents()

		assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRuns.WithLabelValues("error")))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.EventsMirrored))
	})
}

func TestSyncEvents_SkipsOverlappingRun(t *testing.T) {
	s, syncer, _, m := newScheduler(t, "svc")

	entered, release := make(chan struct{}), make(chan struct{})
	syncer.On("Sync", "svc", fixed).Return(5, nil).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Once()

	job := s.cron.Entry(s.syncEntry).WrappedJob
	require.NotNil(t, job)

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-entered

	job.Run()
	close(release)
	<-done

	syncer.AssertNumberOfCalls(t, "Sync", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRuns.WithLabelValues("ok")))
}

func TestPurgeSessions(t *testing.T) {
	s, _, purger, _ := newScheduler(t, "")
	purger.On("DeleteExpired").Return(int64(3), nil).Once()
	purger.On("DeleteExpired").Return(int64(0), errors.New("mysql gone")).Once()

	s.PurgeSessions()
	s.PurgeSessions()

	purger.AssertNumberOfCalls(t, "DeleteExpired", 2)
}

func TestStartStop(t *testing.T) {
	s, _, _, _ := newScheduler(t, "svc")

	s.Start()
	s.Stop()
}
