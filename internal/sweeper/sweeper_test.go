package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/reservation"
	"companion-booking-backend/internal/store"
)

var seoul = time.FixedZone("KST", 9*60*60)

// mockLifecycle is a mock implementation of the Lifecycle interface.
type mockLifecycle struct {
	ListFunc   func(ctx context.Context, actor reservation.Actor, f store.ReservationFilter) ([]model.Reservation, error)
	CancelFunc func(ctx context.Context, actor reservation.Actor, id uuid.UUID, reason string) (*model.Reservation, error)
}

func (m *mockLifecycle) List(ctx context.Context, actor reservation.Actor, f store.ReservationFilter) ([]model.Reservation, error) {
	return m.ListFunc(ctx, actor, f)
}

func (m *mockLifecycle) Cancel(ctx context.Context, actor reservation.Actor, id uuid.UUID, reason string) (*model.Reservation, error) {
	return m.CancelFunc(ctx, actor, id, reason)
}

func pending(date, clock string) model.Reservation {
	return model.Reservation{ID: uuid.New(), ScheduledDate: date, ScheduledTime: clock, Status: model.StatusPending}
}

func TestSweepOnceCancelsStartedReservations(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, seoul)
	past := pending("2026-03-09", "15:00")
	earlier := pending("2026-03-10", "08:30")
	onTheDot := pending("2026-03-10", "09:00")
	later := pending("2026-03-10", "10:00")

	var (
		mu        sync.Mutex
		cancelled []uuid.UUID
		filter    store.ReservationFilter
	)
	lc := &mockLifecycle{
		ListFunc: func(_ context.Context, actor reservation.Actor, f store.ReservationFilter) ([]model.Reservation, error) {
			assert.Equal(t, System, actor)
			filter = f
			return []model.Reservation{later, onTheDot, earlier, past}, nil
		},
		CancelFunc: func(_ context.Context, _ reservation.Actor, id uuid.UUID, reason string) (*model.Reservation, error) {
			assert.Equal(t, ExpiredReason, reason)
			mu.Lock()
			defer mu.Unlock()
			cancelled = append(cancelled, id)
			return &model.Reservation{ID: id, Status: model.StatusCancelled}, nil
		},
	}

	s := NewService(lc, time.Minute, func() time.Time { return now }, seoul)
	assert.Equal(t, 3, s.SweepOnce(context.Background()))
	assert.ElementsMatch(t, []uuid.UUID{past.ID, earlier.ID, onTheDot.ID}, cancelled)
	assert.Equal(t, model.StatusPending, filter.Status)
	assert.Equal(t, "2026-03-10", filter.DateTo)
}

func TestSweepOncePagesPastKeptRows(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, seoul)
	full := make([]model.Reservation, store.MaxListLimit)
	for i := range full {
		full[i] = pending("2026-03-10", "23:00")
	}
	stale := pending("2026-03-01", "10:00")

	var offsets []int
	lc := &mockLifecycle{
		ListFunc: func(_ context.Context, _ reservation.Actor, f store.ReservationFilter) ([]model.Reservation, error) {
			offsets = append(offsets, f.Offset)
			if f.Offset == 0 {
				return full, nil
			}
			return []model.Reservation{stale}, nil
		},
		CancelFunc: func(_ context.Context, _ reservation.Actor, id uuid.UUID, _ string) (*model.Reservation, error) {
			require.Equal(t, stale.ID, id)
			return &model.Reservation{ID: id}, nil
		},
	}

	s := NewService(lc, time.Minute, func() time.Time { return now }, seoul)
	assert.Equal(t, 1, s.SweepOnce(context.Background()))
	assert.Equal(t, []int{0, store.MaxListLimit}, offsets)
}

func TestSweepOnceSurvivesErrors(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, seoul)

	lc := &mockLifecycle{
		ListFunc: func(context.Context, reservation.Actor, store.ReservationFilter) ([]model.Reservation, error) {
			return nil, errors.New("db down")
		},
	}
	s := NewService(lc, time.Minute, func() time.Time { return now }, seoul)
	assert.Zero(t, s.SweepOnce(context.Background()))

	lc.ListFunc = func(context.Context, reservation.Actor, store.ReservationFilter) ([]model.Reservation, error) {
		return []model.Reservation{pending("2026-03-09", "10:00"), pending("2026-03-09", "bogus")}, nil
	}
	lc.CancelFunc = func(context.Context, reservation.Actor, uuid.UUID, string) (*model.Reservation, error) {
		return nil, reservation.ErrInvalidTransition
	}
	assert.Zero(t, s.SweepOnce(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	sweeps := make(chan struct{}, 10)
	lc := &mockLifecycle{
		ListFunc: func(context.Context, reservation.Actor, store.ReservationFilter) ([]model.Reservation, error) {
			select {
			case sweeps <- struct{}{}:
			default:
			}
			return nil, nil
		},
	}
	s := NewService(lc, 10*time.Millisecond, nil, seoul)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-sweeps:
		case <-time.After(time.Second):
			t.Fatal("sweeper did not run")
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
