package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
	done   chan struct{}
}

func (m *mockPublisher) Publish(_ context.Context, ev Event) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.err
}

func newTestStore(t *testing.T) (store.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return store.NewGormStore(gormDB), mock
}

func pushOptions() *webpush.Options {
	return &webpush.Options{VAPIDPrivateKey: "private", VAPIDPublicKey: "public", TTL: 30}
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	st, _ := newTestStore(t)
	wp := NewWorkerPool(1, 1, st, pushOptions(), nil)

	first := Event{ID: uuid.New(), Type: EventCreated}
	wp.Dispatch(first)
	// The queue holds one event; the second is dropped instead of blocking the caller.
	wp.Dispatch(Event{ID: uuid.New(), Type: EventCreated})

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, first.ID, job.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
	assert.Empty(t, wp.Jobs())
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	st, mock := newTestStore(t)
	wp := NewWorkerPool(1, 8, st, pushOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	customer := uuid.New()
	managerUser := uuid.New()
	managerID := uuid.New()
	columns := []string{"endpoint", "user_id", "p256dh", "auth", "created_at"}

	t.Run("sends a confirmation to customer and manager", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(2)

		var mu sync.Mutex
		var endpoints []string
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				var p Payload
				assert.NoError(t, json.Unmarshal(payload, &p))
				assert.Equal(t, EventConfirmed, p.Type)
				assert.Equal(t, "예약이 확정되었습니다 (2026-03-11 10:00)", p.Message)
				mu.Lock()
				endpoints = append(endpoints, sub.Endpoint)
				mu.Unlock()
				return response(http.StatusCreated), nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(customer).
			WillReturnRows(sqlmock.NewRows(columns).AddRow("https://push.example/customer", customer.String(), "p256", "auth", time.Now()))
		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(managerUser).
			WillReturnRows(sqlmock.NewRows(columns).AddRow("https://push.example/manager", managerUser.String(), "p256", "auth", time.Now()))

		wp.Dispatch(Event{
			ID:            uuid.New(),
			Type:          EventConfirmed,
			ReservationID: uuid.New(),
			CustomerID:    customer,
			ManagerID:     &managerID,
			ManagerUserID: &managerUser,
			Status:        model.StatusConfirmed,
			ScheduledDate: "2026-03-11",
			ScheduledTime: "10:00",
		})
		wg.Wait()

		assert.ElementsMatch(t, []string{"https://push.example/customer", "https://push.example/manager"}, endpoints)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return response(http.StatusGone), nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(managerUser).
			WillReturnRows(sqlmock.NewRows(columns).AddRow("https://push.example/expired", managerUser.String(), "p256", "auth", time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://push.example/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		// A new request only reaches the requested manager.
		wp.Dispatch(Event{ID: uuid.New(), Type: EventCreated, CustomerID: customer, ManagerUserID: &managerUser})

		assert.Eventually(t, func() bool { return mock.ExpectationsWereMet() == nil }, time.Second, 10*time.Millisecond)
	})

	t.Run("keeps going when a lookup fails", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				assert.Equal(t, "https://push.example/manager", sub.Endpoint)
				return nil, errors.New("push service unreachable")
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(customer).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(managerUser).
			WillReturnRows(sqlmock.NewRows(columns).AddRow("https://push.example/manager", managerUser.String(), "p256", "auth", time.Now()))

		wp.Dispatch(Event{ID: uuid.New(), Type: EventCancelled, CustomerID: customer, ManagerUserID: &managerUser})
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWorkerPool_Publishes(t *testing.T) {
	st, mock := newTestStore(t)
	pub := &mockPublisher{err: errors.New("broker down"), done: make(chan struct{}, 2)}
	// Without VAPID keys only the broker sees events.
	wp := NewWorkerPool(1, 4, st, &webpush.Options{}, pub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	ev := Event{ID: uuid.New(), Type: EventCompleted, CustomerID: uuid.New()}
	wp.Dispatch(ev)
	wp.Dispatch(Event{ID: uuid.New(), Type: EventStarted, CustomerID: uuid.New()})

	for i := 0; i < 2; i++ {
		select {
		case <-pub.done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for publish")
		}
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.events, 2)
	assert.Equal(t, ev.ID, pub.events[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet(), "no subscription lookups without push keys")
}

func TestQueueName(t *testing.T) {
	assert.Equal(t, "reservation.confirmed", QueueName("reservation", EventConfirmed))
	assert.Equal(t, "booking.cancelled", QueueName("booking", EventCancelled))
}
