package internal

import (
	"context"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-booking-backend/config"
	"companion-booking-backend/internal/db"
	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/notification"
	"companion-booking-backend/internal/pricing"
	"companion-booking-backend/internal/reservation"
	"companion-booking-backend/internal/store"
	"companion-booking-backend/internal/sweeper"
)

type channelPublisher struct {
	events chan notification.Event
}

func (p *channelPublisher) Publish(_ context.Context, ev notification.Event) error {
	p.events <- ev
	return nil
}

// TestReservationLifecycle drives two reservations through the service with the real
// worker pool attached and checks the events that reach the broker, in order.
func TestReservationLifecycle(t *testing.T) {
	// --- Test Setup ---
	seoul := time.FixedZone("KST", 9*60*60)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, seoul)
	clock := func() time.Time { return now }

	gdb, err := db.Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	sqlDB, _ := gdb.DB()
	defer sqlDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.NewGormStore(gdb)
	pub := &channelPublisher{events: make(chan notification.Event, 16)}
	pool := notification.NewWorkerPool(1, 16, st, &webpush.Options{}, pub)
	pool.Start(ctx)

	svc := reservation.NewService(st, pricing.NewEngine(clock, seoul), pool, reservation.Options{Now: clock})
	admin := reservation.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	customer := reservation.Actor{UserID: uuid.New(), Role: model.RoleCustomer}
	managerActor := reservation.Actor{UserID: uuid.New(), Role: model.RoleManager}

	m, err := svc.RegisterManager(ctx, admin, reservation.ManagerInput{
		UserID: managerActor.UserID,
		Name:   "박매니저",
		Grade:  string(model.GradePremium),
		Status: string(model.ManagerActive),
		Areas:  []string{"종로구"},
		Rating: decimal.RequireFromString("4.8"),
	})
	require.NoError(t, err)
	_, err = svc.AddWindow(ctx, managerActor, reservation.WindowInput{Date: "2026-03-11", StartTime: "08:00", EndTime: "20:00"})
	require.NoError(t, err)

	// --- Booking that runs to completion ---
	booked, err := svc.Create(ctx, customer, reservation.CreateInput{
		ServiceType:    string(model.ServiceFullCare),
		ScheduledDate:  "2026-03-11",
		ScheduledTime:  "10:00",
		EstimatedHours: decimal.NewFromInt(3),
		HospitalName:   "서울아산병원",
		ManagerID:      &m.ID,
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(105000).Equal(booked.Price))

	for _, to := range []model.ReservationStatus{model.StatusConfirmed, model.StatusInProgress, model.StatusCompleted} {
		r, err := svc.ChangeStatus(ctx, managerActor, booked.ID, to, "")
		require.NoError(t, err, "to %s", to)
		assert.Equal(t, to, r.Status)
	}

	_, rev, err := svc.Settlement(ctx, admin, booked.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15750).Equal(rev.PlatformFee))
	assert.True(t, decimal.NewFromInt(89250).Equal(rev.ManagerRevenue))

	// --- Booking nobody accepts before it starts ---
	stale, err := svc.Create(ctx, customer, reservation.CreateInput{
		ServiceType:    string(model.ServiceHospitalCare),
		ScheduledDate:  "2026-03-10",
		ScheduledTime:  "08:00",
		EstimatedHours: decimal.NewFromInt(1),
		HospitalName:   "서울아산병원",
	})
	require.NoError(t, err)

	sw := sweeper.NewService(svc, time.Minute, clock, seoul)
	assert.Equal(t, 1, sw.SweepOnce(ctx))
	assert.Zero(t, sw.SweepOnce(ctx), "already cancelled")

	expired, err := svc.Get(ctx, admin, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, expired.Status)
	assert.Equal(t, sweeper.ExpiredReason, expired.CancelReason)

	// --- Events, in dispatch order ---
	want := []struct {
		typ notification.EventType
		id  uuid.UUID
	}{
		{notification.EventCreated, booked.ID},
		{notification.EventConfirmed, booked.ID},
		{notification.EventStarted, booked.ID},
		{notification.EventCompleted, booked.ID},
		{notification.EventCreated, stale.ID},
		{notification.EventCancelled, stale.ID},
	}
	for i, w := range want {
		select {
		case ev := <-pub.events:
			assert.Equal(t, w.typ, ev.Type, "event %d", i)
			assert.Equal(t, w.id, ev.ReservationID, "event %d", i)
			assert.Equal(t, "reservation."+string(w.typ), notification.QueueName("reservation", ev.Type))
			if ev.ReservationID == booked.ID {
				assert.Contains(t, ev.Recipients(), managerActor.UserID, "event %d", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d (%s)", i, w.typ)
		}
	}
}
