package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"companion-booking-backend/config"
	"companion-booking-backend/internal/db"
	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/notification"
	"companion-booking-backend/internal/pricing"
	"companion-booking-backend/internal/store"
)

// Tuesday 2026-03-10 09:00 in Seoul.
var (
	seoul    = time.FixedZone("KST", 9*60*60)
	fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, seoul)
)

const (
	tomorrow = "2026-03-11"
	nextWeek = "2026-03-17"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Dispatch(ev notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Event(nil), n.events...)
}

type fixture struct {
	ctx      context.Context
	store    store.Store
	svc      *Service
	notes    *recordingNotifier
	admin    Actor
	customer Actor
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	gdb, err := db.Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	opts.Now = func() time.Time { return fixedNow }
	st := store.NewGormStore(gdb)
	notes := &recordingNotifier{}
	engine := pricing.NewEngine(opts.Now, seoul)

	return &fixture{
		ctx:      context.Background(),
		store:    st,
		svc:      NewService(st, engine, notes, opts),
		notes:    notes,
		admin:    Actor{UserID: uuid.New(), Role: model.RoleAdmin},
		customer: Actor{UserID: uuid.New(), Role: model.RoleCustomer},
	}
}

// addManager stores an active manager serving area and returns it with its actor.
func (f *fixture) addManager(t *testing.T, name string, rating string, total int, areas ...string) (*model.Manager, Actor) {
	t.Helper()
	m := &model.Manager{
		UserID:        uuid.New(),
		Name:          name,
		Status:        model.ManagerActive,
		Grade:         model.GradeRegular,
		Areas:         areas,
		Rating:        decimal.RequireFromString(rating),
		TotalServices: total,
	}
	require.NoError(t, f.store.CreateManager(f.ctx, m))
	return m, Actor{UserID: m.UserID, Role: model.RoleManager}
}

func (f *fixture) addWindow(t *testing.T, managerID uuid.UUID, date, start, end string, available bool) {
	t.Helper()
	require.NoError(t, f.store.CreateScheduleWindow(f.ctx, &model.ScheduleWindow{
		ManagerID:   managerID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: available,
		CreatedAt:   fixedNow,
	}))
}

func (f *fixture) book(t *testing.T, date, clock string, hours string, requested *uuid.UUID) *model.Reservation {
	t.Helper()
	r, err := f.svc.Create(f.ctx, f.customer, CreateInput{
		ServiceType:    string(model.ServiceHospitalCare),
		ScheduledDate:  date,
		ScheduledTime:  clock,
		EstimatedHours: decimal.RequireFromString(hours),
		HospitalName:   "서울대학교병원",
		ManagerID:      requested,
	})
	require.NoError(t, err)
	return r
}
