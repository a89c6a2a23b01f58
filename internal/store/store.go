package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"companion-booking-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Transaction runs fn against a Store bound to a single database transaction.
	// Returning an error from fn rolls back every write made through that Store.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error

	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// LockReservation reads a reservation and holds a row lock until the transaction ends.
	LockReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// SaveReservationState writes the mutable lifecycle columns if r.Version is current,
	// then bumps r.Version. A stale version yields ErrConflict.
	SaveReservationState(ctx context.Context, r *model.Reservation) error
	ListReservations(ctx context.Context, f ReservationFilter) ([]model.Reservation, error)
	// ManagerReservationsOn returns the manager's reservations on date in any of statuses.
	ManagerReservationsOn(ctx context.Context, managerID uuid.UUID, date string, statuses []model.ReservationStatus) ([]model.Reservation, error)
	AppendStatusLog(ctx context.Context, entry *model.ReservationStatusLog) error
	StatusLogs(ctx context.Context, reservationID uuid.UUID) ([]model.ReservationStatusLog, error)

	CreateManager(ctx context.Context, m *model.Manager) error
	GetManager(ctx context.Context, id uuid.UUID) (*model.Manager, error)
	GetManagerByUserID(ctx context.Context, userID uuid.UUID) (*model.Manager, error)
	// LockManager reads a manager and holds a row lock until the transaction ends.
	LockManager(ctx context.Context, id uuid.UUID) (*model.Manager, error)
	UpdateManagerStatus(ctx context.Context, id uuid.UUID, status model.ManagerStatus) error
	ListActiveManagers(ctx context.Context) ([]model.Manager, error)

	CreateScheduleWindow(ctx context.Context, w *model.ScheduleWindow) error
	// AvailableWindows returns the manager's windows on date flagged as available.
	AvailableWindows(ctx context.Context, managerID uuid.UUID, date string) ([]model.ScheduleWindow, error)
	ListScheduleWindows(ctx context.Context, managerID uuid.UUID, dateFrom, dateTo string) ([]model.ScheduleWindow, error)
	DeleteScheduleWindow(ctx context.Context, managerID uuid.UUID, id int64) error

	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Transaction runs fn inside a database transaction.
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// Ping checks database connectivity.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// forUpdate adds a row lock on dialects that support one. sqlite serializes writers instead.
func (s *gormStore) forUpdate(ctx context.Context) *gorm.DB {
	q := s.db.WithContext(ctx)
	if q.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}
