package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"companion-booking-backend/internal/model"
)

func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", translate(err))
	}
	return nil
}

func (s *gormStore) GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get reservation %s: %w", id, translate(err))
	}
	return &r, nil
}

func (s *gormStore) LockReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.forUpdate(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to lock reservation %s: %w", id, translate(err))
	}
	return &r, nil
}

// SaveReservationState only touches lifecycle columns; schedule and price are fixed at creation.
func (s *gormStore) SaveReservationState(ctx context.Context, r *model.Reservation) error {
	res := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND version = ?", r.ID, r.Version).
		Updates(map[string]any{
			"manager_id":    r.ManagerID,
			"status":        r.Status,
			"cancel_reason": r.CancelReason,
			"confirmed_at":  r.ConfirmedAt,
			"started_at":    r.StartedAt,
			"completed_at":  r.CompletedAt,
			"cancelled_at":  r.CancelledAt,
			"version":       r.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to save reservation %s: %w", r.ID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reservation %s was modified concurrently: %w", r.ID, ErrConflict)
	}
	r.Version++
	return nil
}

func (s *gormStore) ListReservations(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	q := s.db.WithContext(ctx).Model(&model.Reservation{})
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.ManagerID != nil {
		q = q.Where("manager_id = ?", *f.ManagerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DateFrom != "" {
		q = q.Where("scheduled_date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("scheduled_date <= ?", f.DateTo)
	}

	var out []model.Reservation
	err := q.Order("scheduled_date DESC, scheduled_time DESC, id").
		Limit(f.limit()).
		Offset(max(f.Offset, 0)).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return out, nil
}

func (s *gormStore) ManagerReservationsOn(ctx context.Context, managerID uuid.UUID, date string, statuses []model.ReservationStatus) ([]model.Reservation, error) {
	var out []model.Reservation
	err := s.db.WithContext(ctx).
		Where("manager_id = ? AND scheduled_date = ? AND status IN ?", managerID, date, statuses).
		Order("scheduled_time").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reservations of manager %s on %s: %w", managerID, date, err)
	}
	return out, nil
}

func (s *gormStore) AppendStatusLog(ctx context.Context, entry *model.ReservationStatusLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append status log for reservation %s: %w", entry.ReservationID, err)
	}
	return nil
}

func (s *gormStore) StatusLogs(ctx context.Context, reservationID uuid.UUID) ([]model.ReservationStatusLog, error) {
	var out []model.ReservationStatusLog
	err := s.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status logs for reservation %s: %w", reservationID, err)
	}
	return out, nil
}
