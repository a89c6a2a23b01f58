package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"companion-booking-backend/internal/model"
)

func (s *gormStore) CreateScheduleWindow(ctx context.Context, w *model.ScheduleWindow) error {
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("failed to create schedule window: %w", translate(err))
	}
	return nil
}

func (s *gormStore) AvailableWindows(ctx context.Context, managerID uuid.UUID, date string) ([]model.ScheduleWindow, error) {
	var out []model.ScheduleWindow
	err := s.db.WithContext(ctx).
		Where("manager_id = ? AND date = ? AND is_available = ?", managerID, date, true).
		Order("start_time").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch windows of manager %s on %s: %w", managerID, date, err)
	}
	return out, nil
}

func (s *gormStore) ListScheduleWindows(ctx context.Context, managerID uuid.UUID, dateFrom, dateTo string) ([]model.ScheduleWindow, error) {
	q := s.db.WithContext(ctx).Where("manager_id = ?", managerID)
	if dateFrom != "" {
		q = q.Where("date >= ?", dateFrom)
	}
	if dateTo != "" {
		q = q.Where("date <= ?", dateTo)
	}

	var out []model.ScheduleWindow
	if err := q.Order("date, start_time").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list windows of manager %s: %w", managerID, err)
	}
	return out, nil
}

// DeleteScheduleWindow removes a window owned by managerID. Windows of other managers are reported as not found.
func (s *gormStore) DeleteScheduleWindow(ctx context.Context, managerID uuid.UUID, id int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND manager_id = ?", id, managerID).
		Delete(&model.ScheduleWindow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete schedule window %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("schedule window %d: %w", id, ErrNotFound)
	}
	return nil
}
