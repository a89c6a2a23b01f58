package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"companion-booking-backend/internal/model"
)

func (s *gormStore) CreateManager(ctx context.Context, m *model.Manager) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create manager: %w", translate(err))
	}
	return nil
}

func (s *gormStore) GetManager(ctx context.Context, id uuid.UUID) (*model.Manager, error) {
	var m model.Manager
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get manager %s: %w", id, translate(err))
	}
	return &m, nil
}

func (s *gormStore) GetManagerByUserID(ctx context.Context, userID uuid.UUID) (*model.Manager, error) {
	var m model.Manager
	if err := s.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to get manager for user %s: %w", userID, translate(err))
	}
	return &m, nil
}

func (s *gormStore) LockManager(ctx context.Context, id uuid.UUID) (*model.Manager, error) {
	var m model.Manager
	if err := s.forUpdate(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to lock manager %s: %w", id, translate(err))
	}
	return &m, nil
}

func (s *gormStore) UpdateManagerStatus(ctx context.Context, id uuid.UUID, status model.ManagerStatus) error {
	res := s.db.WithContext(ctx).
		Model(&model.Manager{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update manager %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("manager %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *gormStore) ListActiveManagers(ctx context.Context) ([]model.Manager, error) {
	var out []model.Manager
	err := s.db.WithContext(ctx).
		Where("status = ?", model.ManagerActive).
		Order("rating DESC, total_services DESC, id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active managers: %w", err)
	}
	return out, nil
}
