package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/parse"
	"companion-booking-backend/internal/store"
)

// WindowInput declares a block of a manager's day.
type WindowInput struct {
	Date        string
	StartTime   string
	EndTime     string
	IsAvailable *bool // defaults to true
}

// AddWindow stores a schedule window for the acting manager.
func (s *Service) AddWindow(ctx context.Context, actor Actor, in WindowInput) (*model.ScheduleWindow, error) {
	m, err := s.selfManager(ctx, actor)
	if err != nil {
		return nil, err
	}

	date, err := parse.ParseDate(in.Date, s.pricing.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	start, err := parse.ParseClock(in.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	end, err := parse.ParseClock(in.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if start >= end {
		return nil, fmt.Errorf("%w: start_time %s must be before end_time %s", ErrValidation, start, end)
	}

	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	w := &model.ScheduleWindow{
		ManagerID:   m.ID,
		Date:        date.Format(parse.DateLayout),
		StartTime:   start.String(),
		EndTime:     end.String(),
		IsAvailable: available,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateScheduleWindow(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ListWindows returns the acting manager's windows between two dates, inclusive. Empty bounds are open.
func (s *Service) ListWindows(ctx context.Context, actor Actor, dateFrom, dateTo string) ([]model.ScheduleWindow, error) {
	m, err := s.selfManager(ctx, actor)
	if err != nil {
		return nil, err
	}
	for _, d := range []string{dateFrom, dateTo} {
		if d == "" {
			continue
		}
		if _, err := parse.ParseDate(d, s.pricing.Location()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return s.store.ListScheduleWindows(ctx, m.ID, dateFrom, dateTo)
}

// RemoveWindow deletes one of the acting manager's windows.
func (s *Service) RemoveWindow(ctx context.Context, actor Actor, id int64) error {
	m, err := s.selfManager(ctx, actor)
	if err != nil {
		return err
	}
	return s.store.DeleteScheduleWindow(ctx, m.ID, id)
}

func (s *Service) selfManager(ctx context.Context, actor Actor) (*model.Manager, error) {
	if actor.Role != model.RoleManager {
		return nil, fmt.Errorf("%w: only managers keep a schedule", ErrForbidden)
	}
	return managerOf(ctx, s.store, actor)
}

// ManagerInput registers a manager profile for an existing user.
type ManagerInput struct {
	UserID       uuid.UUID
	Name         string
	Grade        string
	Status       string
	Areas        []string
	ServiceTypes []string
	Rating       decimal.Decimal
	IsVolunteer  bool
	Introduction string
}

// RegisterManager creates a manager profile. Only admins may do this.
func (s *Service) RegisterManager(ctx context.Context, actor Actor, in ManagerInput) (*model.Manager, error) {
	if actor.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins register managers", ErrForbidden)
	}
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	grade := model.GradeNew
	if in.Grade != "" {
		grade = model.Grade(in.Grade)
		if !grade.IsValid() {
			return nil, fmt.Errorf("%w: invalid grade %q", ErrValidation, in.Grade)
		}
	}
	status := model.ManagerPending
	if in.Status != "" {
		st, err := model.ParseManagerStatus(in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		status = st
	}
	if in.Rating.IsNegative() || in.Rating.GreaterThan(decimal.NewFromInt(5)) {
		return nil, fmt.Errorf("%w: rating must be between 0 and 5", ErrValidation)
	}

	serviceTypes := make([]model.ServiceType, 0, len(in.ServiceTypes))
	for _, raw := range in.ServiceTypes {
		t, err := model.ParseServiceType(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		serviceTypes = append(serviceTypes, t)
	}
	areas := make([]string, 0, len(in.Areas))
	for _, a := range in.Areas {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}

	m := &model.Manager{
		ID:           uuid.New(),
		UserID:       in.UserID,
		Name:         strings.TrimSpace(in.Name),
		Status:       status,
		Grade:        grade,
		Areas:        areas,
		ServiceTypes: serviceTypes,
		Rating:       in.Rating.Round(1),
		IsVolunteer:  in.IsVolunteer,
		Introduction: in.Introduction,
	}
	if err := s.store.CreateManager(ctx, m); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: user %s already has a manager profile", ErrValidation, in.UserID)
		}
		return nil, err
	}
	return m, nil
}

// SetManagerStatus changes a manager's account status. Only admins may do this.
func (s *Service) SetManagerStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) error {
	if actor.Role != model.RoleAdmin {
		return fmt.Errorf("%w: only admins change manager status", ErrForbidden)
	}
	st, err := model.ParseManagerStatus(status)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.store.UpdateManagerStatus(ctx, id, st)
}

// FindAvailableManagers runs the matcher for a requested slot.
func (s *Service) FindAvailableManagers(ctx context.Context, date, clock, area, serviceType string) ([]model.Manager, error) {
	d, err := parse.ParseDate(date, s.pricing.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	c, err := parse.ParseClock(clock)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var st model.ServiceType
	if serviceType != "" {
		if st, err = model.ParseServiceType(serviceType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	matcher := NewMatcher(s.store, NewChecker(s.store, s.opts), s.opts.ProbeHours)
	return matcher.FindAvailable(ctx, MatchQuery{
		Date:        d.Format(time.DateOnly),
		Time:        c,
		Area:        strings.TrimSpace(area),
		ServiceType: st,
	})
}
