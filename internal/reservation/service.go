package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/notification"
	"companion-booking-backend/internal/parse"
	"companion-booking-backend/internal/pricing"
	"companion-booking-backend/internal/store"
)

var (
	minHours = decimal.NewFromInt(1)
	maxHours = decimal.NewFromInt(12)
	ten      = decimal.NewFromInt(10)
)

// Notifier receives lifecycle events once their transaction has committed.
type Notifier interface {
	Dispatch(ev notification.Event)
}

// Service is the reservation lifecycle: creation, assignment and status changes.
type Service struct {
	store    store.Store
	pricing  *pricing.Engine
	notifier Notifier
	opts     Options
	now      func() time.Time
}

// NewService creates a lifecycle service. notifier may be nil.
func NewService(s store.Store, engine *pricing.Engine, notifier Notifier, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if !opts.ProbeHours.IsPositive() {
		opts.ProbeHours = DefaultProbeHours
	}
	return &Service{store: s, pricing: engine, notifier: notifier, opts: opts, now: now}
}

// Pricing exposes the engine used for reservation prices.
func (s *Service) Pricing() *pricing.Engine {
	return s.pricing
}

// CreateInput is a customer's booking request.
type CreateInput struct {
	CustomerID         uuid.UUID // only read for admin actors
	ServiceType        string
	ScheduledDate      string
	ScheduledTime      string
	EstimatedHours     decimal.Decimal
	HospitalName       string
	HospitalAddress    string
	HospitalDepartment string
	PickupAddress      string
	ContactPhone       string // already verified by the caller
	Symptoms           string
	SpecialRequests    string
	ManagerID          *uuid.UUID

	// ClaimContact, when set, runs once the booking has passed validation and
	// returns the verified contact phone. It replaces ContactPhone.
	ClaimContact func(ctx context.Context) (string, error)
}

// Create prices and stores a new pending reservation.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*model.Reservation, error) {
	customerID := actor.UserID
	switch actor.Role {
	case model.RoleCustomer:
	case model.RoleAdmin:
		if in.CustomerID == uuid.Nil {
			return nil, fmt.Errorf("%w: customer_id is required", ErrValidation)
		}
		customerID = in.CustomerID
	default:
		return nil, fmt.Errorf("%w: only customers can book", ErrForbidden)
	}

	serviceType, err := model.ParseServiceType(in.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	date, err := parse.ParseDate(in.ScheduledDate, s.pricing.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if date.Before(startOfDay(s.pricing.Today())) {
		return nil, fmt.Errorf("%w: scheduled_date %s is in the past", ErrValidation, in.ScheduledDate)
	}
	start, err := parse.ParseClock(in.ScheduledTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := ValidateHours(in.EstimatedHours); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.HospitalName) == "" {
		return nil, fmt.Errorf("%w: hospital_name is required", ErrValidation)
	}

	breakdown, err := s.pricing.Quote(pricing.Input{
		ServiceType: serviceType,
		Hours:       in.EstimatedHours,
		Date:        date,
		Time:        start,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	r := &model.Reservation{
		ID:                 uuid.New(),
		CustomerID:         customerID,
		RequestedManagerID: in.ManagerID,
		ServiceType:        serviceType,
		ScheduledDate:      date.Format(parse.DateLayout),
		ScheduledTime:      start.String(),
		EstimatedHours:     in.EstimatedHours,
		HospitalName:       strings.TrimSpace(in.HospitalName),
		HospitalAddress:    in.HospitalAddress,
		HospitalDepartment: in.HospitalDepartment,
		PickupAddress:      in.PickupAddress,
		ContactPhone:       in.ContactPhone,
		Symptoms:           in.Symptoms,
		SpecialRequests:    in.SpecialRequests,
		Price:              breakdown.Total.Round(0),
		Status:             model.StatusPending,
		Version:            1,
	}

	var requested *model.Manager
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if in.ManagerID != nil {
			m, err := tx.GetManager(ctx, *in.ManagerID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: requested manager %s does not exist", ErrValidation, *in.ManagerID)
			}
			if err != nil {
				return err
			}
			requested = m
		}
		if in.ClaimContact != nil {
			phone, err := in.ClaimContact(ctx)
			if err != nil {
				return err
			}
			r.ContactPhone = phone
		}
		if err := tx.CreateReservation(ctx, r); err != nil {
			return err
		}
		return tx.AppendStatusLog(ctx, &model.ReservationStatusLog{
			ReservationID: r.ID,
			ToStatus:      model.StatusPending,
			ActorID:       actor.UserID,
			ActorRole:     actor.Role,
			CreatedAt:     s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("reservation_id", r.ID.String()).Str("customer_id", customerID.String()).
		Str("price", r.Price.String()).Msg("reservation created")
	s.dispatch(r, "", requested, "")
	return r, nil
}

// ValidateHours checks the duration is within [1,12] hours with at most one decimal place.
func ValidateHours(h decimal.Decimal) error {
	if h.LessThan(minHours) || h.GreaterThan(maxHours) {
		return fmt.Errorf("%w: estimated_hours must be between 1 and 12, got %s", ErrValidation, h)
	}
	tenths := h.Mul(ten)
	if !tenths.Equal(tenths.Truncate(0)) {
		return fmt.Errorf("%w: estimated_hours allows one decimal place, got %s", ErrValidation, h)
	}
	return nil
}

// Get returns a reservation visible to the actor.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	self, err := managerOf(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	if err := authorizeHolder(ctx, s.store, actor, r, self); err != nil {
		return nil, err
	}
	return r, nil
}

// History returns the transition log of a reservation visible to the actor.
func (s *Service) History(ctx context.Context, actor Actor, id uuid.UUID) ([]model.ReservationStatusLog, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.StatusLogs(ctx, id)
}

// List returns reservations scoped to the actor: customers see their own, managers the
// ones assigned to them, admins everything.
func (s *Service) List(ctx context.Context, actor Actor, f store.ReservationFilter) ([]model.Reservation, error) {
	switch actor.Role {
	case model.RoleCustomer:
		f.CustomerID = &actor.UserID
	case model.RoleManager:
		m, err := managerOf(ctx, s.store, actor)
		if err != nil {
			return nil, err
		}
		f.ManagerID = &m.ID
	case model.RoleAdmin:
	default:
		return nil, ErrForbidden
	}
	return s.store.ListReservations(ctx, f)
}

// AssignManager confirms a pending reservation with managerID once the manager is
// active, has a matching window and holds no conflicting reservation.
func (s *Service) AssignManager(ctx context.Context, actor Actor, id, managerID uuid.UUID) (*model.Reservation, error) {
	if actor.Role == model.RoleCustomer {
		return nil, fmt.Errorf("%w: customers cannot assign managers", ErrForbidden)
	}
	return s.mutate(ctx, actor, id, func(tx store.Store, r *model.Reservation, self *model.Manager) (*model.Manager, error) {
		if r.Status != model.StatusPending {
			return nil, fmt.Errorf("%w: assignment requires a pending reservation, this one is %s", ErrInvalidTransition, r.Status)
		}
		if actor.Role == model.RoleManager && (self == nil || self.ID != managerID) {
			return nil, fmt.Errorf("%w: managers can only assign themselves", ErrForbidden)
		}
		return s.assign(ctx, tx, r, managerID)
	})
}

// ChangeStatus moves a reservation to status to. A move to confirmed goes through
// assignment: managers assign themselves, admins assign the requested manager.
func (s *Service) ChangeStatus(ctx context.Context, actor Actor, id uuid.UUID, to model.ReservationStatus, reason string) (*model.Reservation, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	return s.mutate(ctx, actor, id, func(tx store.Store, r *model.Reservation, self *model.Manager) (*model.Manager, error) {
		if !r.Status.CanTransitionTo(to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
		}
		if err := authorizeTransition(actor, r, to, self); err != nil {
			return nil, err
		}

		now := s.now()
		switch to {
		case model.StatusConfirmed:
			managerID, err := confirmingManager(actor, r, self)
			if err != nil {
				return nil, err
			}
			return s.assign(ctx, tx, r, managerID)
		case model.StatusInProgress:
			r.StartedAt = &now
		case model.StatusCompleted:
			r.CompletedAt = &now
		case model.StatusCancelled:
			r.CancelledAt = &now
			r.CancelReason = strings.TrimSpace(reason)
			r.ManagerID = nil
		case model.StatusPending:
			// unreachable: nothing transitions back to pending
		}
		r.Status = to
		return nil, nil
	})
}

// Cancel cancels a reservation that is not yet completed or cancelled.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*model.Reservation, error) {
	return s.ChangeStatus(ctx, actor, id, model.StatusCancelled, reason)
}

// Settlement splits the price of a reservation with an assigned manager by the manager's grade.
func (s *Service) Settlement(ctx context.Context, actor Actor, id uuid.UUID) (*model.Reservation, pricing.Revenue, error) {
	if actor.Role == model.RoleCustomer {
		return nil, pricing.Revenue{}, fmt.Errorf("%w: settlement is visible to managers and admins", ErrForbidden)
	}
	r, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, pricing.Revenue{}, err
	}
	if r.ManagerID == nil {
		return nil, pricing.Revenue{}, fmt.Errorf("%w: reservation has no assigned manager", ErrValidation)
	}
	m, err := s.store.GetManager(ctx, *r.ManagerID)
	if err != nil {
		return nil, pricing.Revenue{}, err
	}
	if actor.Role == model.RoleManager && m.UserID != actor.UserID {
		return nil, pricing.Revenue{}, fmt.Errorf("%w: reservation is assigned to another manager", ErrForbidden)
	}
	return r, pricing.ComputeRevenue(r.Price, m.Grade), nil
}

// mutateFunc changes r in place and returns the manager now holding it, if it loaded one.
type mutateFunc func(tx store.Store, r *model.Reservation, self *model.Manager) (*model.Manager, error)

// mutate runs fn on a locked reservation, persists the result with a version check,
// logs the transition and dispatches the event after commit.
func (s *Service) mutate(ctx context.Context, actor Actor, id uuid.UUID, fn mutateFunc) (*model.Reservation, error) {
	var (
		out      *model.Reservation
		from     model.ReservationStatus
		prevMgr  *uuid.UUID
		eventMgr *model.Manager
	)

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		r, err := tx.LockReservation(ctx, id)
		if err != nil {
			return err
		}
		self, err := managerOf(ctx, tx, actor)
		if err != nil {
			return err
		}
		if err := authorizeHolder(ctx, tx, actor, r, self); err != nil {
			return err
		}

		// Completed and cancelled reservations are frozen whatever fn would do.
		if r.Status.IsTerminal() {
			return fmt.Errorf("%w: reservation is already %s", ErrInvalidTransition, r.Status)
		}

		from, prevMgr = r.Status, r.ManagerID
		assigned, err := fn(tx, r, self)
		if err != nil {
			return err
		}

		if err := tx.SaveReservationState(ctx, r); err != nil {
			return err
		}

		logManager := r.ManagerID
		if logManager == nil {
			logManager = prevMgr
		}
		if err := tx.AppendStatusLog(ctx, &model.ReservationStatusLog{
			ReservationID: r.ID,
			FromStatus:    from,
			ToStatus:      r.Status,
			ActorID:       actor.UserID,
			ActorRole:     actor.Role,
			ManagerID:     logManager,
			Reason:        r.CancelReason,
			CreatedAt:     s.now(),
		}); err != nil {
			return err
		}

		eventMgr = assigned
		if eventMgr == nil && logManager != nil {
			if m, err := tx.GetManager(ctx, *logManager); err == nil {
				eventMgr = m
			}
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("reservation_id", out.ID.String()).Str("from", string(from)).Str("to", string(out.Status)).
		Str("actor_role", string(actor.Role)).Msg("reservation status changed")
	s.dispatch(out, from, eventMgr, out.CancelReason)
	return out, nil
}

// assign runs the availability and conflict checks under the manager's row lock and
// confirms r with the manager.
func (s *Service) assign(ctx context.Context, tx store.Store, r *model.Reservation, managerID uuid.UUID) (*model.Manager, error) {
	m, err := tx.LockManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if m.Status != model.ManagerActive {
		return nil, fmt.Errorf("%w: manager %s is %s", ErrManagerUnavailable, m.ID, m.Status)
	}

	slot, err := slotOf(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	checker := NewChecker(tx, s.opts)
	ok, err := checker.IsAvailable(ctx, managerID, slot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: manager %s has no window at %s %s", ErrManagerUnavailable, m.ID, r.ScheduledDate, r.ScheduledTime)
	}
	conflict, err := checker.HasConflict(ctx, managerID, slot, &r.ID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, fmt.Errorf("%w: manager %s is already booked at %s %s", ErrManagerUnavailable, m.ID, r.ScheduledDate, r.ScheduledTime)
	}

	now := s.now()
	r.ManagerID = &m.ID
	r.Status = model.StatusConfirmed
	r.ConfirmedAt = &now
	return m, nil
}

// authorizeAccess decides whether the actor may see r at all. self is the actor's
// manager profile and is only set for managers.
func authorizeAccess(actor Actor, r *model.Reservation, self *model.Manager) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleCustomer:
		if r.CustomerID == actor.UserID {
			return nil
		}
		return fmt.Errorf("%w: reservation belongs to another customer", ErrForbidden)
	case model.RoleManager:
		if self == nil {
			return ErrForbidden
		}
		if r.Status == model.StatusPending || sameID(r.ManagerID, self.ID) || sameID(r.RequestedManagerID, self.ID) {
			return nil
		}
		return fmt.Errorf("%w: reservation is assigned to another manager", ErrForbidden)
	}
	return ErrForbidden
}

// authorizeHolder extends authorizeAccess to managers who held a reservation before it
// was cancelled. The status log keeps the manager a cancellation released.
func authorizeHolder(ctx context.Context, st store.Store, actor Actor, r *model.Reservation, self *model.Manager) error {
	err := authorizeAccess(actor, r, self)
	if err == nil || actor.Role != model.RoleManager || self == nil || !r.Status.IsTerminal() {
		return err
	}
	logs, lerr := st.StatusLogs(ctx, r.ID)
	if lerr != nil {
		return lerr
	}
	for _, l := range logs {
		if sameID(l.ManagerID, self.ID) {
			return nil
		}
	}
	return err
}

// authorizeTransition applies the per-role rules on top of the transition table.
func authorizeTransition(actor Actor, r *model.Reservation, to model.ReservationStatus, self *model.Manager) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleCustomer:
		if to == model.StatusCancelled {
			return nil
		}
		return fmt.Errorf("%w: customers can only cancel", ErrForbidden)
	case model.RoleManager:
		if self == nil {
			return ErrForbidden
		}
		switch {
		case to == model.StatusConfirmed:
			return nil // self-assignment, checked by assign
		case r.Status == model.StatusPending && sameID(r.RequestedManagerID, self.ID):
			return nil // declining a request addressed to this manager
		case sameID(r.ManagerID, self.ID):
			return nil
		}
		return fmt.Errorf("%w: reservation is not assigned to this manager", ErrForbidden)
	}
	return ErrForbidden
}

func confirmingManager(actor Actor, r *model.Reservation, self *model.Manager) (uuid.UUID, error) {
	switch actor.Role {
	case model.RoleManager:
		return self.ID, nil
	case model.RoleAdmin:
		if r.RequestedManagerID != nil {
			return *r.RequestedManagerID, nil
		}
		return uuid.Nil, fmt.Errorf("%w: no requested manager; use assignment", ErrValidation)
	case model.RoleCustomer:
	}
	return uuid.Nil, ErrForbidden
}

// managerOf loads the actor's manager profile. Non-manager actors get nil.
func managerOf(ctx context.Context, st store.Store, actor Actor) (*model.Manager, error) {
	if actor.Role != model.RoleManager {
		return nil, nil
	}
	m, err := st.GetManagerByUserID(ctx, actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: no manager profile", ErrForbidden)
	}
	return m, err
}

func (s *Service) dispatch(r *model.Reservation, from model.ReservationStatus, m *model.Manager, reason string) {
	if s.notifier == nil {
		return
	}
	ev := notification.Event{
		ID:            uuid.New(),
		Type:          notification.EventTypeFor(r.Status),
		ReservationID: r.ID,
		CustomerID:    r.CustomerID,
		FromStatus:    from,
		Status:        r.Status,
		ServiceType:   r.ServiceType,
		ScheduledDate: r.ScheduledDate,
		ScheduledTime: r.ScheduledTime,
		Price:         r.Price,
		Reason:        reason,
		OccurredAt:    s.now(),
	}
	if m != nil {
		ev.ManagerID = &m.ID
		ev.ManagerUserID = &m.UserID
	}
	s.notifier.Dispatch(ev)
}

func sameID(p *uuid.UUID, id uuid.UUID) bool {
	return p != nil && *p == id
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
