package sweeper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/parse"
	"companion-booking-backend/internal/reservation"
	"companion-booking-backend/internal/store"
)

// ExpiredReason is recorded on reservations cancelled by the sweeper.
const ExpiredReason = "expired: no manager accepted before the scheduled time"

// System is the actor recorded for sweeper transitions.
var System = reservation.Actor{UserID: uuid.Nil, Role: model.RoleAdmin}

// Lifecycle is the part of the reservation service the sweeper drives.
type Lifecycle interface {
	List(ctx context.Context, actor reservation.Actor, f store.ReservationFilter) ([]model.Reservation, error)
	Cancel(ctx context.Context, actor reservation.Actor, id uuid.UUID, reason string) (*model.Reservation, error)
}

// Service periodically cancels pending reservations whose start time has passed.
type Service struct {
	svc      Lifecycle
	interval time.Duration
	now      func() time.Time
	loc      *time.Location
}

// NewService creates a sweeper. now and loc define the business clock.
func NewService(svc Lifecycle, interval time.Duration, now func() time.Time, loc *time.Location) *Service {
	if interval <= 0 {
		interval = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{svc: svc, interval: interval, now: now, loc: loc}
}

// Run sweeps once, then every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("starting pending reservation sweeper")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweeper shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce cancels every pending reservation that should already have started and
// returns how many it cancelled.
func (s *Service) SweepOnce(ctx context.Context) int {
	now := s.now().In(s.loc)
	f := store.ReservationFilter{
		Status: model.StatusPending,
		DateTo: now.Format(parse.DateLayout),
		Limit:  store.MaxListLimit,
	}

	cancelled := 0
	for {
		batch, err := s.svc.List(ctx, System, f)
		if err != nil {
			log.Error().Err(err).Msg("sweeper failed to list pending reservations")
			return cancelled
		}

		kept := 0
		for i := range batch {
			r := &batch[i]
			if !s.started(r, now) {
				kept++
				continue
			}
			if _, err := s.svc.Cancel(ctx, System, r.ID, ExpiredReason); err != nil {
				// Lost a race with a user action; the row is no longer pending or will be retried next cycle.
				log.Warn().Err(err).Str("reservation_id", r.ID.String()).Msg("sweeper could not cancel reservation")
				kept++
				continue
			}
			cancelled++
		}

		if len(batch) < f.Limit {
			break
		}
		f.Offset += kept
	}

	if cancelled > 0 {
		log.Info().Int("cancelled", cancelled).Msg("expired pending reservations")
	}
	return cancelled
}

func (s *Service) started(r *model.Reservation, now time.Time) bool {
	date, err := parse.ParseDate(r.ScheduledDate, s.loc)
	if err != nil {
		return false
	}
	clock, err := parse.ParseClock(r.ScheduledTime)
	if err != nil {
		return false
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, s.loc)
	return !start.After(now)
}
