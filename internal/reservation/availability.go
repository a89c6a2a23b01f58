package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/parse"
)

// ScheduleReader is the read side of persistence needed to check a manager's availability.
type ScheduleReader interface {
	AvailableWindows(ctx context.Context, managerID uuid.UUID, date string) ([]model.ScheduleWindow, error)
	ManagerReservationsOn(ctx context.Context, managerID uuid.UUID, date string, statuses []model.ReservationStatus) ([]model.Reservation, error)
}

// Options tunes availability and conflict semantics.
type Options struct {
	// RequireFullWindow makes a window match only when it also contains the end of the slot.
	// Off, only the start instant must fall inside a window.
	RequireFullWindow bool
	// ExactStartConflicts flags conflicts only for identical start times instead of overlapping intervals.
	ExactStartConflicts bool
	// ProbeHours is the duration assumed by the matcher.
	ProbeHours decimal.Decimal
	// Now overrides the wall clock used for lifecycle timestamps.
	Now func() time.Time
}

// DefaultProbeHours is the slot length the matcher checks when none is configured.
var DefaultProbeHours = decimal.NewFromInt(2)

// Slot is a requested block of a manager's day.
type Slot struct {
	Date  string
	Start parse.Clock
	Hours decimal.Decimal
}

// End returns the exclusive end of the slot. It may pass 24:00.
func (s Slot) End() parse.Clock {
	minutes := s.Hours.Mul(decimal.NewFromInt(60)).IntPart()
	return s.Start.Add(time.Duration(minutes) * time.Minute)
}

func slotOf(r *model.Reservation) (Slot, error) {
	start, err := parse.ParseClock(r.ScheduledTime)
	if err != nil {
		return Slot{}, err
	}
	return Slot{Date: r.ScheduledDate, Start: start, Hours: r.EstimatedHours}, nil
}

// Checker answers availability questions for a manager. It never writes.
type Checker struct {
	reader ScheduleReader
	opts   Options
}

// NewChecker creates a checker reading through r.
func NewChecker(r ScheduleReader, opts Options) *Checker {
	return &Checker{reader: r, opts: opts}
}

// IsAvailable reports whether one of the manager's available windows on the slot's date
// covers the slot start (and, with RequireFullWindow, its end).
func (c *Checker) IsAvailable(ctx context.Context, managerID uuid.UUID, slot Slot) (bool, error) {
	windows, err := c.reader.AvailableWindows(ctx, managerID, slot.Date)
	if err != nil {
		return false, err
	}

	for _, w := range windows {
		start, errStart := parse.ParseClock(w.StartTime)
		end, errEnd := parse.ParseClock(w.EndTime)
		if errStart != nil || errEnd != nil {
			log.Warn().Int64("window_id", w.ID).Str("start", w.StartTime).Str("end", w.EndTime).
				Msg("skipping schedule window with unparsable times")
			continue
		}
		if start > slot.Start || slot.Start >= end {
			continue
		}
		if c.opts.RequireFullWindow && slot.End() > end {
			continue
		}
		return true, nil
	}
	return false, nil
}

// HasConflict reports whether the manager holds another pending, confirmed or in-progress
// reservation that collides with the slot. exclude, when set, is ignored. With interval
// conflicts, bookings on the neighbouring days that run across midnight are checked too.
func (c *Checker) HasConflict(ctx context.Context, managerID uuid.UUID, slot Slot, exclude *uuid.UUID) (bool, error) {
	offsets := []int{0}
	if !c.opts.ExactStartConflicts {
		offsets = append(offsets, -1)
		if slot.End() > minutesPerDay {
			offsets = append(offsets, 1)
		}
	}

	for _, offset := range offsets {
		date, err := shiftDate(slot.Date, offset)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		existing, err := c.reader.ManagerReservationsOn(ctx, managerID, date, model.ActiveStatuses)
		if err != nil {
			return false, err
		}

		for i := range existing {
			r := &existing[i]
			if exclude != nil && r.ID == *exclude {
				continue
			}
			other, err := slotOf(r)
			if err != nil {
				// Unreadable times cannot be proven free.
				log.Warn().Str("reservation_id", r.ID.String()).Str("time", r.ScheduledTime).
					Msg("treating reservation with unparsable time as conflicting")
				return true, nil
			}
			other.Start += parse.Clock(offset * minutesPerDay)
			if c.collides(slot, other) {
				return true, nil
			}
		}
	}
	return false, nil
}

const minutesPerDay = 24 * 60

func shiftDate(date string, days int) (string, error) {
	if days == 0 {
		return date, nil
	}
	d, err := time.Parse(parse.DateLayout, date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, days).Format(parse.DateLayout), nil
}

func (c *Checker) collides(a, b Slot) bool {
	if c.opts.ExactStartConflicts {
		return a.Start == b.Start
	}
	return a.Start < b.End() && b.Start < a.End()
}
