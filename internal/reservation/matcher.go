package reservation

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/parse"
)

// ManagerLister returns the managers eligible for matching.
type ManagerLister interface {
	ListActiveManagers(ctx context.Context) ([]model.Manager, error)
}

// MatchQuery describes the slot a customer wants filled.
type MatchQuery struct {
	Date        string
	Time        parse.Clock
	Area        string            // optional
	ServiceType model.ServiceType // optional
	Hours       decimal.Decimal   // optional, defaults to the probe duration
}

// Matcher builds candidate manager lists for a slot.
type Matcher struct {
	managers ManagerLister
	checker  *Checker
	probe    decimal.Decimal
}

// NewMatcher creates a matcher. A non-positive probe falls back to DefaultProbeHours.
func NewMatcher(managers ManagerLister, checker *Checker, probe decimal.Decimal) *Matcher {
	if !probe.IsPositive() {
		probe = DefaultProbeHours
	}
	return &Matcher{managers: managers, checker: checker, probe: probe}
}

// FindAvailable returns active managers serving the area that are free for the slot,
// best rated first.
func (m *Matcher) FindAvailable(ctx context.Context, q MatchQuery) ([]model.Manager, error) {
	candidates, err := m.managers.ListActiveManagers(ctx)
	if err != nil {
		return nil, err
	}

	hours := q.Hours
	if !hours.IsPositive() {
		hours = m.probe
	}
	slot := Slot{Date: q.Date, Start: q.Time, Hours: hours}

	out := make([]model.Manager, 0, len(candidates))
	for _, mgr := range candidates {
		if mgr.Status != model.ManagerActive {
			continue
		}
		if q.Area != "" && !mgr.ServesArea(q.Area) {
			continue
		}
		if q.ServiceType != "" && !mgr.Offers(q.ServiceType) {
			continue
		}

		ok, err := m.checker.IsAvailable(ctx, mgr.ID, slot)
		if err != nil {
			return nil, fmt.Errorf("availability of manager %s: %w", mgr.ID, err)
		}
		if !ok {
			continue
		}
		conflict, err := m.checker.HasConflict(ctx, mgr.ID, slot, nil)
		if err != nil {
			return nil, fmt.Errorf("conflicts of manager %s: %w", mgr.ID, err)
		}
		if conflict {
			continue
		}
		out = append(out, mgr)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Rating.Equal(b.Rating) {
			return a.Rating.GreaterThan(b.Rating)
		}
		if a.TotalServices != b.TotalServices {
			return a.TotalServices > b.TotalServices
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}
