// Package pricing computes reservation prices and the platform/manager revenue split.
// Every function here is pure; the current date is supplied by the caller or by
// the Engine's injected clock.
package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/parse"
)

// ErrInvalidInput is returned for negative distances or discounts and non-positive hours.
var ErrInvalidInput = errors.New("invalid pricing input")

var (
	hourlyRates = map[model.ServiceType]decimal.Decimal{
		model.ServiceFullCare:     decimal.NewFromInt(35000),
		model.ServiceHospitalCare: decimal.NewFromInt(25000),
		model.ServiceSpecialCare:  decimal.NewFromInt(50000),
	}
	defaultHourlyRate = decimal.NewFromInt(25000)

	distanceThresholdKm = decimal.NewFromInt(10)
	perKmRate           = decimal.NewFromInt(500)

	urgentRate       = decimal.RequireFromString("0.5")
	nightWeekendRate = decimal.RequireFromString("0.3")

	nightStart = parse.Clock(18 * 60)
	nightEnd   = parse.Clock(8 * 60)

	feeRates = map[model.Grade]decimal.Decimal{
		model.GradeNew:     decimal.RequireFromString("0.25"),
		model.GradeRegular: decimal.RequireFromString("0.20"),
		model.GradePremium: decimal.RequireFromString("0.15"),
	}
	defaultFeeRate = decimal.RequireFromString("0.20")
)

// Input describes the booking being priced.
type Input struct {
	ServiceType model.ServiceType
	Hours       decimal.Decimal
	Date        time.Time // calendar day; only the date part is used
	Time        parse.Clock
	DistanceKm  decimal.Decimal
	Discount    decimal.Decimal
}

// Breakdown is the itemised price of a booking.
type Breakdown struct {
	Base         decimal.Decimal
	Distance     decimal.Decimal
	Urgency      decimal.Decimal
	NightWeekend decimal.Decimal
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
}

// Revenue is the split of a reservation total between platform and manager.
type Revenue struct {
	Total          decimal.Decimal
	FeeRate        decimal.Decimal
	PlatformFee    decimal.Decimal
	ManagerRevenue decimal.Decimal
}

// HourlyRate returns the per-hour rate for a service type, falling back to the default rate.
func HourlyRate(t model.ServiceType) decimal.Decimal {
	if r, ok := hourlyRates[t]; ok {
		return r
	}
	return defaultHourlyRate
}

// FeeRate returns the platform fee rate for a manager grade.
func FeeRate(g model.Grade) decimal.Decimal {
	if r, ok := feeRates[g]; ok {
		return r
	}
	return defaultFeeRate
}

// Compute prices in against today. The same inputs always produce the same breakdown.
func Compute(in Input, today time.Time) (Breakdown, error) {
	if !in.Hours.IsPositive() || in.DistanceKm.IsNegative() || in.Discount.IsNegative() {
		return Breakdown{}, ErrInvalidInput
	}

	base := HourlyRate(in.ServiceType).Mul(in.Hours)

	distance := decimal.Zero
	if in.DistanceKm.GreaterThan(distanceThresholdKm) {
		distance = in.DistanceKm.Sub(distanceThresholdKm).Mul(perKmRate)
	}

	urgency := decimal.Zero
	if parse.SameDay(today, in.Date) {
		urgency = base.Mul(urgentRate)
	}

	nightWeekend := decimal.Zero
	if isWeekend(in.Date) || isNight(in.Time) {
		nightWeekend = base.Mul(nightWeekendRate)
	}

	subtotal := base.Add(distance).Add(urgency).Add(nightWeekend)
	total := subtotal.Sub(in.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Breakdown{
		Base:         base,
		Distance:     distance,
		Urgency:      urgency,
		NightWeekend: nightWeekend,
		Subtotal:     subtotal,
		Discount:     in.Discount,
		Total:        total,
	}, nil
}

// ComputeRevenue splits total by the grade's fee rate. The fee is floored to a whole won.
func ComputeRevenue(total decimal.Decimal, grade model.Grade) Revenue {
	rate := FeeRate(grade)
	fee := total.Mul(rate).Floor()
	return Revenue{
		Total:          total,
		FeeRate:        rate,
		PlatformFee:    fee,
		ManagerRevenue: total.Sub(fee),
	}
}

func isWeekend(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

func isNight(c parse.Clock) bool {
	return c >= nightStart || c < nightEnd
}

// Engine prices bookings relative to an injected clock.
type Engine struct {
	now func() time.Time
	loc *time.Location
}

// NewEngine creates an engine whose "today" is now() observed in loc.
func NewEngine(now func() time.Time, loc *time.Location) *Engine {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{now: now, loc: loc}
}

// Location returns the engine's business time zone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Today returns the current calendar date in the engine's location.
func (e *Engine) Today() time.Time {
	return e.now().In(e.loc)
}

// Quote prices in against the engine's current date.
func (e *Engine) Quote(in Input) (Breakdown, error) {
	return Compute(in, e.Today())
}
