package reservation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-booking-backend/internal/model"
)

type fakeManagers []model.Manager

func (f fakeManagers) ListActiveManagers(context.Context) ([]model.Manager, error) {
	return f, nil
}

func TestMatcherFindAvailable(t *testing.T) {
	ids := []uuid.UUID{
		uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		uuid.MustParse("00000000-0000-0000-0000-000000000003"),
		uuid.MustParse("00000000-0000-0000-0000-000000000004"),
		uuid.MustParse("00000000-0000-0000-0000-000000000005"),
		uuid.MustParse("00000000-0000-0000-0000-000000000006"),
	}
	managers := fakeManagers{
		{ID: ids[0], Name: "low", Status: model.ManagerActive, Areas: []string{"강남구"}, Rating: decimal.RequireFromString("4.1")},
		{ID: ids[1], Name: "top", Status: model.ManagerActive, Areas: []string{"강남구", "서초구"}, Rating: decimal.RequireFromString("4.9"), TotalServices: 3},
		{ID: ids[2], Name: "top-veteran", Status: model.ManagerActive, Areas: []string{"강남구"}, Rating: decimal.RequireFromString("4.9"), TotalServices: 40},
		{ID: ids[3], Name: "elsewhere", Status: model.ManagerActive, Areas: []string{"마포구"}, Rating: decimal.RequireFromString("5.0")},
		{ID: ids[4], Name: "busy", Status: model.ManagerActive, Areas: []string{"강남구"}, Rating: decimal.RequireFromString("4.5")},
		{ID: ids[5], Name: "special-only", Status: model.ManagerActive, Areas: []string{"강남구"}, Rating: decimal.RequireFromString("4.7"),
			ServiceTypes: []model.ServiceType{model.ServiceSpecialCare}},
	}

	reader := &fakeSchedule{}
	for _, id := range ids {
		reader.windows = append(reader.windows, model.ScheduleWindow{ManagerID: id, Date: tomorrow, StartTime: "08:00", EndTime: "18:00", IsAvailable: true})
	}
	busy := ids[4]
	reader.reservations = []model.Reservation{
		{ID: uuid.New(), ManagerID: &busy, ScheduledDate: tomorrow, ScheduledTime: "11:00", EstimatedHours: decimal.NewFromInt(2), Status: model.StatusConfirmed},
	}

	m := NewMatcher(managers, NewChecker(reader, Options{}), decimal.Zero)
	ctx := context.Background()

	t.Run("Filters by area and orders by rating then experience", func(t *testing.T) {
		got, err := m.FindAvailable(ctx, MatchQuery{Date: tomorrow, Time: mustClock(t, "10:00"), Area: "강남구"})
		require.NoError(t, err)
		assert.Equal(t, []string{"top-veteran", "top", "special-only", "low"}, names(got))
	})

	t.Run("Filters by service type", func(t *testing.T) {
		got, err := m.FindAvailable(ctx, MatchQuery{Date: tomorrow, Time: mustClock(t, "10:00"), Area: "강남구", ServiceType: model.ServiceHospitalCare})
		require.NoError(t, err)
		assert.Equal(t, []string{"top-veteran", "top", "low"}, names(got))
	})

	t.Run("Free after the conflicting booking ends", func(t *testing.T) {
		got, err := m.FindAvailable(ctx, MatchQuery{Date: tomorrow, Time: mustClock(t, "13:00"), Area: "강남구"})
		require.NoError(t, err)
		assert.Contains(t, names(got), "busy")
	})

	t.Run("No area returns every free manager", func(t *testing.T) {
		got, err := m.FindAvailable(ctx, MatchQuery{Date: tomorrow, Time: mustClock(t, "14:00")})
		require.NoError(t, err)
		assert.Len(t, got, 6)
		assert.Equal(t, "elsewhere", got[0].Name)
	})

	t.Run("Outside every window", func(t *testing.T) {
		got, err := m.FindAvailable(ctx, MatchQuery{Date: tomorrow, Time: mustClock(t, "19:00"), Area: "강남구"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Ties fall back to id", func(t *testing.T) {
		a := model.Manager{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), Name: "b", Status: model.ManagerActive, Rating: decimal.NewFromInt(4)}
		b := model.Manager{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), Name: "a", Status: model.ManagerActive, Rating: decimal.NewFromInt(4)}
		r := &fakeSchedule{windows: []model.ScheduleWindow{
			{ManagerID: a.ID, Date: tomorrow, StartTime: "08:00", EndTime: "18:00", IsAvailable: true},
			{ManagerID: b.ID, Date: tomorrow, StartTime: "08:00", EndTime: "18:00", IsAvailable: true},
		}}
		got, err := NewMatcher(fakeManagers{a, b}, NewChecker(r, Options{}), decimal.Zero).
			FindAvailable(ctx, MatchQuery{Date: tomorrow, Time: mustClock(t, "09:00")})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, names(got))
	})
}

func TestMatcherSkipsInactiveManagers(t *testing.T) {
	mgr := model.Manager{ID: uuid.New(), Name: "resting", Status: model.ManagerInactive, Areas: []string{"강남구"}}
	reader := &fakeSchedule{windows: []model.ScheduleWindow{
		{ManagerID: mgr.ID, Date: tomorrow, StartTime: "08:00", EndTime: "18:00", IsAvailable: true},
	}}
	got, err := NewMatcher(fakeManagers{mgr}, NewChecker(reader, Options{}), decimal.Zero).
		FindAvailable(context.Background(), MatchQuery{Date: tomorrow, Time: mustClock(t, "10:00"), Area: "강남구"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func names(ms []model.Manager) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}
