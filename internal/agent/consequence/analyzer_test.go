package consequence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/store"
)

func TestEstimateBookings(t *testing.T) {
	tests := []struct {
		capacity int
		pct      int
		want     int
	}{
		{60, 25, 15},
		{60, 0, 0},
		{45, 100, 45},
		{20, 33, 6}, // rounds down
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateBookings(tt.capacity, tt.pct))
	}
}

func seedTrip(m *store.Memory, bookingPct int, deployed bool) store.DailyTrip {
	trip := m.SeedTrip(store.DailyTrip{DisplayName: "Morning Shift - 08:30", BookingPercentage: bookingPct})
	if deployed {
		v := m.SeedVehicle(store.Vehicle{LicensePlate: "KA-01-AB-1234", Capacity: 60})
		d := m.SeedDriver(store.Driver{Name: "Ravi Kumar"})
		m.SeedDeployment(store.Deployment{TripID: trip.ID, VehicleID: v.ID, DriverID: d.ID})
	}
	return trip
}

func TestRemoveVehicleNoDeployment(t *testing.T) {
	m := store.NewMemory()
	seedTrip(m, 50, false)

	cons, err := New(m).RemoveVehicle(context.Background(), "Morning Shift - 8:30")
	require.NoError(t, err)
	assert.Equal(t, model.RiskNone, cons.RiskLevel)
	assert.False(t, cons.HasDeployment)
	assert.Contains(t, cons.Explanation, "nothing to remove")
}

func TestRemoveVehicleNoBookings(t *testing.T) {
	m := store.NewMemory()
	seedTrip(m, 0, true)

	cons, err := New(m).RemoveVehicle(context.Background(), "Morning Shift - 8:30")
	require.NoError(t, err)
	assert.Equal(t, model.RiskLow, cons.RiskLevel)
	assert.True(t, cons.HasDeployment)
	assert.False(t, cons.ProceedWithCaution)
}

func TestRemoveVehicleWithBookings(t *testing.T) {
	m := store.NewMemory()
	trip := seedTrip(m, 25, true)

	cons, err := New(m).RemoveVehicle(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RiskHigh, cons.RiskLevel)
	assert.True(t, cons.ProceedWithCaution)
	assert.Equal(t, 25, cons.BookingPercentage)
	assert.Equal(t, 15, cons.AffectedBookings) // 60 seats at 25%
	assert.Contains(t, cons.Explanation, "25% booked")
}

func TestRemoveVehicleUnknownTrip(t *testing.T) {
	m := store.NewMemory()

	_, err := New(m).RemoveVehicle(context.Background(), "Ghost Trip - 00:00")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDeleteTrip(t *testing.T) {
	t.Run("no bookings is low risk", func(t *testing.T) {
		m := store.NewMemory()
		trip := seedTrip(m, 0, true)

		cons, err := New(m).DeleteTrip(context.Background(), trip.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RiskLow, cons.RiskLevel)
		assert.True(t, cons.HasDeployment)
	})

	t.Run("bookings make it high risk", func(t *testing.T) {
		m := store.NewMemory()
		trip := seedTrip(m, 80, true)

		cons, err := New(m).DeleteTrip(context.Background(), trip.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RiskHigh, cons.RiskLevel)
		assert.Equal(t, 48, cons.AffectedBookings) // 60 seats at 80%
		assert.True(t, cons.ProceedWithCaution)
	})

	t.Run("bookings without deployment still high risk", func(t *testing.T) {
		m := store.NewMemory()
		trip := seedTrip(m, 40, false)

		cons, err := New(m).DeleteTrip(context.Background(), trip.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RiskHigh, cons.RiskLevel)
		assert.False(t, cons.HasDeployment)
		assert.Equal(t, 0, cons.AffectedBookings)
	})
}

func TestDeactivateRoute(t *testing.T) {
	ctx := context.Background()

	t.Run("no booked trips is low risk", func(t *testing.T) {
		m := store.NewMemory()
		route := m.SeedRoute(store.Route{DisplayName: "Downtown Loop - 09:00"})
		m.SeedTrip(store.DailyTrip{RouteID: route.ID, DisplayName: "Downtown Loop - 09:00", BookingPercentage: 0})

		cons, err := New(m).DeactivateRoute(ctx, route.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RiskLow, cons.RiskLevel)
		assert.Equal(t, 1, cons.AffectedTrips)
	})

	t.Run("booked trips make it high risk", func(t *testing.T) {
		m := store.NewMemory()
		route := m.SeedRoute(store.Route{DisplayName: "Downtown Loop - 09:00"})
		m.SeedTrip(store.DailyTrip{RouteID: route.ID, DisplayName: "Downtown Loop - 09:00", BookingPercentage: 30})
		m.SeedTrip(store.DailyTrip{RouteID: route.ID, DisplayName: "Downtown Loop - 18:00", BookingPercentage: 0})

		cons, err := New(m).DeactivateRoute(ctx, "Downtown Loop - 9:00")
		require.NoError(t, err)
		assert.Equal(t, model.RiskHigh, cons.RiskLevel)
		assert.Equal(t, 1, cons.AffectedTrips)
		assert.True(t, cons.ProceedWithCaution)
	})
}
