package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Morning Shift - 8:30", "Morning Shift - 08:30"},
		{"Morning Shift - 08:30", "Morning Shift - 08:30"},
		{"9:05 and 10:15", "09:05 and 10:15"},
		{"no clock here", "no clock here"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeClock(tt.in), tt.in)
	}
}

func TestRefID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int", 7, 7, true},
		{"int64", int64(42), 42, true},
		{"json number", float64(13), 13, true},
		{"digit string", "101", 101, true},
		{"padded digit string", " 5 ", 5, true},
		{"name string", "Morning Shift - 8:30", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RefID(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	morning := m.SeedTrip(DailyTrip{DisplayName: "Morning Shift - 08:30"})
	evening := m.SeedTrip(DailyTrip{DisplayName: "Evening Shift - 17:30"})

	tests := []struct {
		name   string
		ref    any
		wantID int64
	}{
		{"by id", morning.ID, morning.ID},
		{"by id string", "1", morning.ID},
		{"exact name", "Morning Shift - 08:30", morning.ID},
		{"single digit clock", "Morning Shift - 8:30", morning.ID},
		{"case insensitive", "morning shift - 08:30", morning.ID},
		{"substring", "Evening", evening.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip, err := ResolveTrip(ctx, m, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, trip.ID)
		})
	}

	t.Run("unknown name", func(t *testing.T) {
		_, err := ResolveTrip(ctx, m, "Night Shift - 23:00")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("unusable reference", func(t *testing.T) {
		_, err := ResolveTrip(ctx, m, true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestResolveVehicleByPlate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	bus := m.SeedVehicle(Vehicle{LicensePlate: "KA-01-AB-1234", Capacity: 60})
	m.SeedVehicle(Vehicle{LicensePlate: "KA-02-CD-5678", Capacity: 45})

	v, err := ResolveVehicle(ctx, m, "ka-01-ab-1234")
	require.NoError(t, err)
	assert.Equal(t, bus.ID, v.ID)

	v, err = ResolveVehicle(ctx, m, bus.ID)
	require.NoError(t, err)
	assert.Equal(t, "KA-01-AB-1234", v.LicensePlate)

	_, err = ResolveVehicle(ctx, m, "MH-99-ZZ-0000")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResolveRouteAndPath(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a, err := m.CreateStop(ctx, "Central Station", 12.97, 77.59)
	require.NoError(t, err)
	b, err := m.CreateStop(ctx, "Tech Park", 12.93, 77.62)
	require.NoError(t, err)
	path, err := m.CreatePath(ctx, "Downtown Loop", []int64{a.ID, b.ID})
	require.NoError(t, err)
	route, err := m.CreateRoute(ctx, Route{PathID: path.ID, DisplayName: "Downtown Loop - 09:00", ShiftTime: "09:00"})
	require.NoError(t, err)

	got, err := ResolvePath(ctx, m, "downtown loop")
	require.NoError(t, err)
	assert.Equal(t, path.ID, got.ID)

	r, err := ResolveRoute(ctx, m, "Downtown Loop - 9:00")
	require.NoError(t, err)
	assert.Equal(t, route.ID, r.ID)
}
