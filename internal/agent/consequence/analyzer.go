// Package consequence evaluates the downstream impact of destructive
// actions against live operational data before they run.
package consequence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/store"
)

// Analyzer grades risky actions by inspecting deployments, bookings and
// trips. All rule evaluation is deterministic; no model calls happen here.
type Analyzer struct {
	store store.Store
}

func New(st store.Store) *Analyzer {
	return &Analyzer{store: st}
}

// EstimateBookings converts a booking percentage into a seat count for a
// vehicle. The estimate rounds down.
func EstimateBookings(capacity, bookingPercentage int) int {
	return capacity * bookingPercentage / 100
}

// RemoveVehicle grades pulling the assigned vehicle off a trip.
//
// No deployment means nothing happens. A deployment with zero bookings is
// low risk. Any bookings make it high risk: those passengers lose their
// ride.
func (a *Analyzer) RemoveVehicle(ctx context.Context, ref any) (*model.Consequences, error) {
	trip, err := store.ResolveTrip(ctx, a.store, ref)
	if err != nil {
		return nil, fmt.Errorf("remove vehicle: %w", err)
	}

	dep, err := a.store.DeploymentForTrip(ctx, trip.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &model.Consequences{
				RiskLevel:   model.RiskNone,
				Action:      "remove_vehicle",
				EntityID:    trip.ID,
				EntityName:  trip.DisplayName,
				Explanation: fmt.Sprintf("No vehicle is currently assigned to trip '%s'. There is nothing to remove.", trip.DisplayName),
			}, nil
		}
		return nil, fmt.Errorf("remove vehicle: %w", err)
	}

	vehicle, err := a.store.VehicleByID(ctx, dep.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("remove vehicle: %w", err)
	}

	if trip.BookingPercentage == 0 {
		return &model.Consequences{
			RiskLevel:         model.RiskLow,
			Action:            "remove_vehicle",
			EntityID:          trip.ID,
			EntityName:        trip.DisplayName,
			HasDeployment:     true,
			BookingPercentage: 0,
			Details: []string{
				fmt.Sprintf("Vehicle %s is assigned to this trip", vehicle.LicensePlate),
				"The trip has no bookings yet",
			},
			Explanation: fmt.Sprintf("Vehicle %s is assigned to trip '%s' but there are no bookings. Removing it only clears the assignment.", vehicle.LicensePlate, trip.DisplayName),
		}, nil
	}

	affected := EstimateBookings(vehicle.Capacity, trip.BookingPercentage)
	details := []string{
		fmt.Sprintf("Approximately %d bookings will be cancelled", affected),
		"The trip sheet for the assigned driver will be broken",
		"Affected passengers will be notified of the cancellation",
	}
	return &model.Consequences{
		RiskLevel:          model.RiskHigh,
		Action:             "remove_vehicle",
		EntityID:           trip.ID,
		EntityName:         trip.DisplayName,
		HasDeployment:      true,
		BookingPercentage:  trip.BookingPercentage,
		AffectedBookings:   affected,
		Details:            details,
		Explanation:        fmt.Sprintf("Trip '%s' is %d%% booked. %s", trip.DisplayName, trip.BookingPercentage, strings.Join(details, ". ")+"."),
		ProceedWithCaution: true,
	}, nil
}

// DeleteTrip grades removing a trip outright. Any bookings make it high
// risk.
func (a *Analyzer) DeleteTrip(ctx context.Context, ref any) (*model.Consequences, error) {
	trip, err := store.ResolveTrip(ctx, a.store, ref)
	if err != nil {
		return nil, fmt.Errorf("delete trip: %w", err)
	}

	affected := 0
	hasDeployment := false
	if dep, err := a.store.DeploymentForTrip(ctx, trip.ID); err == nil {
		hasDeployment = true
		if v, err := a.store.VehicleByID(ctx, dep.VehicleID); err == nil {
			affected = EstimateBookings(v.Capacity, trip.BookingPercentage)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("delete trip: %w", err)
	}

	if trip.BookingPercentage == 0 {
		details := []string{"The trip has no bookings"}
		if hasDeployment {
			details = append(details, "The vehicle and driver deployment will be removed")
		}
		return &model.Consequences{
			RiskLevel:     model.RiskLow,
			Action:        "delete_trip",
			EntityID:      trip.ID,
			EntityName:    trip.DisplayName,
			HasDeployment: hasDeployment,
			Details:       details,
			Explanation:   fmt.Sprintf("Trip '%s' has no bookings. Deleting it removes the trip from today's schedule.", trip.DisplayName),
		}, nil
	}

	details := []string{
		fmt.Sprintf("The trip is %d%% booked; all bookings will be cancelled", trip.BookingPercentage),
		"Affected passengers will be notified of the cancellation",
	}
	if hasDeployment {
		details = append(details, "The vehicle and driver deployment will be removed")
	}
	return &model.Consequences{
		RiskLevel:          model.RiskHigh,
		Action:             "delete_trip",
		EntityID:           trip.ID,
		EntityName:         trip.DisplayName,
		HasDeployment:      hasDeployment,
		BookingPercentage:  trip.BookingPercentage,
		AffectedBookings:   affected,
		Details:            details,
		Explanation:        fmt.Sprintf("Trip '%s' is %d%% booked. %s", trip.DisplayName, trip.BookingPercentage, strings.Join(details, ". ")+"."),
		ProceedWithCaution: true,
	}, nil
}

// DeactivateRoute grades switching a route off. Any attached trip with
// bookings makes it high risk.
func (a *Analyzer) DeactivateRoute(ctx context.Context, ref any) (*model.Consequences, error) {
	route, err := store.ResolveRoute(ctx, a.store, ref)
	if err != nil {
		return nil, fmt.Errorf("deactivate route: %w", err)
	}

	trips, err := a.store.TripsByRoute(ctx, route.ID)
	if err != nil {
		return nil, fmt.Errorf("deactivate route: %w", err)
	}

	booked := 0
	for _, t := range trips {
		if t.BookingPercentage > 0 {
			booked++
		}
	}

	if booked == 0 {
		return &model.Consequences{
			RiskLevel:     model.RiskLow,
			Action:        "deactivate_route",
			EntityID:      route.ID,
			EntityName:    route.DisplayName,
			AffectedTrips: len(trips),
			Details:       []string{fmt.Sprintf("%d trips are attached to this route, none with bookings", len(trips))},
			Explanation:   fmt.Sprintf("Route '%s' has no booked trips. Deactivating it stops future scheduling.", route.DisplayName),
		}, nil
	}

	details := []string{
		fmt.Sprintf("%d of %d attached trips have active bookings", booked, len(trips)),
		"Booked passengers on those trips will be affected",
	}
	return &model.Consequences{
		RiskLevel:          model.RiskHigh,
		Action:             "deactivate_route",
		EntityID:           route.ID,
		EntityName:         route.DisplayName,
		AffectedTrips:      booked,
		Details:            details,
		Explanation:        fmt.Sprintf("Route '%s' has %d booked trips. %s", route.DisplayName, booked, strings.Join(details, ". ")+"."),
		ProceedWithCaution: true,
	}, nil
}
