package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/store"
)

type removeVehicleTool struct {
	store store.Store
}

func (t *removeVehicleTool) Name() Name { return RemoveVehicleFromTrip }

func (t *removeVehicleTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	ref, err := requireRef(params, "trip_id", "trip_name", "trip_ids")
	if err != nil {
		return nil, err
	}
	trip, err := store.ResolveTrip(ctx, t.store, ref)
	if err != nil {
		return failNotFound(err)
	}

	dep, err := t.store.DeploymentForTrip(ctx, trip.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &model.ToolResult{
				Success: false,
				Error:   fmt.Sprintf("no vehicle deployment found for trip '%s'", trip.DisplayName),
			}, nil
		}
		return nil, err
	}
	vehicle, err := t.store.VehicleByID(ctx, dep.VehicleID)
	if err != nil {
		return failNotFound(err)
	}

	if err := t.store.DeleteDeploymentForTrip(ctx, trip.ID); err != nil {
		return failNotFound(err)
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Vehicle %s removed from trip '%s'", vehicle.LicensePlate, trip.DisplayName),
		Data: map[string]any{
			"trip_id":    trip.ID,
			"vehicle_id": vehicle.ID,
		},
	}, nil
}

type deleteTripTool struct {
	store store.Store
}

func (t *deleteTripTool) Name() Name { return DeleteTrip }

func (t *deleteTripTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	ref, err := requireRef(params, "trip_id", "trip_name", "trip_ids")
	if err != nil {
		return nil, err
	}
	trip, err := store.ResolveTrip(ctx, t.store, ref)
	if err != nil {
		return failNotFound(err)
	}

	if err := t.store.DeleteTrip(ctx, trip.ID); err != nil {
		return failNotFound(err)
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Trip '%s' deleted", trip.DisplayName),
		Data: map[string]any{
			"trip_id": trip.ID,
		},
	}, nil
}

type deactivateRouteTool struct {
	store store.Store
}

func (t *deactivateRouteTool) Name() Name { return DeactivateRoute }

func (t *deactivateRouteTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	ref, err := requireRef(params, "route_id", "route_name")
	if err != nil {
		return nil, err
	}
	route, err := store.ResolveRoute(ctx, t.store, ref)
	if err != nil {
		return failNotFound(err)
	}

	if route.Status == store.RouteInactive {
		return &model.ToolResult{
			Success: true,
			Message: fmt.Sprintf("Route '%s' is already inactive", route.DisplayName),
			Data:    map[string]any{"route_id": route.ID, "status": route.Status},
		}, nil
	}

	if err := t.store.UpdateRouteStatus(ctx, route.ID, store.RouteInactive); err != nil {
		return failNotFound(err)
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Route '%s' deactivated", route.DisplayName),
		Data: map[string]any{
			"route_id": route.ID,
			"status":   store.RouteInactive,
		},
	}, nil
}
