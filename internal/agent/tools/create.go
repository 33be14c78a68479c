package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/store"
)

type createStopTool struct {
	store store.Store
}

func (t *createStopTool) Name() Name { return CreateStop }

func (t *createStopTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	name, err := requireString(params, "name")
	if err != nil {
		return nil, err
	}
	lat, err := requireFloat(params, "latitude")
	if err != nil {
		return nil, err
	}
	lon, err := requireFloat(params, "longitude")
	if err != nil {
		return nil, err
	}

	stop, err := t.store.CreateStop(ctx, name, lat, lon)
	if err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Stop '%s' created", stop.Name),
		Data: map[string]any{
			"stop_id": stop.ID,
			"name":    stop.Name,
		},
	}, nil
}

type createPathTool struct {
	store store.Store
}

func (t *createPathTool) Name() Name { return CreatePath }

func (t *createPathTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	name, err := requireString(params, "name")
	if err != nil {
		return nil, err
	}
	stopIDs, err := requireIDList(params, "stop_ids")
	if err != nil {
		return nil, err
	}

	path, err := t.store.CreatePath(ctx, name, stopIDs)
	if err != nil {
		return failNotFound(err)
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Path '%s' created with %d stops", path.Name, len(path.StopIDs)),
		Data: map[string]any{
			"path_id": path.ID,
			"name":    path.Name,
		},
	}, nil
}

type createRouteTool struct {
	store store.Store
}

func (t *createRouteTool) Name() Name { return CreateRoute }

func (t *createRouteTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	pathRef, err := requireRef(params, "path_id", "path_name")
	if err != nil {
		return nil, err
	}
	shift, err := requireString(params, "shift_time")
	if err != nil {
		return nil, err
	}
	path, err := store.ResolvePath(ctx, t.store, pathRef)
	if err != nil {
		return failNotFound(err)
	}

	direction := optionalString(params, "direction", "outbound")
	display := optionalString(params, "display_name",
		fmt.Sprintf("%s - %s", path.Name, store.NormalizeClock(shift)))

	route, err := t.store.CreateRoute(ctx, store.Route{
		PathID:      path.ID,
		DisplayName: display,
		ShiftTime:   store.NormalizeClock(shift),
		Direction:   direction,
		StartPoint:  optionalString(params, "start_point", ""),
		EndPoint:    optionalString(params, "end_point", ""),
	})
	if err != nil {
		return failNotFound(err)
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Route '%s' created", route.DisplayName),
		Data: map[string]any{
			"id":           route.ID,
			"display_name": route.DisplayName,
		},
	}, nil
}

type assignVehicleTool struct {
	store store.Store
}

func (t *assignVehicleTool) Name() Name { return AssignVehicleToTrip }

func (t *assignVehicleTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	tripRef, err := requireRef(params, "trip_id", "trip_name")
	if err != nil {
		return nil, err
	}
	vehicleRef, err := requireRef(params, "vehicle_id", "license_plate", "vehicle_plate")
	if err != nil {
		return nil, err
	}

	trip, err := store.ResolveTrip(ctx, t.store, tripRef)
	if err != nil {
		return failNotFound(err)
	}
	vehicle, err := store.ResolveVehicle(ctx, t.store, vehicleRef)
	if err != nil {
		return failNotFound(err)
	}

	var driver *store.Driver
	if ref, ok := entityRef(params, "driver_id", "driver_name"); ok {
		driver, err = store.ResolveDriver(ctx, t.store, ref)
	} else {
		driver, err = t.store.UnassignedDriver(ctx)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &model.ToolResult{Success: false, Error: "no available driver found for the deployment"}, nil
		}
		return nil, err
	}

	dep, err := t.store.CreateDeployment(ctx, trip.ID, vehicle.ID, driver.ID)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return &model.ToolResult{
				Success: false,
				Error:   fmt.Sprintf("trip '%s' or vehicle %s already has a deployment", trip.DisplayName, vehicle.LicensePlate),
			}, nil
		}
		return failNotFound(err)
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Vehicle %s assigned to trip '%s' with driver %s", vehicle.LicensePlate, trip.DisplayName, driver.Name),
		Data: map[string]any{
			"id":         dep.ID,
			"trip_id":    trip.ID,
			"vehicle_id": vehicle.ID,
			"driver_id":  driver.ID,
		},
	}, nil
}
