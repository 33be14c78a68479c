package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/store"
)

// failNotFound converts a resolution miss into a business failure result
// so the formatter can phrase it; other errors bubble up as faults.
func failNotFound(err error) (*model.ToolResult, error) {
	if errors.Is(err, store.ErrNotFound) {
		return &model.ToolResult{Success: false, Error: err.Error()}, nil
	}
	return nil, err
}

type unassignedVehiclesCountTool struct {
	store store.Store
}

func (t *unassignedVehiclesCountTool) Name() Name { return GetUnassignedVehiclesCount }

func (t *unassignedVehiclesCountTool) Run(ctx context.Context, _ map[string]any) (*model.ToolResult, error) {
	vehicles, err := t.store.UnassignedVehicles(ctx)
	if err != nil {
		return nil, err
	}
	plates := make([]string, len(vehicles))
	for i, v := range vehicles {
		plates[i] = v.LicensePlate
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("%d vehicles are currently unassigned", len(vehicles)),
		Data: map[string]any{
			"count":  len(vehicles),
			"plates": plates,
		},
	}, nil
}

type tripStatusTool struct {
	store store.Store
}

func (t *tripStatusTool) Name() Name { return GetTripStatus }

func (t *tripStatusTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	ref, err := requireRef(params, "trip_id", "trip_name")
	if err != nil {
		return nil, err
	}
	trip, err := store.ResolveTrip(ctx, t.store, ref)
	if err != nil {
		return failNotFound(err)
	}

	data := map[string]any{
		"trip_id":            trip.ID,
		"display_name":       trip.DisplayName,
		"booking_percentage": trip.BookingPercentage,
		"live_status":        trip.LiveStatus,
	}
	msg := fmt.Sprintf("Trip '%s' is %d%% booked", trip.DisplayName, trip.BookingPercentage)

	dep, err := t.store.DeploymentForTrip(ctx, trip.ID)
	switch {
	case err == nil:
		v, verr := t.store.VehicleByID(ctx, dep.VehicleID)
		if verr != nil {
			return nil, verr
		}
		data["vehicle"] = v.LicensePlate
		msg += fmt.Sprintf(", served by vehicle %s", v.LicensePlate)
	case errors.Is(err, store.ErrNotFound):
		data["vehicle"] = nil
		msg += ", no vehicle assigned"
	default:
		return nil, err
	}

	return &model.ToolResult{Success: true, Message: msg, Data: data}, nil
}

type stopsForPathTool struct {
	store store.Store
}

func (t *stopsForPathTool) Name() Name { return ListStopsForPath }

func (t *stopsForPathTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	ref, err := requireRef(params, "path_id", "path_name")
	if err != nil {
		return nil, err
	}
	path, err := store.ResolvePath(ctx, t.store, ref)
	if err != nil {
		return failNotFound(err)
	}

	stops := make([]map[string]any, 0, len(path.StopIDs))
	for _, id := range path.StopIDs {
		s, err := t.store.StopByID(ctx, id)
		if err != nil {
			return failNotFound(err)
		}
		stops = append(stops, map[string]any{"id": s.ID, "name": s.Name})
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Path '%s' has %d stops", path.Name, len(stops)),
		Data: map[string]any{
			"path_id": path.ID,
			"count":   len(stops),
			"stops":   stops,
		},
	}, nil
}

type routesByPathTool struct {
	store store.Store
}

func (t *routesByPathTool) Name() Name { return ListRoutesByPath }

func (t *routesByPathTool) Run(ctx context.Context, params map[string]any) (*model.ToolResult, error) {
	ref, err := requireRef(params, "path_id", "path_name")
	if err != nil {
		return nil, err
	}
	path, err := store.ResolvePath(ctx, t.store, ref)
	if err != nil {
		return failNotFound(err)
	}
	routes, err := t.store.RoutesByPath(ctx, path.ID)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, len(routes))
	for i, r := range routes {
		items[i] = map[string]any{
			"id":           r.ID,
			"display_name": r.DisplayName,
			"shift_time":   r.ShiftTime,
			"direction":    r.Direction,
			"status":       r.Status,
		}
	}
	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("Path '%s' has %d routes", path.Name, len(routes)),
		Data: map[string]any{
			"path_id": path.ID,
			"count":   len(routes),
			"routes":  items,
		},
	}, nil
}
