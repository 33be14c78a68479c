// Package tools implements the operations the assistant can perform on
// the transport data, plus the retry policy wrapped around them.
package tools

import (
	"context"
	"sort"

	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/store"
)

// Name identifies a registered tool.
type Name string

const (
	GetUnassignedVehiclesCount Name = "get_unassigned_vehicles_count"
	GetTripStatus              Name = "get_trip_status"
	ListStopsForPath           Name = "list_stops_for_path"
	ListRoutesByPath           Name = "list_routes_by_path"
	CreateStop                 Name = "create_stop"
	CreatePath                 Name = "create_path"
	CreateRoute                Name = "create_route"
	AssignVehicleToTrip        Name = "assign_vehicle_to_trip"
	RemoveVehicleFromTrip      Name = "remove_vehicle_from_trip"
	DeleteTrip                 Name = "delete_trip"
	DeactivateRoute            Name = "deactivate_route"
)

// Tool is one invocable operation. Run returns a result envelope for
// business failures and an error only for faults worth retrying, except
// parameter errors which wrap ErrBadParams and are never retried.
type Tool interface {
	Name() Name
	Run(ctx context.Context, params map[string]any) (*model.ToolResult, error)
}

// Registry holds the tool set backed by one store.
type Registry struct {
	store store.Store
	tools map[Name]Tool
}

func NewRegistry(st store.Store) *Registry {
	r := &Registry{
		store: st,
		tools: map[Name]Tool{},
	}
	r.register(
		&unassignedVehiclesCountTool{store: st},
		&tripStatusTool{store: st},
		&stopsForPathTool{store: st},
		&routesByPathTool{store: st},
		&createStopTool{store: st},
		&createPathTool{store: st},
		&createRouteTool{store: st},
		&assignVehicleTool{store: st},
		&removeVehicleTool{store: st},
		&deleteTripTool{store: st},
		&deactivateRouteTool{store: st},
	)
	return r
}

func (r *Registry) register(ts ...Tool) {
	for _, t := range ts {
		r.tools[t.Name()] = t
	}
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[Name(name)]
	return t, ok
}

// Names lists all registered tools in stable order.
func (r *Registry) Names() []Name {
	out := make([]Name, 0, len(r.tools))
	for n := range r.tools {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
