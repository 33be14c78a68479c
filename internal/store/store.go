// Package store owns the transport operational data: stops, paths,
// routes, daily trips, vehicles, drivers and deployments.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned when a mutation would violate a uniqueness rule,
// such as a second deployment for the same trip or vehicle.
var ErrConflict = errors.New("store: conflict")

// Stop is a named geographic point.
type Stop struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Path is an ordered sequence of stops.
type Path struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	StopIDs []int64 `json:"stop_ids"`
}

// Route is a scheduled service over a path.
type Route struct {
	ID          int64  `json:"id"`
	PathID      int64  `json:"path_id"`
	DisplayName string `json:"display_name"`
	ShiftTime   string `json:"shift_time"`
	Direction   string `json:"direction"`
	StartPoint  string `json:"start_point"`
	EndPoint    string `json:"end_point"`
	Status      string `json:"status"`
}

// Route statuses.
const (
	RouteActive   = "active"
	RouteInactive = "inactive"
)

// DailyTrip is one dated occurrence of a route.
type DailyTrip struct {
	ID                int64     `json:"id"`
	RouteID           int64     `json:"route_id"`
	DisplayName       string    `json:"display_name"`
	BookingPercentage int       `json:"booking_percentage"`
	LiveStatus        string    `json:"live_status"`
	Date              time.Time `json:"date"`
}

// Vehicle is a bus in the fleet.
type Vehicle struct {
	ID           int64  `json:"id"`
	LicensePlate string `json:"license_plate"`
	Type         string `json:"type"`
	Capacity     int    `json:"capacity"`
}

// Driver is a member of the driving staff.
type Driver struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Deployment binds a vehicle and driver to a trip. A trip has at most one
// deployment and a vehicle serves at most one trip at a time.
type Deployment struct {
	ID        int64 `json:"id"`
	TripID    int64 `json:"trip_id"`
	VehicleID int64 `json:"vehicle_id"`
	DriverID  int64 `json:"driver_id"`
}

// Store is the persistence boundary the tools and the consequence
// analyzer operate against.
type Store interface {
	StopByID(ctx context.Context, id int64) (*Stop, error)
	ListStops(ctx context.Context) ([]Stop, error)
	CreateStop(ctx context.Context, name string, lat, lon float64) (*Stop, error)

	PathByID(ctx context.Context, id int64) (*Path, error)
	ListPaths(ctx context.Context) ([]Path, error)
	CreatePath(ctx context.Context, name string, stopIDs []int64) (*Path, error)

	RouteByID(ctx context.Context, id int64) (*Route, error)
	ListRoutes(ctx context.Context) ([]Route, error)
	RoutesByPath(ctx context.Context, pathID int64) ([]Route, error)
	CreateRoute(ctx context.Context, r Route) (*Route, error)
	UpdateRouteStatus(ctx context.Context, id int64, status string) error

	TripByID(ctx context.Context, id int64) (*DailyTrip, error)
	ListTrips(ctx context.Context) ([]DailyTrip, error)
	TripsByRoute(ctx context.Context, routeID int64) ([]DailyTrip, error)
	DeleteTrip(ctx context.Context, id int64) error

	VehicleByID(ctx context.Context, id int64) (*Vehicle, error)
	ListVehicles(ctx context.Context) ([]Vehicle, error)
	UnassignedVehicles(ctx context.Context) ([]Vehicle, error)

	DriverByID(ctx context.Context, id int64) (*Driver, error)
	ListDrivers(ctx context.Context) ([]Driver, error)
	UnassignedDriver(ctx context.Context) (*Driver, error)

	DeploymentForTrip(ctx context.Context, tripID int64) (*Deployment, error)
	DeploymentForVehicle(ctx context.Context, vehicleID int64) (*Deployment, error)
	CreateDeployment(ctx context.Context, tripID, vehicleID, driverID int64) (*Deployment, error)
	DeleteDeploymentForTrip(ctx context.Context, tripID int64) error
}
