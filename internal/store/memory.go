package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store backed by maps. It is used by the demo
// entrypoint and the test suites; behaviour mirrors the Postgres store,
// including the one-deployment-per-trip and per-vehicle rules.
type Memory struct {
	mu sync.RWMutex

	stops       map[int64]Stop
	paths       map[int64]Path
	routes      map[int64]Route
	trips       map[int64]DailyTrip
	vehicles    map[int64]Vehicle
	drivers     map[int64]Driver
	deployments map[int64]Deployment

	seq int64
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		stops:       map[int64]Stop{},
		paths:       map[int64]Path{},
		routes:      map[int64]Route{},
		trips:       map[int64]DailyTrip{},
		vehicles:    map[int64]Vehicle{},
		drivers:     map[int64]Driver{},
		deployments: map[int64]Deployment{},
	}
}

func (m *Memory) nextID() int64 {
	m.seq++
	return m.seq
}

// SeedVehicle inserts a vehicle with a fixed id for fixtures.
func (m *Memory) SeedVehicle(v Vehicle) Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == 0 {
		v.ID = m.nextID()
	} else if v.ID > m.seq {
		m.seq = v.ID
	}
	m.vehicles[v.ID] = v
	return v
}

// SeedDriver inserts a driver with a fixed id for fixtures.
func (m *Memory) SeedDriver(d Driver) Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == 0 {
		d.ID = m.nextID()
	} else if d.ID > m.seq {
		m.seq = d.ID
	}
	m.drivers[d.ID] = d
	return d
}

// SeedTrip inserts a trip with a fixed id for fixtures.
func (m *Memory) SeedTrip(t DailyTrip) DailyTrip {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.nextID()
	} else if t.ID > m.seq {
		m.seq = t.ID
	}
	if t.Date.IsZero() {
		t.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	m.trips[t.ID] = t
	return t
}

// SeedRoute inserts a route with a fixed id for fixtures.
func (m *Memory) SeedRoute(r Route) Route {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		r.ID = m.nextID()
	} else if r.ID > m.seq {
		m.seq = r.ID
	}
	if r.Status == "" {
		r.Status = RouteActive
	}
	m.routes[r.ID] = r
	return r
}

// SeedDeployment inserts a deployment bypassing the uniqueness checks.
func (m *Memory) SeedDeployment(d Deployment) Deployment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == 0 {
		d.ID = m.nextID()
	} else if d.ID > m.seq {
		m.seq = d.ID
	}
	m.deployments[d.ID] = d
	return d
}

func (m *Memory) StopByID(_ context.Context, id int64) (*Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stops[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) ListStops(_ context.Context) ([]Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Stop, 0, len(m.stops))
	for _, s := range m.stops {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateStop(_ context.Context, name string, lat, lon float64) (*Stop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stop{ID: m.nextID(), Name: name, Latitude: lat, Longitude: lon}
	m.stops[s.ID] = s
	return &s, nil
}

func (m *Memory) PathByID(_ context.Context, id int64) (*Path, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.paths[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListPaths(_ context.Context) ([]Path, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Path, 0, len(m.paths))
	for _, p := range m.paths {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreatePath(_ context.Context, name string, stopIDs []int64) (*Path, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range stopIDs {
		if _, ok := m.stops[id]; !ok {
			return nil, ErrNotFound
		}
	}
	p := Path{ID: m.nextID(), Name: name, StopIDs: append([]int64(nil), stopIDs...)}
	m.paths[p.ID] = p
	return &p, nil
}

func (m *Memory) RouteByID(_ context.Context, id int64) (*Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) ListRoutes(_ context.Context) ([]Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Route, 0, len(m.routes))
	for _, r := range m.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) RoutesByPath(_ context.Context, pathID int64) ([]Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Route
	for _, r := range m.routes {
		if r.PathID == pathID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateRoute(_ context.Context, r Route) (*Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.paths[r.PathID]; !ok {
		return nil, ErrNotFound
	}
	r.ID = m.nextID()
	if r.Status == "" {
		r.Status = RouteActive
	}
	m.routes[r.ID] = r
	return &r, nil
}

func (m *Memory) UpdateRouteStatus(_ context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	m.routes[id] = r
	return nil
}

func (m *Memory) TripByID(_ context.Context, id int64) (*DailyTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *Memory) ListTrips(_ context.Context) ([]DailyTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]DailyTrip, 0, len(m.trips))
	for _, t := range m.trips {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) TripsByRoute(_ context.Context, routeID int64) ([]DailyTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []DailyTrip
	for _, t := range m.trips {
		if t.RouteID == routeID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteTrip(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[id]; !ok {
		return ErrNotFound
	}
	delete(m.trips, id)
	for did, d := range m.deployments {
		if d.TripID == id {
			delete(m.deployments, did)
		}
	}
	return nil
}

func (m *Memory) VehicleByID(_ context.Context, id int64) (*Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (m *Memory) ListVehicles(_ context.Context) ([]Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UnassignedVehicles(_ context.Context) ([]Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	deployed := map[int64]bool{}
	for _, d := range m.deployments {
		deployed[d.VehicleID] = true
	}
	var out []Vehicle
	for _, v := range m.vehicles {
		if !deployed[v.ID] {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DriverByID(_ context.Context, id int64) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *Memory) ListDrivers(_ context.Context) ([]Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UnassignedDriver(_ context.Context) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	assigned := map[int64]bool{}
	for _, d := range m.deployments {
		assigned[d.DriverID] = true
	}
	ids := make([]int64, 0, len(m.drivers))
	for id := range m.drivers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if !assigned[id] {
			d := m.drivers[id]
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) DeploymentForTrip(_ context.Context, tripID int64) (*Deployment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.deployments {
		if d.TripID == tripID {
			out := d
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) DeploymentForVehicle(_ context.Context, vehicleID int64) (*Deployment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.deployments {
		if d.VehicleID == vehicleID {
			out := d
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateDeployment(_ context.Context, tripID, vehicleID, driverID int64) (*Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[tripID]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := m.vehicles[vehicleID]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := m.drivers[driverID]; !ok {
		return nil, ErrNotFound
	}
	for _, d := range m.deployments {
		if d.TripID == tripID || d.VehicleID == vehicleID {
			return nil, ErrConflict
		}
	}
	d := Deployment{ID: m.nextID(), TripID: tripID, VehicleID: vehicleID, DriverID: driverID}
	m.deployments[d.ID] = d
	return &d, nil
}

func (m *Memory) DeleteDeploymentForTrip(_ context.Context, tripID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.deployments {
		if d.TripID == tripID {
			delete(m.deployments, id)
			return nil
		}
	}
	return ErrNotFound
}
