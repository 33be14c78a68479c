package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	errx "github.com/movi-agent/server/internal/core/error"
)

// Postgres is the production Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// wrapNoRows keeps the domain not-found sentinel for missing rows and
// marks everything else as a database failure.
func wrapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return errx.WrapDB(err)
}

func (p *Postgres) StopByID(ctx context.Context, id int64) (*Stop, error) {
	var s Stop
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, latitude, longitude FROM stops WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &s, nil
}

func (p *Postgres) ListStops(ctx context.Context) ([]Stop, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, latitude, longitude FROM stops ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stop
	for rows.Next() {
		var s Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateStop(ctx context.Context, name string, lat, lon float64) (*Stop, error) {
	s := Stop{Name: name, Latitude: lat, Longitude: lon}
	err := p.pool.QueryRow(ctx,
		`INSERT INTO stops (name, latitude, longitude) VALUES ($1, $2, $3) RETURNING id`,
		name, lat, lon).Scan(&s.ID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *Postgres) PathByID(ctx context.Context, id int64) (*Path, error) {
	var pa Path
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, stop_ids FROM paths WHERE id = $1`, id).
		Scan(&pa.ID, &pa.Name, &pa.StopIDs)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &pa, nil
}

func (p *Postgres) ListPaths(ctx context.Context) ([]Path, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, stop_ids FROM paths ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Path
	for rows.Next() {
		var pa Path
		if err := rows.Scan(&pa.ID, &pa.Name, &pa.StopIDs); err != nil {
			return nil, err
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}

func (p *Postgres) CreatePath(ctx context.Context, name string, stopIDs []int64) (*Path, error) {
	pa := Path{Name: name, StopIDs: stopIDs}
	err := p.pool.QueryRow(ctx,
		`INSERT INTO paths (name, stop_ids) VALUES ($1, $2) RETURNING id`,
		name, stopIDs).Scan(&pa.ID)
	if err != nil {
		return nil, err
	}
	return &pa, nil
}

const routeCols = `id, path_id, display_name, shift_time, direction, start_point, end_point, status`

func scanRoute(row pgx.Row) (*Route, error) {
	var r Route
	err := row.Scan(&r.ID, &r.PathID, &r.DisplayName, &r.ShiftTime,
		&r.Direction, &r.StartPoint, &r.EndPoint, &r.Status)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &r, nil
}

func (p *Postgres) RouteByID(ctx context.Context, id int64) (*Route, error) {
	return scanRoute(p.pool.QueryRow(ctx,
		`SELECT `+routeCols+` FROM routes WHERE id = $1`, id))
}

func (p *Postgres) routesQuery(ctx context.Context, sql string, args ...any) ([]Route, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Route
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.ID, &r.PathID, &r.DisplayName, &r.ShiftTime,
			&r.Direction, &r.StartPoint, &r.EndPoint, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) ListRoutes(ctx context.Context) ([]Route, error) {
	return p.routesQuery(ctx, `SELECT `+routeCols+` FROM routes ORDER BY id`)
}

func (p *Postgres) RoutesByPath(ctx context.Context, pathID int64) ([]Route, error) {
	return p.routesQuery(ctx,
		`SELECT `+routeCols+` FROM routes WHERE path_id = $1 ORDER BY id`, pathID)
}

func (p *Postgres) CreateRoute(ctx context.Context, r Route) (*Route, error) {
	if r.Status == "" {
		r.Status = RouteActive
	}
	err := p.pool.QueryRow(ctx,
		`INSERT INTO routes (path_id, display_name, shift_time, direction, start_point, end_point, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		r.PathID, r.DisplayName, r.ShiftTime, r.Direction, r.StartPoint, r.EndPoint, r.Status).
		Scan(&r.ID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Postgres) UpdateRouteStatus(ctx context.Context, id int64, status string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE routes SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const tripCols = `id, route_id, display_name, booking_percentage, live_status, trip_date`

func (p *Postgres) TripByID(ctx context.Context, id int64) (*DailyTrip, error) {
	var t DailyTrip
	err := p.pool.QueryRow(ctx,
		`SELECT `+tripCols+` FROM daily_trips WHERE id = $1`, id).
		Scan(&t.ID, &t.RouteID, &t.DisplayName, &t.BookingPercentage, &t.LiveStatus, &t.Date)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &t, nil
}

func (p *Postgres) tripsQuery(ctx context.Context, sql string, args ...any) ([]DailyTrip, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyTrip
	for rows.Next() {
		var t DailyTrip
		if err := rows.Scan(&t.ID, &t.RouteID, &t.DisplayName,
			&t.BookingPercentage, &t.LiveStatus, &t.Date); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) ListTrips(ctx context.Context) ([]DailyTrip, error) {
	return p.tripsQuery(ctx, `SELECT `+tripCols+` FROM daily_trips ORDER BY id`)
}

func (p *Postgres) TripsByRoute(ctx context.Context, routeID int64) ([]DailyTrip, error) {
	return p.tripsQuery(ctx,
		`SELECT `+tripCols+` FROM daily_trips WHERE route_id = $1 ORDER BY id`, routeID)
}

func (p *Postgres) DeleteTrip(ctx context.Context, id int64) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM deployments WHERE trip_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM daily_trips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (p *Postgres) VehicleByID(ctx context.Context, id int64) (*Vehicle, error) {
	var v Vehicle
	err := p.pool.QueryRow(ctx,
		`SELECT id, license_plate, type, capacity FROM vehicles WHERE id = $1`, id).
		Scan(&v.ID, &v.LicensePlate, &v.Type, &v.Capacity)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &v, nil
}

func (p *Postgres) vehiclesQuery(ctx context.Context, sql string, args ...any) ([]Vehicle, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.LicensePlate, &v.Type, &v.Capacity); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	return p.vehiclesQuery(ctx,
		`SELECT id, license_plate, type, capacity FROM vehicles ORDER BY id`)
}

func (p *Postgres) UnassignedVehicles(ctx context.Context) ([]Vehicle, error) {
	return p.vehiclesQuery(ctx,
		`SELECT v.id, v.license_plate, v.type, v.capacity
		 FROM vehicles v
		 LEFT JOIN deployments d ON d.vehicle_id = v.id
		 WHERE d.id IS NULL
		 ORDER BY v.id`)
}

func (p *Postgres) DriverByID(ctx context.Context, id int64) (*Driver, error) {
	var d Driver
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, phone FROM drivers WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Phone)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &d, nil
}

func (p *Postgres) ListDrivers(ctx context.Context) ([]Driver, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, phone FROM drivers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) UnassignedDriver(ctx context.Context) (*Driver, error) {
	var d Driver
	err := p.pool.QueryRow(ctx,
		`SELECT dr.id, dr.name, dr.phone
		 FROM drivers dr
		 LEFT JOIN deployments d ON d.driver_id = dr.id
		 WHERE d.id IS NULL
		 ORDER BY dr.id
		 LIMIT 1`).Scan(&d.ID, &d.Name, &d.Phone)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &d, nil
}

func (p *Postgres) DeploymentForTrip(ctx context.Context, tripID int64) (*Deployment, error) {
	var d Deployment
	err := p.pool.QueryRow(ctx,
		`SELECT id, trip_id, vehicle_id, driver_id FROM deployments WHERE trip_id = $1`, tripID).
		Scan(&d.ID, &d.TripID, &d.VehicleID, &d.DriverID)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &d, nil
}

func (p *Postgres) DeploymentForVehicle(ctx context.Context, vehicleID int64) (*Deployment, error) {
	var d Deployment
	err := p.pool.QueryRow(ctx,
		`SELECT id, trip_id, vehicle_id, driver_id FROM deployments WHERE vehicle_id = $1`, vehicleID).
		Scan(&d.ID, &d.TripID, &d.VehicleID, &d.DriverID)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &d, nil
}

// CreateDeployment checks the per-trip and per-vehicle uniqueness rules
// and inserts inside one transaction.
func (p *Postgres) CreateDeployment(ctx context.Context, tripID, vehicleID, driverID int64) (*Deployment, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var taken bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM deployments WHERE trip_id = $1 OR vehicle_id = $2)`,
		tripID, vehicleID).Scan(&taken)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	d := Deployment{TripID: tripID, VehicleID: vehicleID, DriverID: driverID}
	err = tx.QueryRow(ctx,
		`INSERT INTO deployments (trip_id, vehicle_id, driver_id) VALUES ($1, $2, $3) RETURNING id`,
		tripID, vehicleID, driverID).Scan(&d.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &d, nil
}

func (p *Postgres) DeleteDeploymentForTrip(ctx context.Context, tripID int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM deployments WHERE trip_id = $1`, tripID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
