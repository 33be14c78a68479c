package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// singleDigitClock matches clock tokens like "8:30" inside display names.
var singleDigitClock = regexp.MustCompile(`\b(\d):(\d{2})\b`)

// NormalizeClock zero-pads single digit hours so "Morning - 8:30" matches
// a stored "Morning - 08:30".
func NormalizeClock(s string) string {
	return singleDigitClock.ReplaceAllString(s, "0$1:$2")
}

// RefID extracts a numeric id out of a loosely typed reference. JSON
// decoded numbers arrive as float64; classified params may also hold
// native ints or digit strings.
func RefID(ref any) (int64, bool) {
	switch v := ref.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return id, true
		}
	}
	return 0, false
}

// RefName extracts a display name out of a loosely typed reference.
func RefName(ref any) (string, bool) {
	s, ok := ref.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// matchName runs the resolution ladder over the candidate names: exact
// match, then case-insensitive, then substring. Returns the index of the
// match or -1.
func matchName(want string, names []string) int {
	want = NormalizeClock(want)
	for i, n := range names {
		if NormalizeClock(n) == want {
			return i
		}
	}
	for i, n := range names {
		if strings.EqualFold(NormalizeClock(n), want) {
			return i
		}
	}
	lower := strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(NormalizeClock(n)), lower) {
			return i
		}
	}
	return -1
}

// ResolveTrip finds a daily trip by id or display name reference.
func ResolveTrip(ctx context.Context, s Store, ref any) (*DailyTrip, error) {
	if id, ok := RefID(ref); ok {
		return s.TripByID(ctx, id)
	}
	name, ok := RefName(ref)
	if !ok {
		return nil, fmt.Errorf("unusable trip reference %v: %w", ref, ErrNotFound)
	}
	trips, err := s.ListTrips(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(trips))
	for i, t := range trips {
		names[i] = t.DisplayName
	}
	if i := matchName(name, names); i >= 0 {
		return &trips[i], nil
	}
	return nil, fmt.Errorf("trip %q: %w", name, ErrNotFound)
}

// ResolveRoute finds a route by id or display name reference.
func ResolveRoute(ctx context.Context, s Store, ref any) (*Route, error) {
	if id, ok := RefID(ref); ok {
		return s.RouteByID(ctx, id)
	}
	name, ok := RefName(ref)
	if !ok {
		return nil, fmt.Errorf("unusable route reference %v: %w", ref, ErrNotFound)
	}
	routes, err := s.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(routes))
	for i, r := range routes {
		names[i] = r.DisplayName
	}
	if i := matchName(name, names); i >= 0 {
		return &routes[i], nil
	}
	return nil, fmt.Errorf("route %q: %w", name, ErrNotFound)
}

// ResolvePath finds a path by id or name reference.
func ResolvePath(ctx context.Context, s Store, ref any) (*Path, error) {
	if id, ok := RefID(ref); ok {
		return s.PathByID(ctx, id)
	}
	name, ok := RefName(ref)
	if !ok {
		return nil, fmt.Errorf("unusable path reference %v: %w", ref, ErrNotFound)
	}
	paths, err := s.ListPaths(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = p.Name
	}
	if i := matchName(name, names); i >= 0 {
		return &paths[i], nil
	}
	return nil, fmt.Errorf("path %q: %w", name, ErrNotFound)
}

// ResolveStop finds a stop by id or name reference.
func ResolveStop(ctx context.Context, s Store, ref any) (*Stop, error) {
	if id, ok := RefID(ref); ok {
		return s.StopByID(ctx, id)
	}
	name, ok := RefName(ref)
	if !ok {
		return nil, fmt.Errorf("unusable stop reference %v: %w", ref, ErrNotFound)
	}
	stops, err := s.ListStops(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(stops))
	for i, st := range stops {
		names[i] = st.Name
	}
	if i := matchName(name, names); i >= 0 {
		return &stops[i], nil
	}
	return nil, fmt.Errorf("stop %q: %w", name, ErrNotFound)
}

// ResolveVehicle finds a vehicle by id or license plate reference. Plates
// match exact first, then case-insensitive, then substring.
func ResolveVehicle(ctx context.Context, s Store, ref any) (*Vehicle, error) {
	if id, ok := RefID(ref); ok {
		return s.VehicleByID(ctx, id)
	}
	plate, ok := RefName(ref)
	if !ok {
		return nil, fmt.Errorf("unusable vehicle reference %v: %w", ref, ErrNotFound)
	}
	vehicles, err := s.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(vehicles))
	for i, v := range vehicles {
		names[i] = v.LicensePlate
	}
	if i := matchName(plate, names); i >= 0 {
		return &vehicles[i], nil
	}
	return nil, fmt.Errorf("vehicle %q: %w", plate, ErrNotFound)
}

// ResolveDriver finds a driver by id or name reference.
func ResolveDriver(ctx context.Context, s Store, ref any) (*Driver, error) {
	if id, ok := RefID(ref); ok {
		return s.DriverByID(ctx, id)
	}
	name, ok := RefName(ref)
	if !ok {
		return nil, fmt.Errorf("unusable driver reference %v: %w", ref, ErrNotFound)
	}
	drivers, err := s.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(drivers))
	for i, d := range drivers {
		names[i] = d.Name
	}
	if i := matchName(name, names); i >= 0 {
		return &drivers[i], nil
	}
	return nil, fmt.Errorf("driver %q: %w", name, ErrNotFound)
}
