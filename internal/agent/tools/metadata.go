package tools

import "sort"

// Category groups tools by their effect on stored data.
type Category string

const (
	CategoryRead   Category = "read"
	CategoryCreate Category = "create"
	CategoryDelete Category = "delete"
)

// Metadata is the static description of a tool. The consequence flag here
// is authoritative: it overrides whatever the classifier guessed.
type Metadata struct {
	Name                     Name
	Description              string
	Category                 Category
	RequiresConsequenceCheck bool
}

var metadataTable = map[Name]Metadata{
	GetUnassignedVehiclesCount: {
		Name:        GetUnassignedVehiclesCount,
		Description: "Count fleet vehicles with no active deployment",
		Category:    CategoryRead,
	},
	GetTripStatus: {
		Name:        GetTripStatus,
		Description: "Report booking and deployment status for a daily trip",
		Category:    CategoryRead,
	},
	ListStopsForPath: {
		Name:        ListStopsForPath,
		Description: "List the ordered stops of a path",
		Category:    CategoryRead,
	},
	ListRoutesByPath: {
		Name:        ListRoutesByPath,
		Description: "List the routes scheduled over a path",
		Category:    CategoryRead,
	},
	CreateStop: {
		Name:        CreateStop,
		Description: "Create a stop at the given coordinates",
		Category:    CategoryCreate,
	},
	CreatePath: {
		Name:        CreatePath,
		Description: "Create a path from an ordered list of stops",
		Category:    CategoryCreate,
	},
	CreateRoute: {
		Name:        CreateRoute,
		Description: "Create a route over an existing path",
		Category:    CategoryCreate,
	},
	AssignVehicleToTrip: {
		Name:        AssignVehicleToTrip,
		Description: "Deploy a vehicle and driver on a daily trip",
		Category:    CategoryCreate,
	},
	RemoveVehicleFromTrip: {
		Name:                     RemoveVehicleFromTrip,
		Description:              "Remove the deployed vehicle from a daily trip",
		Category:                 CategoryDelete,
		RequiresConsequenceCheck: true,
	},
	DeleteTrip: {
		Name:                     DeleteTrip,
		Description:              "Delete a daily trip and its deployment",
		Category:                 CategoryDelete,
		RequiresConsequenceCheck: true,
	},
	DeactivateRoute: {
		Name:                     DeactivateRoute,
		Description:              "Deactivate a route so no further trips are scheduled",
		Category:                 CategoryDelete,
		RequiresConsequenceCheck: true,
	},
}

// MetadataFor returns the static metadata for a tool name.
func MetadataFor(name Name) (Metadata, bool) {
	m, ok := metadataTable[name]
	return m, ok
}

// AllMetadata lists metadata for every known tool, keyed iteration order
// normalized by name.
func AllMetadata() []Metadata {
	out := make([]Metadata, 0, len(metadataTable))
	for _, n := range allNamesSorted() {
		out = append(out, metadataTable[n])
	}
	return out
}

func allNamesSorted() []Name {
	names := make([]Name, 0, len(metadataTable))
	for n := range metadataTable {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
