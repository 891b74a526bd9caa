package domain

// Geographic route origin for a day's visits.
type StartLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultStartLocation is the fallback origin used when a request
// carries no start location (central London).
func DefaultStartLocation() StartLocation {
	return StartLocation{Lat: 51.5074, Lng: -0.1278}
}
