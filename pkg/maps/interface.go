package maps

import "context"

// RoutingProvider supplies road-network travel estimates. Callers fall back
// to straight-line math when no provider is configured or a request fails.
type RoutingProvider interface {
	RouteEstimate(ctx context.Context, origin, destination Location) (*RouteEstimate, error)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type RouteEstimate struct {
	DistanceKM      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
	Summary         string  `json:"summary"`
}
