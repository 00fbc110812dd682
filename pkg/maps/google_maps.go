package maps

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) RouteEstimate(ctx context.Context, origin, destination Location) (*RouteEstimate, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude),
		Destination: fmt.Sprintf("%f,%f", destination.Latitude, destination.Longitude),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, fmt.Errorf("no route found")
	}

	var distanceMeters int
	var duration float64
	for _, leg := range routes[0].Legs {
		distanceMeters += leg.Distance.Meters
		duration += leg.Duration.Minutes()
	}

	return &RouteEstimate{
		DistanceKM:      float64(distanceMeters) / 1000,
		DurationMinutes: int(math.Ceil(duration)),
		Summary:         routes[0].Summary,
	}, nil
}
