package providers

import (
	"context"
)

// DistanceProvider estimates travel distance between two ZIP codes.
type DistanceProvider interface {
	// DistanceMiles returns the distance in miles. Identical ZIP codes are 0.
	DistanceMiles(ctx context.Context, originZip, destinationZip string) (float64, error)

	// Locate returns the approximate centroid for a ZIP code
	Locate(ctx context.Context, zip string) (*Coordinates, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64
	Longitude float64
}
