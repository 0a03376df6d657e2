package geolocation

import (
	"context"
	"math"
	"regexp"

	"github.com/zatekoja/movequote/internal/domain/providers"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

const earthRadiusMiles = 3958.8

// MinimumLocalMiles is reported for two different ZIP codes that share a
// centroid, so an across-town move is never priced as zero distance.
const MinimumLocalMiles = 15.0

var zipFormat = regexp.MustCompile(`^\d{5}$`)

// zip3Centroids maps three-digit ZIP prefixes of major metros to a centroid.
var zip3Centroids = map[string]providers.Coordinates{
	"021": {Latitude: 42.3601, Longitude: -71.0589},  // Boston
	"100": {Latitude: 40.7506, Longitude: -73.9972},  // Manhattan
	"112": {Latitude: 40.6782, Longitude: -73.9442},  // Brooklyn
	"191": {Latitude: 39.9526, Longitude: -75.1652},  // Philadelphia
	"200": {Latitude: 38.9072, Longitude: -77.0369},  // Washington
	"212": {Latitude: 39.2904, Longitude: -76.6122},  // Baltimore
	"282": {Latitude: 35.2271, Longitude: -80.8431},  // Charlotte
	"303": {Latitude: 33.7490, Longitude: -84.3880},  // Atlanta
	"331": {Latitude: 25.7617, Longitude: -80.1918},  // Miami
	"328": {Latitude: 28.5383, Longitude: -81.3792},  // Orlando
	"372": {Latitude: 36.1627, Longitude: -86.7816},  // Nashville
	"432": {Latitude: 39.9612, Longitude: -82.9988},  // Columbus
	"482": {Latitude: 42.3314, Longitude: -83.0458},  // Detroit
	"554": {Latitude: 44.9778, Longitude: -93.2650},  // Minneapolis
	"606": {Latitude: 41.8781, Longitude: -87.6298},  // Chicago
	"631": {Latitude: 38.6270, Longitude: -90.1994},  // St. Louis
	"641": {Latitude: 39.0997, Longitude: -94.5786},  // Kansas City
	"700": {Latitude: 29.9511, Longitude: -90.0715},  // New Orleans
	"752": {Latitude: 32.7767, Longitude: -96.7970},  // Dallas
	"770": {Latitude: 29.7604, Longitude: -95.3698},  // Houston
	"787": {Latitude: 30.2672, Longitude: -97.7431},  // Austin
	"802": {Latitude: 39.7392, Longitude: -104.9903}, // Denver
	"841": {Latitude: 40.7608, Longitude: -111.8910}, // Salt Lake City
	"850": {Latitude: 33.4484, Longitude: -112.0740}, // Phoenix
	"891": {Latitude: 36.1699, Longitude: -115.1398}, // Las Vegas
	"900": {Latitude: 34.0522, Longitude: -118.2437}, // Los Angeles
	"902": {Latitude: 34.0901, Longitude: -118.4065}, // Beverly Hills
	"921": {Latitude: 32.7157, Longitude: -117.1611}, // San Diego
	"941": {Latitude: 37.7749, Longitude: -122.4194}, // San Francisco
	"972": {Latitude: 45.5152, Longitude: -122.6784}, // Portland
	"981": {Latitude: 47.6062, Longitude: -122.3321}, // Seattle
}

// regionCentroids covers the remaining prefixes by their first digit.
var regionCentroids = map[byte]providers.Coordinates{
	'0': {Latitude: 42.5, Longitude: -72.0},
	'1': {Latitude: 41.0, Longitude: -76.5},
	'2': {Latitude: 37.5, Longitude: -78.5},
	'3': {Latitude: 31.5, Longitude: -84.5},
	'4': {Latitude: 40.5, Longitude: -85.0},
	'5': {Latitude: 44.0, Longitude: -94.0},
	'6': {Latitude: 39.5, Longitude: -94.5},
	'7': {Latitude: 31.5, Longitude: -96.5},
	'8': {Latitude: 39.5, Longitude: -108.0},
	'9': {Latitude: 38.0, Longitude: -120.5},
}

// ZipDistanceProvider estimates distances from ZIP prefix centroids using
// the Haversine formula. It needs no network access.
type ZipDistanceProvider struct{}

// NewZipDistanceProvider creates a new ZIP distance provider
func NewZipDistanceProvider() providers.DistanceProvider {
	return &ZipDistanceProvider{}
}

// Locate returns the prefix centroid for a ZIP code
func (p *ZipDistanceProvider) Locate(ctx context.Context, zip string) (*providers.Coordinates, error) {
	if !zipFormat.MatchString(zip) {
		return nil, apperrors.NewValidationError("zip code must be 5 digits: " + zip)
	}
	if coords, ok := zip3Centroids[zip[:3]]; ok {
		return &coords, nil
	}
	coords := regionCentroids[zip[0]]
	return &coords, nil
}

// DistanceMiles implements providers.DistanceProvider
func (p *ZipDistanceProvider) DistanceMiles(ctx context.Context, originZip, destinationZip string) (float64, error) {
	from, err := p.Locate(ctx, originZip)
	if err != nil {
		return 0, err
	}
	to, err := p.Locate(ctx, destinationZip)
	if err != nil {
		return 0, err
	}
	if originZip == destinationZip {
		return 0, nil
	}

	distance := haversineMiles(*from, *to)
	if distance < MinimumLocalMiles {
		distance = MinimumLocalMiles
	}
	return math.Round(distance*10) / 10, nil
}

// haversineMiles calculates the great-circle distance between two points
func haversineMiles(from, to providers.Coordinates) float64 {
	lat1Rad := toRadians(from.Latitude)
	lat2Rad := toRadians(to.Latitude)
	deltaLat := toRadians(to.Latitude - from.Latitude)
	deltaLon := toRadians(to.Longitude - from.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
