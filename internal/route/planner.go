package route

import (
	"context"
	"math"

	"movequote-backend/config"
	"movequote-backend/internal/model"
)

// Result is one computed driving route between the two service
// addresses.
type Result struct {
	DistanceMeters float64
	Polyline       string
}

// Planner resolves a driving route between two resolved places. It is
// only invoked once both endpoints carry coordinates; failures leave
// the distance unknown and are never surfaced to the user.
type Planner interface {
	Route(ctx context.Context, origin, destination model.Place) (Result, error)
}

// New selects the directions backend from configuration: the external
// directions API when a credential is present, the straight-line
// estimate otherwise.
func New(cfg *config.RoutingConfig) Planner {
	if cfg != nil && cfg.Configured() {
		return NewDirectionsClient(cfg)
	}
	return NewEstimatePlanner()
}

const earthRadiusMeters = 6371000

// EstimatePlanner approximates driving distance as 1.3x the great-circle
// distance between the endpoints. It keeps the demo working without a
// directions credential, the same way the detector's synthesized mode
// does.
type EstimatePlanner struct{}

// NewEstimatePlanner creates the offline distance estimator.
func NewEstimatePlanner() *EstimatePlanner {
	return &EstimatePlanner{}
}

// Route returns the haversine distance scaled by a road-winding factor.
func (p *EstimatePlanner) Route(ctx context.Context, origin, destination model.Place) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	meters := haversine(origin.Lat, origin.Lng, destination.Lat, destination.Lng)
	return Result{DistanceMeters: meters * 1.3}, nil
}

func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
