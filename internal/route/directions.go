package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"movequote-backend/config"
	"movequote-backend/internal/model"
)

// DirectionsClient wraps a Google Directions style HTTP API. One
// request per route; legs are summed into a single total distance.
type DirectionsClient struct {
	cfg    *config.RoutingConfig
	client *http.Client
}

// NewDirectionsClient creates a planner backed by the configured
// directions service.
func NewDirectionsClient(cfg *config.RoutingConfig) *DirectionsClient {
	return &DirectionsClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route fetches a driving route between the two places. A non-OK
// service status is an error; the caller treats any error as "distance
// unknown".
func (c *DirectionsClient) Route(ctx context.Context, origin, destination model.Place) (Result, error) {
	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	q.Set("destination", fmt.Sprintf("%f,%f", destination.Lat, destination.Lng))
	q.Set("mode", "driving")
	q.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("directions api returned status %d", resp.StatusCode)
	}

	var parsed directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decode directions response: %w", err)
	}
	if parsed.Status != "OK" || len(parsed.Routes) == 0 {
		return Result{}, fmt.Errorf("directions api status %q", parsed.Status)
	}

	var meters float64
	for _, leg := range parsed.Routes[0].Legs {
		meters += leg.Distance.Value
	}

	return Result{
		DistanceMeters: meters,
		Polyline:       parsed.Routes[0].OverviewPolyline.Points,
	}, nil
}
