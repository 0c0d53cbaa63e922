package model

// Place is an address resolved by the mapping autocomplete widget.
type Place struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Resolved reports whether the place carries usable coordinates.
func (p Place) Resolved() bool {
	return p.Address != "" && (p.Lat != 0 || p.Lng != 0)
}

// RouteInfo tracks the service addresses and, once both endpoints have
// resolved and a route has been computed, the driving distance between
// them. DistanceMeters stays nil until then, which the pricing engine
// reads as "no travel fee".
type RouteInfo struct {
	Origin         Place    `json:"origin"`
	Destination    Place    `json:"destination"`
	DistanceMeters *float64 `json:"distanceMeters"`
	TravelFee      int      `json:"travelFee"`
	Polyline       string   `json:"polyline,omitempty"`
}
