package model

// ChargeKey identifies one line of a quote breakdown. It is either an
// ItemKey or one of the synthetic fee keys below.
type ChargeKey string

const (
	ChargeServiceFee ChargeKey = "serviceFee"
	ChargeTravelFee  ChargeKey = "travelFee"
)

// Breakdown maps each charge to its computed whole-dollar price.
// A breakdown is built fresh for every quote request and never mutated
// after the wizard leaves the loading step.
type Breakdown map[ChargeKey]int

// Total sums every line of the breakdown.
func (b Breakdown) Total() int {
	total := 0
	for _, price := range b {
		total += price
	}
	return total
}

// DetectedItem is the per-line read model shown on the photo-flow quote
// screen. It is derived from the category counts and the breakdown; the
// detector itself always reports category counts.
type DetectedItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Total    int    `json:"total"`
}
