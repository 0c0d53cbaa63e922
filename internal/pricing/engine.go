package pricing

import (
	"math"
	"math/rand"
	"sync"

	"movequote-backend/internal/model"
)

const metersPerMile = 1609.34

// DefaultBaseRates is the per-unit rate table used when none is
// configured.
var DefaultBaseRates = map[model.ItemKey]int{
	model.ItemBedrooms:       150,
	model.ItemBathrooms:      100,
	model.ItemLargeFurniture: 80,
	model.ItemTables:         50,
	model.ItemChairs:         15,
}

// Engine computes quote prices. Pricing is intentionally
// non-deterministic: repeated quotes for the same inputs vary within a
// bounded range. The random source is injected so tests can seed it.
type Engine struct {
	mu        sync.Mutex
	rng       *rand.Rand
	baseRates map[model.ItemKey]int

	serviceFeeBase   float64
	serviceFeeSpread float64
	travelPerMile    float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand replaces the engine's random source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithBaseRates replaces the per-unit rate table.
func WithBaseRates(rates map[model.ItemKey]int) Option {
	return func(e *Engine) {
		if len(rates) > 0 {
			e.baseRates = rates
		}
	}
}

// WithServiceFee sets the flat-fee base and random spread.
func WithServiceFee(base, spread float64) Option {
	return func(e *Engine) {
		e.serviceFeeBase = base
		e.serviceFeeSpread = spread
	}
}

// WithTravelRate sets the per-mile travel rate.
func WithTravelRate(perMile float64) Option {
	return func(e *Engine) { e.travelPerMile = perMile }
}

// NewEngine creates a pricing engine with the default rate table and a
// time-seeded random source unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rng:              rand.New(rand.NewSource(rand.Int63())),
		baseRates:        DefaultBaseRates,
		serviceFeeBase:   50,
		serviceFeeSpread: 30,
		travelPerMile:    0.5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Price returns the charge for quantity units at the given base rate.
// The result lies in [0.85*0.95, 1.15*1.05] x rate x quantity, scaled
// by a further 0.95 bulk discount when quantity exceeds three.
func (e *Engine) Price(baseRate, quantity int) int {
	e.mu.Lock()
	variance := 0.85 + e.rng.Float64()*0.3
	complexity := 0.95 + e.rng.Float64()*0.1
	e.mu.Unlock()

	bulk := 1.0
	if quantity > 3 {
		bulk = 0.95
	}
	return int(math.Round(float64(baseRate) * variance * bulk * complexity * float64(quantity)))
}

// ServiceFee returns the flat fee charged on every quote.
func (e *Engine) ServiceFee() int {
	e.mu.Lock()
	spread := e.rng.Float64() * e.serviceFeeSpread
	e.mu.Unlock()
	return int(math.Round(e.serviceFeeBase + spread))
}

// TravelFee converts a driving distance to a whole-dollar fee. A zero
// or negative distance yields no fee.
func (e *Engine) TravelFee(distanceMeters float64) int {
	if distanceMeters <= 0 {
		return 0
	}
	miles := distanceMeters / metersPerMile
	return int(math.Round(miles * e.travelPerMile))
}

// Quote builds the full breakdown for the given counts. Categories with
// a zero count are excluded. distanceMeters may be nil when no route is
// known, in which case no travel fee line is added. The returned total
// always equals the sum of the breakdown lines.
func (e *Engine) Quote(counts model.ItemCounts, distanceMeters *float64) (model.Breakdown, int) {
	breakdown := make(model.Breakdown)

	for _, key := range model.ItemKeys {
		qty := counts[key]
		if qty <= 0 {
			continue
		}
		breakdown[model.ChargeKey(key)] = e.Price(e.baseRates[key], qty)
	}

	breakdown[model.ChargeServiceFee] = e.ServiceFee()

	if distanceMeters != nil && *distanceMeters > 0 {
		breakdown[model.ChargeTravelFee] = e.TravelFee(*distanceMeters)
	}

	return breakdown, breakdown.Total()
}

// BaseRates exposes the active rate table for the catalog endpoint.
func (e *Engine) BaseRates() map[model.ItemKey]int {
	out := make(map[model.ItemKey]int, len(e.baseRates))
	for k, v := range e.baseRates {
		out[k] = v
	}
	return out
}
