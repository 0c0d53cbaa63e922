package wizard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"movequote-backend/internal/model"
)

// Session owns all state for one visitor's trip through the wizard.
// Every read and mutation goes through the Service, which serializes
// HTTP handlers and async completions on the session mutex.
type Session struct {
	mu sync.Mutex

	ID        string
	Flow      model.Flow
	Step      model.Step
	CreatedAt time.Time

	Counts model.ItemCounts
	Images []model.ImagePayload

	Breakdown model.Breakdown
	Total     int

	Route model.RouteInfo

	Form        model.ScheduleForm
	FieldErrors map[string]string

	// generation tags in-flight detection and routing calls. A completion
	// whose generation no longer matches is stale and must be dropped.
	generation uint64
}

func newSession(flow model.Flow) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Flow:        flow,
		Step:        model.StepEntry,
		CreatedAt:   time.Now().UTC(),
		Counts:      model.NewItemCounts(),
		FieldErrors: make(map[string]string),
	}
}

// reset restores every tracked field to its initial value and bumps the
// generation so in-flight async results are discarded. Caller holds mu.
func (s *Session) reset() {
	s.Step = model.StepEntry
	s.Counts = model.NewItemCounts()
	s.Images = nil
	s.Breakdown = nil
	s.Total = 0
	s.Route = model.RouteInfo{}
	s.Form = model.ScheduleForm{}
	s.FieldErrors = make(map[string]string)
	s.generation++
}

// Snapshot is the JSON view of a session returned by the API.
type Snapshot struct {
	ID            string               `json:"id"`
	Flow          model.Flow           `json:"flow"`
	Step          model.Step           `json:"step"`
	Counts        model.ItemCounts     `json:"counts"`
	Images        []model.ImagePayload `json:"images"`
	Breakdown     model.Breakdown      `json:"breakdown"`
	Total         int                  `json:"total"`
	DetectedItems []model.DetectedItem `json:"detectedItems,omitempty"`
	Route         model.RouteInfo      `json:"route"`
	Form          model.ScheduleForm   `json:"form"`
	FieldErrors   map[string]string    `json:"fieldErrors"`
}

var displayNames = map[model.ItemKey]string{
	model.ItemBedrooms:       "Bedrooms",
	model.ItemBathrooms:      "Bathrooms",
	model.ItemLargeFurniture: "Large Furniture",
	model.ItemTables:         "Tables",
	model.ItemChairs:         "Chairs",
}

// snapshot builds the API view. Caller holds mu.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:          s.ID,
		Flow:        s.Flow,
		Step:        s.Step,
		Counts:      s.Counts.Clone(),
		Images:      append([]model.ImagePayload(nil), s.Images...),
		Total:       s.Total,
		Route:       s.Route,
		Form:        s.Form,
		FieldErrors: make(map[string]string, len(s.FieldErrors)),
	}
	for k, v := range s.FieldErrors {
		snap.FieldErrors[k] = v
	}
	if s.Breakdown != nil {
		snap.Breakdown = make(model.Breakdown, len(s.Breakdown))
		for k, v := range s.Breakdown {
			snap.Breakdown[k] = v
		}
	}

	// The photo flow's quote screen lists detected items per category.
	if s.Flow == model.FlowPhoto && s.Breakdown != nil {
		for _, key := range model.ItemKeys {
			qty := s.Counts[key]
			if qty <= 0 {
				continue
			}
			snap.DetectedItems = append(snap.DetectedItems, model.DetectedItem{
				Name:     displayNames[key],
				Quantity: qty,
				Total:    s.Breakdown[model.ChargeKey(key)],
			})
		}
	}
	return snap
}
