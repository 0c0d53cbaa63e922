package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"movequote-backend/internal/detect"
	"movequote-backend/internal/model"
	"movequote-backend/internal/pricing"
	"movequote-backend/internal/route"
)

// ErrInvalidTransition is returned when an action is not allowed in the
// session's current step. State is left unchanged.
var ErrInvalidTransition = errors.New("action not allowed in current step")

// ErrUnknownCategory is returned for an item key outside the fixed set.
var ErrUnknownCategory = errors.New("unknown item category")

// GuardError blocks quote submission with a user-facing message; state
// is left unchanged.
type GuardError struct {
	Message string
}

func (e *GuardError) Error() string { return e.Message }

// Service drives wizard sessions through their steps, invoking the
// detector, the route planner and the pricing engine.
type Service struct {
	engine     *pricing.Engine
	detector   detect.Detector
	planner    route.Planner
	minLoading time.Duration
}

// NewService wires the wizard's collaborators. minLoading is the
// minimum visible duration of the loading step; pass 0 in tests.
func NewService(engine *pricing.Engine, detector detect.Detector, planner route.Planner, minLoading time.Duration) *Service {
	return &Service{
		engine:     engine,
		detector:   detector,
		planner:    planner,
		minLoading: minLoading,
	}
}

// Snapshot returns the session's current API view.
func (s *Service) Snapshot(sess *Session) Snapshot {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot()
}

// UpdateCount applies a relative delta to one category, clamped at
// zero. Only allowed while configuring on the entry step.
func (s *Service) UpdateCount(sess *Session, key model.ItemKey, delta int) error {
	if !model.ValidItemKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, key)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Flow != model.FlowManual || sess.Step != model.StepEntry {
		return ErrInvalidTransition
	}
	sess.Counts.Adjust(key, delta)
	return nil
}

// AddImages appends uploaded photos to a photo-flow session.
func (s *Service) AddImages(sess *Session, images []model.ImagePayload) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Flow != model.FlowPhoto || sess.Step != model.StepEntry {
		return ErrInvalidTransition
	}
	sess.Images = append(sess.Images, images...)
	return nil
}

// RemoveImage drops one uploaded photo by id. Unknown ids are a no-op.
func (s *Service) RemoveImage(sess *Session, id string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Flow != model.FlowPhoto || sess.Step != model.StepEntry {
		return ErrInvalidTransition
	}
	kept := sess.Images[:0]
	for _, img := range sess.Images {
		if img.ID != id {
			kept = append(kept, img)
		}
	}
	sess.Images = kept
	return nil
}

// SetAddresses stores the resolved service addresses. Once both
// endpoints carry coordinates a route computation is fired in the
// background; its completion updates the distance and travel fee
// without blocking other interaction.
func (s *Service) SetAddresses(sess *Session, origin, destination model.Place) error {
	sess.mu.Lock()

	if sess.Step != model.StepEntry {
		sess.mu.Unlock()
		return ErrInvalidTransition
	}

	sess.Route.Origin = origin
	sess.Route.Destination = destination
	// Changed endpoints invalidate any previously computed route, and the
	// generation bump drops any route call still in flight for the old
	// pair. Only the entry step reaches here, so no quote computation can
	// be invalidated alongside it.
	sess.Route.DistanceMeters = nil
	sess.Route.TravelFee = 0
	sess.Route.Polyline = ""
	sess.generation++

	bothResolved := origin.Resolved() && destination.Resolved()
	gen := sess.generation
	sess.mu.Unlock()

	if bothResolved {
		go s.computeRoute(sess, gen, origin, destination)
	}
	return nil
}

func (s *Service) computeRoute(sess *Session, gen uint64, origin, destination model.Place) {
	result, err := s.planner.Route(context.Background(), origin, destination)
	if err != nil {
		// Distance stays unknown and no travel fee applies.
		log.Printf("wizard: route lookup failed for session %s: %v", sess.ID, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// Once the quote is on screen its breakdown is fixed, so a route
	// landing after that point is dropped rather than shown next to a
	// breakdown that never priced it.
	if sess.generation != gen || (sess.Step != model.StepEntry && sess.Step != model.StepLoading) {
		return
	}
	meters := result.DistanceMeters
	sess.Route.DistanceMeters = &meters
	sess.Route.TravelFee = s.engine.TravelFee(meters)
	sess.Route.Polyline = result.Polyline
}

// SubmitQuote checks the flow's selection guard and, on success, moves
// the session to the loading step and computes the quote in the
// background. The guard failure message is surfaced to the user as a
// blocking message; state does not change.
func (s *Service) SubmitQuote(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != model.StepEntry {
		return ErrInvalidTransition
	}

	switch sess.Flow {
	case model.FlowManual:
		if sess.Counts.Empty() {
			return &GuardError{Message: "Select at least one item to continue."}
		}
	case model.FlowPhoto:
		if len(sess.Images) == 0 {
			return &GuardError{Message: "Upload at least one photo to continue."}
		}
	}
	if sess.Route.Origin.Address == "" {
		return &GuardError{Message: "Please enter an origin address to calculate your quote."}
	}
	if sess.Route.Destination.Address == "" {
		return &GuardError{Message: "Please enter a destination address to calculate your quote."}
	}

	sess.Step = model.StepLoading
	gen := sess.generation

	go s.computeQuote(sess, gen)
	return nil
}

func (s *Service) computeQuote(sess *Session, gen uint64) {
	started := time.Now()

	sess.mu.Lock()
	flow := sess.Flow
	counts := sess.Counts.Clone()
	images := append([]model.ImagePayload(nil), sess.Images...)
	sess.mu.Unlock()

	if flow == model.FlowPhoto {
		detected, err := s.detector.Detect(context.Background(), images)
		if err != nil {
			// Detection only errors on cancellation; fall back the same
			// way a failed batch does so the flow still reaches a quote.
			log.Printf("wizard: detection failed for session %s: %v", sess.ID, err)
			detected = model.NewItemCounts()
			detected[model.ItemBedrooms] = len(images)
		}
		counts = detected
	}

	breakdown, total := s.engine.Quote(counts, nil)

	// Keep the loading screen visible long enough to register, even
	// when the work finishes instantly.
	if remaining := s.minLoading - time.Since(started); remaining > 0 {
		time.Sleep(remaining)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.generation != gen || sess.Step != model.StepLoading {
		return
	}
	// Travel is priced here from the latest known distance so a route
	// that resolved during the loading window still enters the breakdown.
	if sess.Route.DistanceMeters != nil && *sess.Route.DistanceMeters > 0 {
		fee := s.engine.TravelFee(*sess.Route.DistanceMeters)
		breakdown[model.ChargeTravelFee] = fee
		total += fee
	}
	sess.Counts = counts
	sess.Breakdown = breakdown
	sess.Total = total
	sess.Step = model.StepQuote
}

// Modify returns from the quote step to the entry step so the visitor
// can change their selections. Counts, images and addresses are kept.
func (s *Service) Modify(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != model.StepQuote {
		return ErrInvalidTransition
	}
	sess.Step = model.StepEntry
	return nil
}

// BeginSchedule advances from the quote to the schedule step.
func (s *Service) BeginSchedule(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != model.StepQuote {
		return ErrInvalidTransition
	}
	sess.Step = model.StepSchedule
	return nil
}

// UpdateFormField stores one schedule form field and clears that
// field's previous error, independent of full validation.
func (s *Service) UpdateFormField(sess *Session, field, value string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != model.StepSchedule {
		return ErrInvalidTransition
	}

	switch field {
	case "firstName":
		sess.Form.FirstName = value
	case "lastName":
		sess.Form.LastName = value
	case "date":
		sess.Form.Date = value
	case "time":
		sess.Form.Time = value
	case "phone":
		sess.Form.Phone = value
	case "email":
		sess.Form.Email = value
	default:
		return fmt.Errorf("unknown form field %q", field)
	}

	delete(sess.FieldErrors, field)
	return nil
}

// SubmitSchedule validates the form and, on success, advances to the
// payment step (manual flow) or directly to success (photo flow). On
// failure the per-field errors are stored on the session and returned;
// the step does not change.
func (s *Service) SubmitSchedule(sess *Session, form model.ScheduleForm) (map[string]string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != model.StepSchedule {
		return nil, ErrInvalidTransition
	}

	sess.Form = form
	fieldErrors := ValidateSchedule(form)
	sess.FieldErrors = fieldErrors
	if len(fieldErrors) > 0 {
		return fieldErrors, nil
	}

	if sess.Flow == model.FlowManual {
		sess.Step = model.StepPayment
	} else {
		sess.Step = model.StepSuccess
	}
	return nil, nil
}

// CompletePayment finishes the demo payment screen. No payment is
// executed.
func (s *Service) CompletePayment(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != model.StepPayment {
		return ErrInvalidTransition
	}
	sess.Step = model.StepSuccess
	return nil
}

// Reset clears all session state back to the entry step. It is allowed
// from any step so a visitor can restart even while a detection call is
// in flight; the generation bump drops that call's late result.
func (s *Service) Reset(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.reset()
}
