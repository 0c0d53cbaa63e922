package model

// Step is the wizard's current screen. Exactly one step is active at a
// time; transitions are strictly forward except the explicit modify and
// reset actions.
type Step string

const (
	StepEntry    Step = "entry"
	StepLoading  Step = "loading"
	StepQuote    Step = "quote"
	StepSchedule Step = "schedule"
	StepPayment  Step = "payment"
	StepSuccess  Step = "success"
)

// Flow selects which wizard variant a session runs.
type Flow string

const (
	// FlowManual is the item-count quote builder; it includes the demo
	// payment screen.
	FlowManual Flow = "manual"
	// FlowPhoto is the photo-upload flow; scheduling goes straight to
	// success.
	FlowPhoto Flow = "photo"
)

// ValidFlow reports whether f is a known wizard variant.
func ValidFlow(f Flow) bool {
	return f == FlowManual || f == FlowPhoto
}

// ImagePayload is one uploaded photo, carried as a data URL the way the
// browser encodes it.
type ImagePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
