package model

// ScheduleForm holds the contact and booking fields collected on the
// schedule step. All fields are free-form strings; validation lives in
// the wizard package.
type ScheduleForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// TimeSlots are the selectable service windows offered on the schedule
// step.
var TimeSlots = []string{
	"8:00 AM - 10:00 AM",
	"10:00 AM - 12:00 PM",
	"12:00 PM - 2:00 PM",
	"2:00 PM - 4:00 PM",
	"4:00 PM - 6:00 PM",
}
