package wizard

import (
	"regexp"
	"strings"

	"movequote-backend/internal/model"
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ValidateSchedule checks the schedule form and returns per-field error
// messages. An empty map means the form may proceed.
func ValidateSchedule(form model.ScheduleForm) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(form.FirstName) == "" {
		errs["firstName"] = "First name is required"
	}
	if strings.TrimSpace(form.LastName) == "" {
		errs["lastName"] = "Last name is required"
	}
	if form.Date == "" {
		errs["date"] = "Preferred date is required"
	}
	if form.Time == "" {
		errs["time"] = "Preferred time is required"
	}
	if strings.TrimSpace(form.Phone) == "" {
		errs["phone"] = "Phone number is required"
	}
	if strings.TrimSpace(form.Email) == "" {
		errs["email"] = "Email is required"
	} else if !emailRe.MatchString(form.Email) {
		errs["email"] = "Email is invalid"
	}

	return errs
}
