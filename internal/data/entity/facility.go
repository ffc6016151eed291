package entity

import (
	"time"

	"facility-booking/pkg/money"
	"facility-booking/pkg/timeslot"

	"github.com/google/uuid"
)

// Facility is the read-only descriptor supplied by the facility catalog.
type Facility struct {
	ID             uuid.UUID
	Name           string
	HourlyRate     money.Cents
	OperatingHours map[time.Weekday]timeslot.Range
	IsActive       bool
}

// WindowOn returns the operating window for the date's weekday. ok is false
// when the facility is closed that day.
func (f *Facility) WindowOn(date timeslot.Date) (timeslot.Range, bool) {
	w, ok := f.OperatingHours[date.Weekday()]
	return w, ok
}
