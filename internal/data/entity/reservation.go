package entity

import (
	"time"

	"facility-booking/pkg/money"
	"facility-booking/pkg/timeslot"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// reservationTransitions is the only place lifecycle edges are defined.
// cancelled and completed are terminal.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:   {ReservationStatusConfirmed, ReservationStatusCancelled},
	ReservationStatusConfirmed: {ReservationStatusCancelled},
}

// ActiveReservationStatuses block the time range they cover.
var ActiveReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed,
		ReservationStatusCancelled, ReservationStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a listed edge from s.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ReservationStatus) IsActive() bool {
	return s == ReservationStatusPending || s == ReservationStatusConfirmed
}

func (s ReservationStatus) IsTerminal() bool {
	return len(reservationTransitions[s]) == 0
}

type Reservation struct {
	Base
	FacilityID         uuid.UUID         `db:"facility_id"`
	RequesterID        uuid.UUID         `db:"requester_id"`
	GroupID            *uuid.UUID        `db:"group_id"`
	Date               timeslot.Date     `db:"reservation_date"`
	StartMinute        timeslot.Minute   `db:"start_minute"`
	EndMinute          timeslot.Minute   `db:"end_minute"`
	HourlyRate         money.Cents       `db:"hourly_rate_cents"`
	TotalPrice         money.Cents       `db:"total_price_cents"`
	Status             ReservationStatus `db:"status"`
	Notes              *string           `db:"notes"`
	CancellationReason *string           `db:"cancellation_reason"`
	CancelledAt        *time.Time        `db:"cancelled_at"`
	Version            int               `db:"version"`
}

func (r *Reservation) Range() timeslot.Range {
	return timeslot.Range{Start: r.StartMinute, End: r.EndMinute}
}

func (r *Reservation) DurationMinutes() int {
	return int(r.EndMinute - r.StartMinute)
}

// OwnedBy reports whether the actor may mutate the reservation.
func (r *Reservation) OwnedBy(actor Actor) bool {
	return actor.IsAdmin() || (actor.ID != uuid.Nil && actor.ID == r.RequesterID)
}

// Clone returns a deep copy so stored records are never aliased by callers.
func (r *Reservation) Clone() *Reservation {
	c := *r
	if r.GroupID != nil {
		g := *r.GroupID
		c.GroupID = &g
	}
	if r.Notes != nil {
		n := *r.Notes
		c.Notes = &n
	}
	if r.CancellationReason != nil {
		reason := *r.CancellationReason
		c.CancellationReason = &reason
	}
	if r.CancelledAt != nil {
		at := *r.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}

// ReservationFilter narrows ListReservations. Nil fields are unconstrained.
type ReservationFilter struct {
	RequesterID *uuid.UUID
	FacilityID  *uuid.UUID
	Status      *ReservationStatus
	DateFrom    *timeslot.Date
	DateTo      *timeslot.Date
}

// Matches applies the filter in memory; the SQL store builds the same
// predicate as a WHERE clause.
func (f ReservationFilter) Matches(r *Reservation) bool {
	if f.RequesterID != nil && r.RequesterID != *f.RequesterID {
		return false
	}
	if f.FacilityID != nil && r.FacilityID != *f.FacilityID {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && r.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && f.DateTo.Before(r.Date) {
		return false
	}
	return true
}
