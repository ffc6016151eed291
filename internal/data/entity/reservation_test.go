package entity

import (
	"testing"
	"time"

	"facility-booking/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestReservationStatusTransitions(t *testing.T) {
	all := []ReservationStatus{
		ReservationStatusPending,
		ReservationStatusConfirmed,
		ReservationStatusCancelled,
		ReservationStatusCompleted,
	}

	allowed := map[[2]ReservationStatus]bool{
		{ReservationStatusPending, ReservationStatusConfirmed}:   true,
		{ReservationStatusPending, ReservationStatusCancelled}:   true,
		{ReservationStatusConfirmed, ReservationStatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]ReservationStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.False(t, ReservationStatus("archived").CanTransitionTo(ReservationStatusCancelled))
}

func TestReservationStatusTerminal(t *testing.T) {
	assert.False(t, ReservationStatusPending.IsTerminal())
	assert.False(t, ReservationStatusConfirmed.IsTerminal())
	assert.True(t, ReservationStatusCancelled.IsTerminal())
	assert.True(t, ReservationStatusCompleted.IsTerminal())

	assert.True(t, ReservationStatusPending.IsActive())
	assert.True(t, ReservationStatusConfirmed.IsActive())
	assert.False(t, ReservationStatusCancelled.IsActive())
	assert.False(t, ReservationStatusCompleted.IsActive())

	assert.True(t, ReservationStatusCompleted.Valid())
	assert.False(t, ReservationStatus("").Valid())
}

func TestReservationOwnedBy(t *testing.T) {
	owner := uuid.New()
	r := &Reservation{RequesterID: owner}

	assert.True(t, r.OwnedBy(Actor{ID: owner, Role: RoleCustomer}))
	assert.True(t, r.OwnedBy(Actor{ID: uuid.New(), Role: RoleAdmin}))
	assert.False(t, r.OwnedBy(Actor{ID: uuid.New(), Role: RoleCustomer}))
	assert.False(t, (&Reservation{}).OwnedBy(Actor{}))
}

func TestReservationClone(t *testing.T) {
	notes := "bring balls"
	at := time.Now()
	r := &Reservation{Notes: &notes, CancelledAt: &at}

	c := r.Clone()
	*c.Notes = "changed"

	assert.Equal(t, "bring balls", *r.Notes)
	assert.NotSame(t, r.CancelledAt, c.CancelledAt)
}

func TestReservationFilterMatches(t *testing.T) {
	requester := uuid.New()
	d := timeslot.Date{Year: 2026, Month: time.November, Day: 3}
	r := &Reservation{RequesterID: requester, Date: d, Status: ReservationStatusPending}

	pending := ReservationStatusPending
	cancelled := ReservationStatusCancelled
	before := timeslot.Date{Year: 2026, Month: time.November, Day: 1}
	after := timeslot.Date{Year: 2026, Month: time.November, Day: 5}
	other := uuid.New()

	assert.True(t, ReservationFilter{}.Matches(r))
	assert.True(t, ReservationFilter{RequesterID: &requester, Status: &pending}.Matches(r))
	assert.True(t, ReservationFilter{DateFrom: &d, DateTo: &d}.Matches(r))
	assert.True(t, ReservationFilter{DateFrom: &before, DateTo: &after}.Matches(r))
	assert.False(t, ReservationFilter{RequesterID: &other}.Matches(r))
	assert.False(t, ReservationFilter{Status: &cancelled}.Matches(r))
	assert.False(t, ReservationFilter{DateFrom: &after}.Matches(r))
	assert.False(t, ReservationFilter{DateTo: &before}.Matches(r))
}
