// Package queue publishes reservation state changes to the message broker.
// Delivery to end users is a downstream consumer's job.
package queue

import "time"

const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationUpdated   = "reservation.updated"
	EventReservationDeleted   = "reservation.deleted"
)

// ReservationEvent carries enough for consumers to notify or audit without
// reading the reservation store.
type ReservationEvent struct {
	Type               string    `json:"type"`
	ReservationID      string    `json:"reservation_id"`
	FacilityID         string    `json:"facility_id"`
	RequesterID        string    `json:"requester_id"`
	ActorID            string    `json:"actor_id"`
	Date               string    `json:"date"`
	StartTime          string    `json:"start_time"`
	EndTime            string    `json:"end_time"`
	Status             string    `json:"status"`
	TotalPriceCents    int64     `json:"total_price_cents"`
	CancellationReason *string   `json:"cancellation_reason,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}
