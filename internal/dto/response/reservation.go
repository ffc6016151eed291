package response

import (
	"time"

	"facility-booking/internal/data/entity"
	"facility-booking/pkg/money"
)

type ReservationResponse struct {
	ID                 string                   `json:"id"`
	FacilityID         string                   `json:"facility_id"`
	RequesterID        string                   `json:"requester_id"`
	GroupID            *string                  `json:"group_id,omitempty"`
	Date               string                   `json:"date"`
	StartTime          string                   `json:"start_time"`
	EndTime            string                   `json:"end_time"`
	DurationMinutes    int                      `json:"duration_minutes"`
	DurationHours      string                   `json:"duration_hours"`
	HourlyRate         string                   `json:"hourly_rate"`
	TotalPrice         string                   `json:"total_price"`
	TotalPriceCents    int64                    `json:"total_price_cents"`
	Status             entity.ReservationStatus `json:"status"`
	Notes              *string                  `json:"notes,omitempty"`
	CancellationReason *string                  `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time               `json:"cancelled_at,omitempty"`
	Version            int                      `json:"version"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

func ReservationToResponse(r *entity.Reservation) ReservationResponse {
	var groupID *string
	if r.GroupID != nil {
		g := r.GroupID.String()
		groupID = &g
	}

	return ReservationResponse{
		ID:                 r.ID.String(),
		FacilityID:         r.FacilityID.String(),
		RequesterID:        r.RequesterID.String(),
		GroupID:            groupID,
		Date:               r.Date.String(),
		StartTime:          r.StartMinute.String(),
		EndTime:            r.EndMinute.String(),
		DurationMinutes:    r.DurationMinutes(),
		DurationHours:      money.Hours(r.DurationMinutes()),
		HourlyRate:         r.HourlyRate.String(),
		TotalPrice:         r.TotalPrice.String(),
		TotalPriceCents:    int64(r.TotalPrice),
		Status:             r.Status,
		Notes:              r.Notes,
		CancellationReason: r.CancellationReason,
		CancelledAt:        r.CancelledAt,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
