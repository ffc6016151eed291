package request

type CreateReservationRequest struct {
	FacilityID string  `json:"facility_id" validate:"required,uuid"`
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime  string  `json:"start_time" validate:"required,clock"`
	EndTime    string  `json:"end_time" validate:"required,clock"`
	GroupID    *string `json:"group_id,omitempty" validate:"omitempty,uuid|eq="`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// UpdateReservationRequest changes the fields a requester may edit while the
// reservation is pending. A nil field is left alone; an empty string clears it.
type UpdateReservationRequest struct {
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=500"`
	GroupID *string `json:"group_id,omitempty" validate:"omitempty,uuid|eq="`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ListReservationsRequest struct {
	PaginatedRequest
	RequesterID *string `json:"requester_id,omitempty" validate:"omitempty,uuid"`
	FacilityID  *string `json:"facility_id,omitempty" validate:"omitempty,uuid"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	DateFrom    *string `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo      *string `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}
