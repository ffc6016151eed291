package response

import "facility-booking/pkg/timeslot"

type TimeRangeResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailabilityResponse is advisory: it reserves nothing and may be stale by
// the time a create request arrives.
type AvailabilityResponse struct {
	FacilityID      string              `json:"facility_id"`
	Date            string              `json:"date"`
	OperatingWindow *TimeRangeResponse  `json:"operating_window"`
	BookedRanges    []TimeRangeResponse `json:"booked_ranges"`
	FreeRanges      []TimeRangeResponse `json:"free_ranges"`
	HourlyRate      string              `json:"hourly_rate"`
	HourlyRateCents int64               `json:"hourly_rate_cents"`
}

func TimeRangeToResponse(r timeslot.Range) TimeRangeResponse {
	return TimeRangeResponse{
		Start: r.Start.String(),
		End:   r.End.String(),
	}
}

func TimeRangesToResponse(ranges []timeslot.Range) []TimeRangeResponse {
	out := make([]TimeRangeResponse, len(ranges))
	for i, r := range ranges {
		out[i] = TimeRangeToResponse(r)
	}
	return out
}
