package usecase

import (
	"context"
	"fmt"
	"time"

	"facility-booking/internal/data/repository"
	"facility-booking/internal/dto/response"
	"facility-booking/pkg/timeslot"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityService interface {
	GetAvailability(ctx context.Context, facilityID, dateStr string) (*response.AvailabilityResponse, error)
}

type availabilityService struct {
	repo     *repository.Repository
	cache    Cache
	epoch    *CacheEpoch
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, cache Cache, epoch *CacheEpoch, cacheTTL time.Duration, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		repo:     repo,
		cache:    cache,
		epoch:    epoch,
		cacheTTL: cacheTTL,
		log:      log.With(zap.String("service", "availability")),
	}
}

func availabilityKey(facilityID uuid.UUID, date timeslot.Date) string {
	return "availability:" + facilityID.String() + ":" + date.String()
}

func (s *availabilityService) GetAvailability(ctx context.Context, facilityID, dateStr string) (*response.AvailabilityResponse, error) {
	id, err := uuid.Parse(facilityID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid facility ID format %s", ErrValidation, facilityID)
	}

	date, err := timeslot.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	key := availabilityKey(id, date)
	var cached response.AvailabilityResponse
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("Availability cache read failed", zap.Error(err), zap.String("key", key))
	} else if found {
		return &cached, nil
	}

	epoch := s.epoch.current()

	facility, err := s.repo.Facility.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get facility", zap.Error(err), zap.String("facility_id", facilityID))
		return nil, fmt.Errorf("get facility %s: %w", facilityID, err)
	}
	if facility == nil || !facility.IsActive {
		return nil, fmt.Errorf("%w: facility %s not found", ErrNotFound, facilityID)
	}

	active, err := s.repo.Reservation.FindActiveByFacilityDate(ctx, id, date)
	if err != nil {
		s.log.Error("Failed to get booked ranges",
			zap.Error(err),
			zap.String("facility_id", facilityID),
			zap.Stringer("date", date),
		)
		return nil, fmt.Errorf("get booked ranges for facility %s on %s: %w", facilityID, date, err)
	}

	booked := make([]timeslot.Range, len(active))
	for i, r := range active {
		booked[i] = r.Range()
	}

	resp := &response.AvailabilityResponse{
		FacilityID:      facility.ID.String(),
		Date:            date.String(),
		BookedRanges:    response.TimeRangesToResponse(booked),
		FreeRanges:      []response.TimeRangeResponse{},
		HourlyRate:      facility.HourlyRate.String(),
		HourlyRateCents: int64(facility.HourlyRate),
	}

	// No entry for the weekday means closed: null window, nothing bookable.
	if window, open := facility.WindowOn(date); open {
		w := response.TimeRangeToResponse(window)
		resp.OperatingWindow = &w
		resp.FreeRanges = response.TimeRangesToResponse(window.Subtract(booked))
	}

	if s.epoch.current() != epoch {
		s.log.Debug("Skipping availability cache write, a reservation changed meanwhile", zap.String("key", key))
	} else if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.log.Warn("Availability cache write failed", zap.Error(err), zap.String("key", key))
	}

	s.log.Debug("Availability computed",
		zap.String("facility_id", facilityID),
		zap.Stringer("date", date),
		zap.Int("booked", len(booked)),
		zap.Bool("open", resp.OperatingWindow != nil),
	)

	return resp, nil
}
