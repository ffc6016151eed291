package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"facility-booking/internal/data/entity"
	"facility-booking/internal/data/repository"
	"facility-booking/internal/dto/request"
	"facility-booking/internal/dto/response"
	"facility-booking/pkg/money"
	"facility-booking/pkg/queue"
	"facility-booking/pkg/timeslot"
	"facility-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type ReservationService interface {
	// Reservation engine
	CreateReservation(ctx context.Context, actor entity.Actor, req *request.CreateReservationRequest) (*response.ReservationResponse, error)

	// Queries
	GetReservation(ctx context.Context, actor entity.Actor, reservationID string) (*response.ReservationResponse, error)
	ListReservations(ctx context.Context, actor entity.Actor, req *request.ListReservationsRequest) (*response.PaginatedResponse[response.ReservationResponse], error)

	// Lifecycle
	UpdateReservation(ctx context.Context, actor entity.Actor, reservationID string, req *request.UpdateReservationRequest) (*response.ReservationResponse, error)
	ConfirmReservation(ctx context.Context, actor entity.Actor, reservationID string) (*response.ReservationResponse, error)
	CancelReservation(ctx context.Context, actor entity.Actor, reservationID string, req *request.CancelReservationRequest) (*response.ReservationResponse, error)
	DeleteReservation(ctx context.Context, actor entity.Actor, reservationID string) error
}

type reservationService struct {
	repo   *repository.Repository
	config utils.BookingConfig
	cache  Cache
	epoch  *CacheEpoch
	events EventPublisher
	now    func() time.Time
	log    *zap.Logger
}

func NewReservationService(repo *repository.Repository, config utils.BookingConfig, cache Cache, epoch *CacheEpoch, events EventPublisher, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:   repo,
		config: config,
		cache:  cache,
		epoch:  epoch,
		events: events,
		now:    time.Now,
		log:    log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, actor entity.Actor, req *request.CreateReservationRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create reservation validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing requester identity", ErrForbidden)
	}

	facilityID, err := uuid.Parse(req.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid facility ID format %s", ErrValidation, req.FacilityID)
	}
	date, err := timeslot.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	start, err := timeslot.ParseClock(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start_time: %v", ErrValidation, err)
	}
	end, err := timeslot.ParseClock(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: end_time: %v", ErrValidation, err)
	}

	var groupID *uuid.UUID
	if req.GroupID != nil && *req.GroupID != "" {
		g, err := uuid.Parse(*req.GroupID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid group ID format %s", ErrValidation, *req.GroupID)
		}
		groupID = &g
	}

	facility, err := s.repo.Facility.FindByID(ctx, facilityID)
	if err != nil {
		s.log.Error("Failed to get facility", zap.Error(err), zap.String("facility_id", req.FacilityID))
		return nil, fmt.Errorf("get facility %s: %w", req.FacilityID, err)
	}
	if facility == nil || !facility.IsActive {
		return nil, fmt.Errorf("%w: facility %s not found", ErrNotFound, req.FacilityID)
	}

	slot, err := timeslot.NewRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.checkPolicy(facility, date, slot); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reservation := &entity.Reservation{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		FacilityID:  facility.ID,
		RequesterID: actor.ID,
		GroupID:     groupID,
		Date:        date,
		StartMinute: slot.Start,
		EndMinute:   slot.End,
		HourlyRate:  facility.HourlyRate,
		TotalPrice:  money.PriceFor(slot.Minutes(), facility.HourlyRate),
		Status:      entity.ReservationStatusPending,
		Notes:       nonEmpty(req.Notes),
		Version:     1,
	}

	commitCtx, cancel := s.commitContext(ctx)
	defer cancel()

	if err := s.repo.Reservation.CreateIfNoOverlap(commitCtx, reservation); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			s.log.Info("Reservation rejected, slot taken",
				zap.String("facility_id", facility.ID.String()),
				zap.Stringer("date", date),
				zap.Stringer("range", slot),
			)
			return nil, fmt.Errorf("%w: time slot already booked", ErrConflict)
		}
		s.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("facility_id", facility.ID.String()),
			zap.String("requester_id", actor.ID.String()),
		)
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.log.Info("Reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("facility_id", facility.ID.String()),
		zap.Stringer("date", date),
		zap.Stringer("range", slot),
		zap.Int64("total_price_cents", int64(reservation.TotalPrice)),
	)

	s.invalidate(ctx, reservation)
	s.publish(queue.EventReservationCreated, reservation, actor)

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

// checkPolicy applies the configurable booking rules on top of the range
// invariant. Dates are compared against today in UTC.
func (s *reservationService) checkPolicy(facility *entity.Facility, date timeslot.Date, slot timeslot.Range) error {
	if s.config.MinMinutes > 0 && slot.Minutes() < s.config.MinMinutes {
		return fmt.Errorf("%w: reservation must be at least %d minutes", ErrValidation, s.config.MinMinutes)
	}

	if !s.config.AllowPastDates && date.Before(timeslot.DateOf(s.now().UTC())) {
		return fmt.Errorf("%w: cannot reserve a past date %s", ErrValidation, date)
	}

	if s.config.EnforceHours {
		window, open := facility.WindowOn(date)
		if !open {
			return fmt.Errorf("%w: facility is closed on %s", ErrValidation, date.Weekday())
		}
		if !window.Contains(slot) {
			return fmt.Errorf("%w: %s is outside operating hours %s", ErrValidation, slot, window)
		}
	}

	return nil
}

func (s *reservationService) GetReservation(ctx context.Context, actor entity.Actor, reservationID string) (*response.ReservationResponse, error) {
	reservation, err := s.load(ctx, actor, reservationID)
	if err != nil {
		return nil, err
	}

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

func (s *reservationService) ListReservations(ctx context.Context, actor entity.Actor, req *request.ListReservationsRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	filter, err := s.listFilter(actor, req)
	if err != nil {
		return nil, err
	}

	limit := req.Limit()
	offset := req.Offset()

	reservations, err := s.repo.Reservation.List(ctx, filter, limit, offset)
	if err != nil {
		s.log.Error("Failed to list reservations", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	total, err := s.repo.Reservation.Count(ctx, filter)
	if err != nil {
		s.log.Error("Failed to count reservations", zap.Error(err))
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	data := make([]response.ReservationResponse, len(reservations))
	for i, r := range reservations {
		data[i] = response.ReservationToResponse(r)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	return response.NewPaginatedResponse(data, page, limit, total), nil
}

// listFilter scopes non-admin actors to their own reservations.
func (s *reservationService) listFilter(actor entity.Actor, req *request.ListReservationsRequest) (entity.ReservationFilter, error) {
	var filter entity.ReservationFilter

	if req.RequesterID != nil && *req.RequesterID != "" {
		id, err := uuid.Parse(*req.RequesterID)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid requester ID format %s", ErrValidation, *req.RequesterID)
		}
		filter.RequesterID = &id
	}

	if !actor.IsAdmin() {
		if actor.ID == uuid.Nil {
			return filter, fmt.Errorf("%w: missing requester identity", ErrForbidden)
		}
		if filter.RequesterID != nil && *filter.RequesterID != actor.ID {
			return filter, fmt.Errorf("%w: cannot list reservations of another requester", ErrForbidden)
		}
		own := actor.ID
		filter.RequesterID = &own
	}

	if req.FacilityID != nil && *req.FacilityID != "" {
		id, err := uuid.Parse(*req.FacilityID)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid facility ID format %s", ErrValidation, *req.FacilityID)
		}
		filter.FacilityID = &id
	}

	if req.Status != nil && *req.Status != "" {
		status := entity.ReservationStatus(*req.Status)
		if !status.Valid() {
			return filter, fmt.Errorf("%w: unknown status %s", ErrValidation, *req.Status)
		}
		filter.Status = &status
	}

	if req.DateFrom != nil && *req.DateFrom != "" {
		d, err := timeslot.ParseDate(*req.DateFrom)
		if err != nil {
			return filter, fmt.Errorf("%w: date_from: %v", ErrValidation, err)
		}
		filter.DateFrom = &d
	}
	if req.DateTo != nil && *req.DateTo != "" {
		d, err := timeslot.ParseDate(*req.DateTo)
		if err != nil {
			return filter, fmt.Errorf("%w: date_to: %v", ErrValidation, err)
		}
		filter.DateTo = &d
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return filter, fmt.Errorf("%w: date_to must not be before date_from", ErrValidation)
	}

	return filter, nil
}

func (s *reservationService) UpdateReservation(ctx context.Context, actor entity.Actor, reservationID string, req *request.UpdateReservationRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	reservation, err := s.load(ctx, actor, reservationID)
	if err != nil {
		return nil, err
	}

	if reservation.Status != entity.ReservationStatusPending {
		return nil, fmt.Errorf("%w: only pending reservations can be updated, status is %s", ErrInvalidState, reservation.Status)
	}

	if req.Notes != nil {
		reservation.Notes = nonEmpty(req.Notes)
	}
	if req.GroupID != nil {
		if *req.GroupID == "" {
			reservation.GroupID = nil
		} else {
			g, err := uuid.Parse(*req.GroupID)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid group ID format %s", ErrValidation, *req.GroupID)
			}
			reservation.GroupID = &g
		}
	}
	reservation.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, reservation); err != nil {
		return nil, err
	}

	s.log.Info("Reservation updated", zap.String("reservation_id", reservation.ID.String()))
	s.publish(queue.EventReservationUpdated, reservation, actor)

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

func (s *reservationService) ConfirmReservation(ctx context.Context, actor entity.Actor, reservationID string) (*response.ReservationResponse, error) {
	reservation, err := s.transition(ctx, actor, reservationID, entity.ReservationStatusConfirmed, nil)
	if err != nil {
		return nil, err
	}

	s.publish(queue.EventReservationConfirmed, reservation, actor)

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, actor entity.Actor, reservationID string, req *request.CancelReservationRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", ErrValidation)
	}

	reservation, err := s.transition(ctx, actor, reservationID, entity.ReservationStatusCancelled, func(r *entity.Reservation) {
		cancelledAt := r.UpdatedAt
		r.CancellationReason = &reason
		r.CancelledAt = &cancelledAt
	})
	if err != nil {
		return nil, err
	}

	// The range is free again.
	s.invalidate(ctx, reservation)
	s.publish(queue.EventReservationCancelled, reservation, actor)

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

func (s *reservationService) DeleteReservation(ctx context.Context, actor entity.Actor, reservationID string) error {
	reservation, err := s.load(ctx, actor, reservationID)
	if err != nil {
		return err
	}

	if reservation.Status != entity.ReservationStatusCancelled {
		return fmt.Errorf("%w: only cancelled reservations can be deleted, status is %s", ErrInvalidState, reservation.Status)
	}

	commitCtx, cancel := s.commitContext(ctx)
	defer cancel()

	if err := s.repo.Reservation.Delete(commitCtx, reservation.ID, reservation.Version); err != nil {
		return s.writeError(err, reservation.ID)
	}

	s.log.Info("Reservation deleted",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	s.invalidate(ctx, reservation)
	s.publish(queue.EventReservationDeleted, reservation, actor)

	return nil
}

// transition moves a reservation along one edge of the status table. mutate
// runs after the status change and before the conditional write.
func (s *reservationService) transition(ctx context.Context, actor entity.Actor, reservationID string, next entity.ReservationStatus, mutate func(*entity.Reservation)) (*entity.Reservation, error) {
	reservation, err := s.load(ctx, actor, reservationID)
	if err != nil {
		return nil, err
	}

	if !reservation.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: cannot move reservation from %s to %s", ErrInvalidState, reservation.Status, next)
	}

	previous := reservation.Status
	reservation.Status = next
	reservation.UpdatedAt = s.now().UTC()
	if mutate != nil {
		mutate(reservation)
	}

	if err := s.save(ctx, reservation); err != nil {
		return nil, err
	}

	s.log.Info("Reservation status changed",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.String("actor_id", actor.ID.String()),
	)

	return reservation, nil
}

// load fetches a reservation and checks the actor may act on it. Authorization
// is decided before any state check.
func (s *reservationService) load(ctx context.Context, actor entity.Actor, reservationID string) (*entity.Reservation, error) {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reservation ID format %s", ErrValidation, reservationID)
	}

	reservation, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get reservation", zap.Error(err), zap.String("reservation_id", reservationID))
		return nil, fmt.Errorf("get reservation %s: %w", reservationID, err)
	}
	if reservation == nil {
		return nil, fmt.Errorf("%w: reservation %s not found", ErrNotFound, reservationID)
	}

	if !reservation.OwnedBy(actor) {
		s.log.Warn("Reservation access denied",
			zap.String("reservation_id", reservationID),
			zap.String("actor_id", actor.ID.String()),
		)
		return nil, fmt.Errorf("%w: reservation %s belongs to another requester", ErrForbidden, reservationID)
	}

	return reservation, nil
}

func (s *reservationService) save(ctx context.Context, reservation *entity.Reservation) error {
	commitCtx, cancel := s.commitContext(ctx)
	defer cancel()

	if err := s.repo.Reservation.Update(commitCtx, reservation); err != nil {
		return s.writeError(err, reservation.ID)
	}
	return nil
}

func (s *reservationService) writeError(err error, id uuid.UUID) error {
	switch {
	case errors.Is(err, repository.ErrStaleVersion):
		s.log.Info("Reservation write lost a race", zap.String("reservation_id", id.String()))
		return fmt.Errorf("%w: reservation was modified concurrently", ErrConflict)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: reservation %s not found", ErrNotFound, id)
	default:
		s.log.Error("Failed to write reservation", zap.Error(err), zap.String("reservation_id", id.String()))
		return fmt.Errorf("write reservation %s: %w", id, err)
	}
}

func (s *reservationService) commitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.CommitTimeout > 0 {
		return context.WithTimeout(ctx, s.config.CommitTimeout)
	}
	return context.WithCancel(ctx)
}

// invalidate drops the cached availability of the reservation's day. A failed
// delete only leaves the entry to expire on its TTL.
func (s *reservationService) invalidate(ctx context.Context, r *entity.Reservation) {
	s.epoch.bump()
	key := availabilityKey(r.FacilityID, r.Date)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("Availability cache invalidation failed", zap.Error(err), zap.String("key", key))
	}
}

// publish emits the event off the request path; the write has already
// committed so a broker failure is only logged.
func (s *reservationService) publish(eventType string, r *entity.Reservation, actor entity.Actor) {
	event := queue.ReservationEvent{
		Type:               eventType,
		ReservationID:      r.ID.String(),
		FacilityID:         r.FacilityID.String(),
		RequesterID:        r.RequesterID.String(),
		ActorID:            actor.ID.String(),
		Date:               r.Date.String(),
		StartTime:          r.StartMinute.String(),
		EndTime:            r.EndMinute.String(),
		Status:             string(r.Status),
		TotalPriceCents:    int64(r.TotalPrice),
		CancellationReason: r.CancellationReason,
		OccurredAt:         s.now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := s.events.Publish(ctx, event); err != nil {
			s.log.Warn("Failed to publish reservation event",
				zap.Error(err),
				zap.String("type", event.Type),
				zap.String("reservation_id", event.ReservationID),
			)
		}
	}()
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
