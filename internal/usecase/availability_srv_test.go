package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"facility-booking/internal/data/entity"
	"facility-booking/internal/data/repository"
	"facility-booking/internal/dto/response"
	"facility-booking/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAvailabilityOpenDay(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	actor := customer()

	_, err := f.reservations.CreateReservation(ctx, actor, createRequest(f, testDate, "14:00", "15:30"))
	require.NoError(t, err)
	_, err = f.reservations.CreateReservation(ctx, actor, createRequest(f, testDate, "10:00", "12:00"))
	require.NoError(t, err)

	got, err := f.availability.GetAvailability(ctx, f.facility.ID.String(), testDate)
	require.NoError(t, err)

	require.NotNil(t, got.OperatingWindow)
	assert.Equal(t, response.TimeRangeResponse{Start: "06:00", End: "22:00"}, *got.OperatingWindow)
	assert.Equal(t, []response.TimeRangeResponse{
		{Start: "10:00", End: "12:00"},
		{Start: "14:00", End: "15:30"},
	}, got.BookedRanges)
	assert.Equal(t, []response.TimeRangeResponse{
		{Start: "06:00", End: "10:00"},
		{Start: "12:00", End: "14:00"},
		{Start: "15:30", End: "22:00"},
	}, got.FreeRanges)
	assert.Equal(t, "100.00", got.HourlyRate)
	assert.Equal(t, int64(10000), got.HourlyRateCents)
}

func TestGetAvailabilityClosedDay(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	// 2030-06-02 is a Sunday.
	got, err := f.availability.GetAvailability(context.Background(), f.facility.ID.String(), "2030-06-02")
	require.NoError(t, err)

	assert.Nil(t, got.OperatingWindow)
	assert.Empty(t, got.BookedRanges)
	assert.Empty(t, got.FreeRanges)
}

func TestGetAvailabilityErrors(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()

	_, err := f.availability.GetAvailability(ctx, uuid.NewString(), testDate)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.availability.GetAvailability(ctx, "not-a-uuid", testDate)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.availability.GetAvailability(ctx, f.facility.ID.String(), "03/06/2030")
	assert.True(t, errors.Is(err, ErrValidation))

	f.facility.IsActive = false
	f.repo.Facility.(*repository.MemoryFacilityRepository).Put(f.facility)
	_, err = f.availability.GetAvailability(ctx, f.facility.ID.String(), testDate)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAvailabilityCacheInvalidatedOnWrites(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	actor := customer()
	key := "availability:" + f.facility.ID.String() + ":" + testDate

	first, err := f.availability.GetAvailability(ctx, f.facility.ID.String(), testDate)
	require.NoError(t, err)
	assert.Empty(t, first.BookedRanges)
	assert.True(t, f.cache.has(key))

	created, err := f.reservations.CreateReservation(ctx, actor, createRequest(f, testDate, "10:00", "12:00"))
	require.NoError(t, err)
	assert.False(t, f.cache.has(key))

	second, err := f.availability.GetAvailability(ctx, f.facility.ID.String(), testDate)
	require.NoError(t, err)
	assert.Len(t, second.BookedRanges, 1)

	_, err = f.reservations.CancelReservation(ctx, actor, created.ID, cancelRequest("rain"))
	require.NoError(t, err)
	assert.False(t, f.cache.has(key))

	third, err := f.availability.GetAvailability(ctx, f.facility.ID.String(), testDate)
	require.NoError(t, err)
	assert.Empty(t, third.BookedRanges)
}

// interleavedReservations runs onRead once, after the first booked-range
// lookup has been served, to simulate a write landing mid-read.
type interleavedReservations struct {
	repository.ReservationRepository
	once   sync.Once
	onRead func()
}

func (r *interleavedReservations) FindActiveByFacilityDate(ctx context.Context, facilityID uuid.UUID, date timeslot.Date) ([]*entity.Reservation, error) {
	active, err := r.ReservationRepository.FindActiveByFacilityDate(ctx, facilityID, date)
	r.once.Do(r.onRead)
	return active, err
}

func TestAvailabilityStaleReadIsNotCached(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()
	key := "availability:" + f.facility.ID.String() + ":" + testDate

	var writeErr error
	f.repo.Reservation = &interleavedReservations{
		ReservationRepository: f.repo.Reservation,
		onRead: func() {
			_, writeErr = f.reservations.CreateReservation(ctx, customer(), createRequest(f, testDate, "10:00", "12:00"))
		},
	}

	stale, err := f.availability.GetAvailability(ctx, f.facility.ID.String(), testDate)
	require.NoError(t, err)
	require.NoError(t, writeErr)
	assert.Empty(t, stale.BookedRanges)
	assert.False(t, f.cache.has(key))

	fresh, err := f.availability.GetAvailability(ctx, f.facility.ID.String(), testDate)
	require.NoError(t, err)
	assert.Len(t, fresh.BookedRanges, 1)
	assert.True(t, f.cache.has(key))
}
