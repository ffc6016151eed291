package repository

import (
	"facility-booking/internal/data/entity"
	"facility-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Facility    FacilityRepository
	Reservation ReservationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Facility:    NewFacilityRepository(db, log),
		Reservation: NewReservationRepository(db, log),
	}
}

// NewMemoryRepository backs both stores with process memory. Used by the
// "memory" store driver and by tests.
func NewMemoryRepository(facilities []*entity.Facility, log *zap.Logger) *Repository {
	facilityRepo := NewMemoryFacilityRepository()
	for _, f := range facilities {
		facilityRepo.Put(f)
	}

	return &Repository{
		Facility:    facilityRepo,
		Reservation: NewMemoryReservationRepository(log),
	}
}
