package repository

import (
	"context"
	"sync"

	"facility-booking/internal/data/entity"

	"github.com/google/uuid"
)

type MemoryFacilityRepository struct {
	mu         sync.RWMutex
	facilities map[uuid.UUID]entity.Facility
}

func NewMemoryFacilityRepository() *MemoryFacilityRepository {
	return &MemoryFacilityRepository{facilities: make(map[uuid.UUID]entity.Facility)}
}

// Put stores or replaces a descriptor, as the catalog would.
func (r *MemoryFacilityRepository) Put(f *entity.Facility) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facilities[f.ID] = *f
}

func (r *MemoryFacilityRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Facility, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.facilities[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}
