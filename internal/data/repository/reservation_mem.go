package repository

import (
	"context"
	"sort"
	"sync"

	"facility-booking/internal/data/entity"
	"facility-booking/pkg/timeslot"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type slotKey struct {
	facilityID uuid.UUID
	date       timeslot.Date
}

// slotLock is dropped from the map once no create holds or waits on it.
type slotLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryReservationRepository keeps reservations in process memory. The
// check-then-insert of CreateIfNoOverlap runs under a mutex scoped to the
// (facility, date) key, so creates on different facilities or days never
// contend.
type MemoryReservationRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*entity.Reservation

	locksMu sync.Mutex
	locks   map[slotKey]*slotLock

	log *zap.Logger
}

func NewMemoryReservationRepository(log *zap.Logger) *MemoryReservationRepository {
	return &MemoryReservationRepository{
		rows:  make(map[uuid.UUID]*entity.Reservation),
		locks: make(map[slotKey]*slotLock),
		log:   log.With(zap.String("repository", "reservation_memory")),
	}
}

func (r *MemoryReservationRepository) lockSlot(key slotKey) {
	r.locksMu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &slotLock{}
		r.locks[key] = l
	}
	l.refs++
	r.locksMu.Unlock()

	l.mu.Lock()
}

func (r *MemoryReservationRepository) unlockSlot(key slotKey) {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	l := r.locks[key]
	l.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, key)
	}
}

func (r *MemoryReservationRepository) heldSlots() int {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	return len(r.locks)
}

func (r *MemoryReservationRepository) CreateIfNoOverlap(ctx context.Context, res *entity.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := slotKey{facilityID: res.FacilityID, date: res.Date}
	r.lockSlot(key)
	defer r.unlockSlot(key)

	active, _ := r.FindActiveByFacilityDate(ctx, res.FacilityID, res.Date)
	for _, existing := range active {
		if existing.Range().Overlaps(res.Range()) {
			return ErrOverlap
		}
	}

	r.mu.Lock()
	r.rows[res.ID] = res.Clone()
	r.mu.Unlock()

	return nil
}

func (r *MemoryReservationRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return res.Clone(), nil
}

func (r *MemoryReservationRepository) FindActiveByFacilityDate(_ context.Context, facilityID uuid.UUID, date timeslot.Date) ([]*entity.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := []*entity.Reservation{}
	for _, res := range r.rows {
		if res.FacilityID == facilityID && res.Date == date && res.Status.IsActive() {
			active = append(active, res.Clone())
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].StartMinute < active[j].StartMinute
	})

	return active, nil
}

func (r *MemoryReservationRepository) List(_ context.Context, filter entity.ReservationFilter, limit, offset int) ([]*entity.Reservation, error) {
	matched := r.matching(filter)

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.StartMinute != b.StartMinute {
			return a.StartMinute < b.StartMinute
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	if offset >= len(matched) {
		return []*entity.Reservation{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], nil
}

func (r *MemoryReservationRepository) Count(_ context.Context, filter entity.ReservationFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *MemoryReservationRepository) Update(_ context.Context, res *entity.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rows[res.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != res.Version {
		return ErrStaleVersion
	}

	updated := stored.Clone()
	updated.Status = res.Status
	updated.Notes = res.Notes
	updated.GroupID = res.GroupID
	updated.CancellationReason = res.CancellationReason
	updated.CancelledAt = res.CancelledAt
	updated.UpdatedAt = res.UpdatedAt
	updated.Version++
	r.rows[res.ID] = updated.Clone()

	res.Version = updated.Version
	return nil
}

func (r *MemoryReservationRepository) Delete(_ context.Context, id uuid.UUID, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != version || stored.Status != entity.ReservationStatusCancelled {
		return ErrStaleVersion
	}

	delete(r.rows, id)
	r.log.Debug("Reservation deleted", zap.String("reservation_id", id.String()))
	return nil
}

func (r *MemoryReservationRepository) matching(filter entity.ReservationFilter) []*entity.Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*entity.Reservation{}
	for _, res := range r.rows {
		if filter.Matches(res) {
			matched = append(matched, res.Clone())
		}
	}
	return matched
}
