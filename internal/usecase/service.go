package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"facility-booking/internal/data/repository"
	"facility-booking/pkg/queue"
	"facility-booking/pkg/utils"

	"go.uber.org/zap"
)

// Cache is the advisory read cache in front of availability queries.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher receives reservation state changes after they commit.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.ReservationEvent) error
}

// CacheEpoch counts availability invalidations made by this process. A read
// that started under an older epoch does not write its result back, so a
// lookup racing a create or cancel cannot re-cache the pre-write view. Other
// replicas do not share the epoch; their stale entries live until the TTL.
type CacheEpoch struct {
	n atomic.Uint64
}

func (e *CacheEpoch) current() uint64 { return e.n.Load() }
func (e *CacheEpoch) bump()           { e.n.Add(1) }

type Service struct {
	Availability AvailabilityService
	Reservation  ReservationService
}

func NewService(repo *repository.Repository, config *utils.Config, cache Cache, events EventPublisher, log *zap.Logger) *Service {
	epoch := &CacheEpoch{}
	return &Service{
		Availability: NewAvailabilityService(repo, cache, epoch, config.Redis.CacheTTL, log),
		Reservation:  NewReservationService(repo, config.Booking, cache, epoch, events, log),
	}
}
