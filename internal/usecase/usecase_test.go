package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"facility-booking/internal/data/entity"
	"facility-booking/internal/data/repository"
	"facility-booking/pkg/money"
	"facility-booking/pkg/queue"
	"facility-booking/pkg/timeslot"
	"facility-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 2030-06-03 is a Monday.
const testDate = "2030-06-03"

var testNow = time.Date(2030, time.June, 1, 8, 0, 0, 0, time.UTC)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.entries, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) has(eventType string) bool {
	for _, t := range p.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

type fixture struct {
	facility     *entity.Facility
	repo         *repository.Repository
	reservations *reservationService
	availability AvailabilityService
	cache        *memCache
	events       *recordingPublisher
}

// newFixture builds a facility at 100.00/hr, open 06:00-22:00 on weekdays
// and closed on Sundays.
func newFixture(t *testing.T, policy utils.BookingConfig) *fixture {
	t.Helper()

	hours := make(map[time.Weekday]timeslot.Range)
	for d := time.Monday; d <= time.Saturday; d++ {
		hours[d] = timeslot.Range{Start: 6 * 60, End: 22 * 60}
	}
	facility := &entity.Facility{
		ID:             uuid.New(),
		Name:           "Court 1",
		HourlyRate:     money.Cents(10000),
		OperatingHours: hours,
		IsActive:       true,
	}

	log := zap.NewNop()
	repo := repository.NewMemoryRepository([]*entity.Facility{facility}, log)
	cache := newMemCache()
	events := &recordingPublisher{}

	epoch := &CacheEpoch{}
	svc := NewReservationService(repo, policy, cache, epoch, events, log).(*reservationService)
	svc.now = func() time.Time { return testNow }

	return &fixture{
		facility:     facility,
		repo:         repo,
		reservations: svc,
		availability: NewAvailabilityService(repo, cache, epoch, time.Minute, log),
		cache:        cache,
		events:       events,
	}
}

func defaultPolicy() utils.BookingConfig {
	return utils.BookingConfig{
		MinMinutes:    30,
		EnforceHours:  true,
		CommitTimeout: time.Second,
	}
}

func customer() entity.Actor {
	return entity.Actor{ID: uuid.New(), Role: entity.RoleCustomer}
}

func admin() entity.Actor {
	return entity.Actor{ID: uuid.New(), Role: entity.RoleAdmin}
}
