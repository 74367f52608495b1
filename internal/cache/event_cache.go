package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/metrics"
	"github.com/sefazor/festival-backend/internal/models"
)

const keyPrefix = "festival:catalog:"

const (
	keyEventList    = keyPrefix + "events"
	keyMUNEventList = keyPrefix + "mun-events"
)

func eventKey(id uint) string    { return fmt.Sprintf("%sevent:%d", keyPrefix, id) }
func munEventKey(id uint) string { return fmt.Sprintf("%smun-event:%d", keyPrefix, id) }

// EventStore is the catalog store being cached.
type EventStore interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	UpdateEvent(ctx context.Context, id uint, patch models.EventPatch) error
	CreateMUNEvent(ctx context.Context, event *models.MUNEvent) error
	GetMUNEvent(ctx context.Context, id uint) (*models.MUNEvent, error)
	ListMUNEvents(ctx context.Context) ([]models.MUNEvent, error)
	UpdateMUNEvent(ctx context.Context, id uint, patch models.EventPatch) error
}

// EventCache is a read-through Redis cache in front of an EventStore.
// Every write invalidates the affected keys. Redis failures are logged and
// the call falls through to the store.
type EventCache struct {
	next    EventStore
	client  redis.UniversalClient
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewEventCache(next EventStore, client redis.UniversalClient, ttl time.Duration, log *zap.Logger, m *metrics.Metrics) *EventCache {
	return &EventCache{next: next, client: client, ttl: ttl, log: log.Named("event_cache"), metrics: m}
}

func (c *EventCache) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if c.load(ctx, eventKey(id), &event) {
		return &event, nil
	}
	fresh, err := c.next.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, eventKey(id), fresh)
	return fresh, nil
}

func (c *EventCache) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if c.load(ctx, keyEventList, &events) {
		return events, nil
	}
	fresh, err := c.next.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, keyEventList, fresh)
	return fresh, nil
}

func (c *EventCache) GetMUNEvent(ctx context.Context, id uint) (*models.MUNEvent, error) {
	var event models.MUNEvent
	if c.load(ctx, munEventKey(id), &event) {
		return &event, nil
	}
	fresh, err := c.next.GetMUNEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, munEventKey(id), fresh)
	return fresh, nil
}

func (c *EventCache) ListMUNEvents(ctx context.Context) ([]models.MUNEvent, error) {
	var events []models.MUNEvent
	if c.load(ctx, keyMUNEventList, &events) {
		return events, nil
	}
	fresh, err := c.next.ListMUNEvents(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, keyMUNEventList, fresh)
	return fresh, nil
}

func (c *EventCache) CreateEvent(ctx context.Context, event *models.Event) error {
	if err := c.next.CreateEvent(ctx, event); err != nil {
		return err
	}
	c.invalidate(ctx, keyEventList)
	return nil
}

func (c *EventCache) UpdateEvent(ctx context.Context, id uint, patch models.EventPatch) error {
	if err := c.next.UpdateEvent(ctx, id, patch); err != nil {
		return err
	}
	c.invalidate(ctx, keyEventList, eventKey(id))
	return nil
}

func (c *EventCache) CreateMUNEvent(ctx context.Context, event *models.MUNEvent) error {
	if err := c.next.CreateMUNEvent(ctx, event); err != nil {
		return err
	}
	c.invalidate(ctx, keyMUNEventList)
	return nil
}

func (c *EventCache) UpdateMUNEvent(ctx context.Context, id uint, patch models.EventPatch) error {
	if err := c.next.UpdateMUNEvent(ctx, id, patch); err != nil {
		return err
	}
	c.invalidate(ctx, keyMUNEventList, munEventKey(id))
	return nil
}

func (c *EventCache) load(ctx context.Context, key string, dst interface{}) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.metrics.EventCacheLookups.WithLabelValues("miss").Inc()
		return false
	case err != nil:
		c.metrics.EventCacheLookups.WithLabelValues("error").Inc()
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.metrics.EventCacheLookups.WithLabelValues("error").Inc()
		c.log.Warn("cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	c.metrics.EventCacheLookups.WithLabelValues("hit").Inc()
	return true
}

func (c *EventCache) store(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *EventCache) invalidate(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Error("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
