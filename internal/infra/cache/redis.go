package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "avail"

// minGenerationTTL is the floor for how long an idle employee-day remembers its
// generation. The counter's TTL is refreshed on every write and stays above the grid TTL.
const minGenerationTTL = 24 * time.Hour

var errStaleGeneration = errors.New("slot cache generation moved")

// RedisSlotCache stores one key per (employee, day, generation, service) next
// to a generation counter per employee-day. Invalidate bumps the counter, which
// orphans every grid of that day at once; orphans age out on their own TTL.
type RedisSlotCache struct {
	rdb           *redis.Client
	ttl           time.Duration
	generationTTL time.Duration
	logger        *slog.Logger
}

func NewRedisSlotCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisSlotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisSlotCache{
		rdb:           rdb,
		ttl:           ttl,
		generationTTL: max(minGenerationTTL, 2*ttl),
		logger:        logger,
	}
}

type cachedSlot struct {
	Start     int  `json:"s"`
	End       int  `json:"e"`
	Available bool `json:"a"`
}

func GenerationKey(employeeID uuid.UUID, date schedule.Date) string {
	return keyPrefix + ":" + employeeID.String() + ":" + date.String() + ":gen"
}

func GridKey(employeeID uuid.UUID, date schedule.Date, generation int64, serviceID uuid.UUID) string {
	return keyPrefix + ":" + employeeID.String() + ":" + date.String() + ":" +
		strconv.FormatInt(generation, 10) + ":" + serviceID.String()
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, r getter, key string) (int64, error) {
	gen, err := r.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisSlotCache) Get(ctx context.Context, employeeID uuid.UUID, date schedule.Date, serviceID uuid.UUID) ([]schedule.Slot, int64, bool) {
	gen, err := readGeneration(ctx, c.rdb, GenerationKey(employeeID, date))
	if err != nil {
		c.logger.Warn("slot cache read failed", "employee_id", employeeID.String(), "date", date.String(), "error", err)
		return nil, -1, false
	}

	key := GridKey(employeeID, date, gen, serviceID)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("slot cache read failed", "key", key, "error", err)
			return nil, -1, false
		}
		return nil, gen, false
	}

	var stored []cachedSlot
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.logger.Warn("discarding corrupt slot cache entry", "key", key, "error", err)
		return nil, gen, false
	}
	slots := make([]schedule.Slot, len(stored))
	for i, s := range stored {
		slots[i] = schedule.Slot{
			Start:     schedule.TimeOfDay(s.Start),
			End:       schedule.TimeOfDay(s.End),
			Available: s.Available,
		}
	}
	return slots, gen, true
}

// Set writes the grid under WATCH on the generation key, so an Invalidate
// landing between the caller's Get and this write aborts it.
func (c *RedisSlotCache) Set(ctx context.Context, employeeID uuid.UUID, date schedule.Date, serviceID uuid.UUID, generation int64, slots []schedule.Slot) {
	if generation < 0 {
		return
	}
	stored := make([]cachedSlot, len(slots))
	for i, s := range slots {
		stored[i] = cachedSlot{Start: s.Start.Minutes(), End: s.End.Minutes(), Available: s.Available}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return
	}

	genKey := GenerationKey(employeeID, date)
	key := GridKey(employeeID, date, generation, serviceID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			pipe.Expire(ctx, genKey, c.generationTTL)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("dropping grid computed before invalidation", "key", key)
	default:
		c.logger.Warn("slot cache write failed", "key", key, "error", err)
	}
}

func (c *RedisSlotCache) Invalidate(ctx context.Context, employeeID uuid.UUID, date schedule.Date) {
	genKey := GenerationKey(employeeID, date)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, c.generationTTL)
		return nil
	})
	if err != nil {
		c.logger.Warn("slot cache invalidation failed", "key", genKey, "error", err)
	}
}

// NopSlotCache is used when no Redis address is configured.
type NopSlotCache struct{}

func (NopSlotCache) Get(context.Context, uuid.UUID, schedule.Date, uuid.UUID) ([]schedule.Slot, int64, bool) {
	return nil, -1, false
}
func (NopSlotCache) Set(context.Context, uuid.UUID, schedule.Date, uuid.UUID, int64, []schedule.Slot) {}
func (NopSlotCache) Invalidate(context.Context, uuid.UUID, schedule.Date) {}

var (
	_ shared.SlotCache = (*RedisSlotCache)(nil)
	_ shared.SlotCache = NopSlotCache{}
)
