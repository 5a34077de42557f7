// Package quota implements the daily usage gate: caller identity
// resolution, the redis-backed counter store, and the admit/record logic.
package quota

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/uniplaces/carbon"
)

// recordTTL is the absolute expiry applied on every counter write. Old day
// keys age out on their own; a counter is never read across a day boundary
// because the day is part of the key.
const recordTTL = 24 * time.Hour

// Store holds per-(rateKey, day) usage counters and pro credentials in
// redis. Counters are plain string integers written with SET+TTL; the
// read-then-write sequence in the gate is intentionally not atomic (see
// Gate). If exact accounting is ever required, switch to INCR and read the
// post-increment value instead.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Today returns the current UTC calendar date, the day component of every
// counter key.
func Today() string {
	return carbon.NewCarbon(time.Now().UTC()).DateString()
}

func usageKey(rateKey, day string) string {
	return "usage:" + rateKey + ":" + day
}

// Usage returns the admitted-request count for (rateKey, day). A missing
// key is zero usage, not an error.
func (s *Store) Usage(ctx context.Context, rateKey, day string) (int, error) {
	val, err := s.rdb.Get(ctx, usageKey(rateKey, day)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// SetUsage overwrites the counter for (rateKey, day), refreshing the 24h
// expiry from this write.
func (s *Store) SetUsage(ctx context.Context, rateKey, day string, count int) error {
	return s.rdb.Set(ctx, usageKey(rateKey, day), strconv.Itoa(count), recordTTL).Err()
}

// IsPro reports whether key is a known pro credential. Store errors read
// as not-pro: an unreachable store downgrades the caller to the free tier
// rather than failing the request.
func (s *Store) IsPro(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	val, err := s.rdb.Get(ctx, "pro:"+key).Result()
	return err == nil && val != ""
}
