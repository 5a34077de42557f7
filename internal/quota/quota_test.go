package quota

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb), mr
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestGateAdmitsUntilLimitThenDenies(t *testing.T) {
	store, _ := newTestStore(t)
	gate := NewGate(store, quietLogger())
	ctx := context.Background()
	id := Identity{RateKey: "203.0.113.9"}

	const limit = 5
	for i := 0; i < limit; i++ {
		d := gate.Admit(ctx, id, limit)
		require.True(t, d.Admitted, "request %d should be admitted", i+1)
		assert.Equal(t, i, d.Usage)
		gate.Record(ctx, id, d.Usage)
	}

	d := gate.Admit(ctx, id, limit)
	assert.False(t, d.Admitted)
	assert.Equal(t, limit, d.Usage)
	assert.Equal(t, limit, d.Limit)
}

func TestDenialDoesNotConsumeQuota(t *testing.T) {
	store, _ := newTestStore(t)
	gate := NewGate(store, quietLogger())
	ctx := context.Background()
	id := Identity{RateKey: "203.0.113.9"}

	require.NoError(t, store.SetUsage(ctx, id.RateKey, Today(), 3))
	for i := 0; i < 4; i++ {
		d := gate.Admit(ctx, id, 3)
		assert.False(t, d.Admitted)
	}
	usage, err := store.Usage(ctx, id.RateKey, Today())
	require.NoError(t, err)
	assert.Equal(t, 3, usage)
}

func TestCounterIsScopedToDay(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetUsage(ctx, "1.2.3.4", "2026-08-31", 19))

	usage, err := store.Usage(ctx, "1.2.3.4", "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, 0, usage, "a new day starts from zero")
}

func TestCounterExpiresAfter24h(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	day := Today()

	require.NoError(t, store.SetUsage(ctx, "1.2.3.4", day, 7))
	mr.FastForward(25 * time.Hour)

	usage, err := store.Usage(ctx, "1.2.3.4", day)
	require.NoError(t, err)
	assert.Equal(t, 0, usage)
}

func TestGateFailsOpenWhenStoreDown(t *testing.T) {
	store, mr := newTestStore(t)
	gate := NewGate(store, quietLogger())
	mr.Close()

	d := gate.Admit(context.Background(), Identity{RateKey: "1.2.3.4"}, 20)
	assert.True(t, d.Admitted)
	assert.Equal(t, 0, d.Usage)

	// Recording against a dead store must not panic or error out.
	gate.Record(context.Background(), Identity{RateKey: "1.2.3.4"}, 0)
}

func TestResolverProCredential(t *testing.T) {
	store, mr := newTestStore(t)
	resolver := NewResolver(store)
	ctx := context.Background()

	require.NoError(t, mr.Set("pro:abc123", "1"))

	id := resolver.Resolve(ctx, "abc123", "198.51.100.7")
	assert.True(t, id.Elevated)
	assert.Equal(t, "key:abc123", id.RateKey)

	id = resolver.Resolve(ctx, "not-a-key", "198.51.100.7")
	assert.False(t, id.Elevated)
	assert.Equal(t, "198.51.100.7", id.RateKey)

	id = resolver.Resolve(ctx, "", "")
	assert.False(t, id.Elevated)
	assert.Equal(t, "unknown", id.RateKey)
}

func TestResolverStoreDownDowngradesToFree(t *testing.T) {
	store, mr := newTestStore(t)
	resolver := NewResolver(store)
	require.NoError(t, mr.Set("pro:abc123", "1"))
	mr.Close()

	id := resolver.Resolve(context.Background(), "abc123", "198.51.100.7")
	assert.False(t, id.Elevated)
	assert.Equal(t, "198.51.100.7", id.RateKey)
}
