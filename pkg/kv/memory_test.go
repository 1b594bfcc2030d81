package kv_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/pkg/kv"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemory_GetPutDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemory()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, store.Put(ctx, "a", []byte("1"), 0))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, store.Put(ctx, "a", []byte("2"), 0))
	got, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "never-existed"))
}

func TestMemory_EmptyKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemory()

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, kv.ErrEmptyKey)
	assert.ErrorIs(t, store.Put(ctx, "", []byte("x"), 0), kv.ErrEmptyKey)
	assert.ErrorIs(t, store.Delete(ctx, ""), kv.ErrEmptyKey)
}

func TestMemory_ValueIsCopied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemory()

	value := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[1] = 'z'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemory_TTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := kv.NewMemory(kv.WithClock(clock.Now))

	require.NoError(t, store.Put(ctx, "session:1", []byte("x"), time.Hour))
	require.NoError(t, store.Put(ctx, "session:2", []byte("y"), 0))

	clock.Advance(59 * time.Minute)
	_, err := store.Get(ctx, "session:1")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = store.Get(ctx, "session:1")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	keys, err := store.List(ctx, "session:")
	require.NoError(t, err)
	assert.Equal(t, []string{"session:2"}, keys)
}

func TestMemory_ExpiredGetKeepsConcurrentPut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	var (
		store   *kv.Memory
		rewrite atomic.Bool
	)
	// The first clock read in Get happens between its read and write locks;
	// writing the key there reproduces a Put racing the lazy delete.
	store = kv.NewMemory(kv.WithClock(func() time.Time {
		if rewrite.CompareAndSwap(true, false) {
			require.NoError(t, store.Put(ctx, "session:1", []byte("fresh"), 0))
		}
		return clock.Now()
	}))

	require.NoError(t, store.Put(ctx, "session:1", []byte("stale"), time.Hour))
	clock.Advance(2 * time.Hour)

	rewrite.Store(true)
	_, err := store.Get(ctx, "session:1")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	got, err := store.Get(ctx, "session:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), got)
}

func TestMemory_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemory()

	for _, k := range []string{"subscriber:b", "subscriber:a", "subscriber_count", "session:x"} {
		require.NoError(t, store.Put(ctx, k, []byte("v"), 0))
	}

	keys, err := store.List(ctx, "subscriber:")
	require.NoError(t, err)
	assert.Equal(t, []string{"subscriber:a", "subscriber:b"}, keys)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestJSONHelpers(t *testing.T) {
	t.Parallel()

	type record struct {
		Email string `json:"email"`
		N     int    `json:"n"`
	}

	ctx := context.Background()
	store := kv.NewMemory()

	require.NoError(t, kv.PutJSON(ctx, store, "r", record{Email: "a@example.com", N: 3}, 0))

	var got record
	require.NoError(t, kv.GetJSON(ctx, store, "r", &got))
	assert.Equal(t, record{Email: "a@example.com", N: 3}, got)

	err := kv.GetJSON(ctx, store, "missing", &got)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

type failingPinger struct {
	*kv.Memory
	err error
}

func (f failingPinger) Ping(context.Context) error { return f.err }

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	assert.NoError(t, kv.Healthcheck(kv.NewMemory())(ctx))
	assert.ErrorIs(t, kv.Healthcheck(nil)(ctx), kv.ErrUnavailable)

	down := failingPinger{Memory: kv.NewMemory(), err: assert.AnError}
	err := kv.Healthcheck(down)(ctx)
	assert.ErrorIs(t, err, kv.ErrUnavailable)
	assert.ErrorIs(t, err, assert.AnError)
}
