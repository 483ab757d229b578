package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// harness wires a store to a controllable clock. advance moves both the
// store's clock and, for Redis, the server's TTLs.
type harness struct {
	store   Store
	clock   *clock
	advance func(time.Duration)
}

func memoryHarness(t *testing.T) harness {
	c := &clock{now: time.Now()}
	m := NewMemoryStore()
	m.now = c.Now
	return harness{store: m, clock: c, advance: c.Add}
}

func redisHarness(t *testing.T) harness {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := &clock{now: time.Now()}
	r := NewRedisStore(client, "registration:")
	r.now = c.Now
	return harness{store: r, clock: c, advance: func(d time.Duration) {
		c.Add(d)
		mr.FastForward(d)
	}}
}

func newSession(h harness, id string) *model.RegistrationSession {
	now := h.clock.Now()
	return &model.RegistrationSession{
		TempID:    id,
		Step1:     model.Step1Data{Name: "Dr. A", Email: "a@x.com", Phone: "9876543210", Gender: "Male", Age: 40, Location: "Pune"},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, h harness)) {
	t.Run("memory", func(t *testing.T) { fn(t, memoryHarness(t)) })
	t.Run("redis", func(t *testing.T) { fn(t, redisHarness(t)) })
}

func TestStore_CreateGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		s := newSession(h, "temp_1")
		require.NoError(t, h.store.Create(ctx, s))

		got, err := h.store.Get(ctx, "temp_1")
		require.NoError(t, err)
		assert.Equal(t, s.Step1, got.Step1)
		assert.Equal(t, s.TempID, got.TempID)
		assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

		assert.ErrorIs(t, h.store.Create(ctx, s), ErrExists)

		_, err = h.store.Get(ctx, "temp_missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_TakeIsAtMostOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		require.NoError(t, h.store.Create(ctx, newSession(h, "temp_1")))

		var (
			wg      sync.WaitGroup
			winners int32
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := h.store.Take(ctx, "temp_1"); err == nil {
					atomic.AddInt32(&winners, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), winners)
		_, err := h.store.Get(ctx, "temp_1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_RestoreKeepsExpiry(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		require.NoError(t, h.store.Create(ctx, newSession(h, "temp_1")))

		taken, err := h.store.Take(ctx, "temp_1")
		require.NoError(t, err)

		h.advance(30 * time.Minute)
		require.NoError(t, h.store.Restore(ctx, taken))

		got, err := h.store.Get(ctx, "temp_1")
		require.NoError(t, err)
		assert.True(t, taken.ExpiresAt.Equal(got.ExpiresAt))

		h.advance(31 * time.Minute)
		_, err = h.store.Get(ctx, "temp_1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_RestoreAfterExpiry(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		require.NoError(t, h.store.Create(ctx, newSession(h, "temp_1")))

		taken, err := h.store.Take(ctx, "temp_1")
		require.NoError(t, err)

		h.advance(2 * time.Hour)
		assert.ErrorIs(t, h.store.Restore(ctx, taken), ErrNotFound)
	})
}

func TestStore_AttachImage(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		require.NoError(t, h.store.Create(ctx, newSession(h, "temp_1")))

		require.NoError(t, h.store.AttachImage(ctx, "temp_1", "uploads/doctors/1.png"))
		got, err := h.store.Get(ctx, "temp_1")
		require.NoError(t, err)
		assert.Equal(t, "uploads/doctors/1.png", got.ImagePath)

		_, err = h.store.Take(ctx, "temp_1")
		require.NoError(t, err)

		assert.ErrorIs(t, h.store.AttachImage(ctx, "temp_1", "uploads/doctors/2.png"), ErrNotFound)
		_, err = h.store.Get(ctx, "temp_1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_Delete(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		require.NoError(t, h.store.Create(ctx, newSession(h, "temp_1")))

		require.NoError(t, h.store.Delete(ctx, "temp_1"))
		assert.ErrorIs(t, h.store.Delete(ctx, "temp_1"), ErrNotFound)

		_, err := h.store.Take(ctx, "temp_1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_ExpiredIsInvisible(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		require.NoError(t, h.store.Create(ctx, newSession(h, "temp_1")))

		h.advance(time.Hour + time.Second)

		_, err := h.store.Get(ctx, "temp_1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = h.store.Take(ctx, "temp_1")
		assert.ErrorIs(t, err, ErrNotFound)

		list, err := h.store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestStore_List(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, h.store.Create(ctx, newSession(h, fmt.Sprintf("temp_%d", i))))
			h.advance(time.Second)
		}

		list, err := h.store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "temp_0", list[0].TempID)
		assert.Equal(t, "temp_2", list[2].TempID)
	})
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	h := memoryHarness(t)
	ctx := context.Background()

	require.NoError(t, h.store.Create(ctx, newSession(h, "temp_old")))
	h.advance(45 * time.Minute)
	require.NoError(t, h.store.Create(ctx, newSession(h, "temp_new")))
	h.advance(20 * time.Minute)

	n, err := h.store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = h.store.Get(ctx, "temp_new")
	assert.NoError(t, err)

	n, err = h.store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisStore_KeyAndTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "registration:")

	now := time.Now()
	s := &model.RegistrationSession{TempID: "temp_1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Create(context.Background(), s))

	assert.True(t, mr.Exists("registration:temp_1"))
	ttl := mr.TTL("registration:temp_1")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, ttl)

	require.NoError(t, store.AttachImage(context.Background(), "temp_1", "uploads/doctors/x.png"))
	assert.True(t, mr.TTL("registration:temp_1") > 59*time.Minute)

	n, err := store.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
