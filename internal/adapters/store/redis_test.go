package store

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkeye/Rooms/internal/core"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, prefix string) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, prefix, time.Hour), mr
}

func TestRedis_GetSetDelete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r, mr := newTestRedis(t, "rooms:")

	_, err := r.Get(ctx, "r1")
	req.ErrorIs(err, core.ErrNotFound)

	req.NoError(r.Set(ctx, "r1", []byte(`[{"clientId":"A","value":5}]`)))
	v, err := r.Get(ctx, "r1")
	req.NoError(err)
	req.JSONEq(`[{"clientId":"A","value":5}]`, string(v))

	// keys are prefixed and carry the ttl
	req.True(mr.Exists("rooms:r1"))
	req.Equal(time.Hour, mr.TTL("rooms:r1"))

	req.NoError(r.Delete(ctx, "r1"))
	_, err = r.Get(ctx, "r1")
	req.ErrorIs(err, core.ErrNotFound)
}

func TestRedis_Expiry(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r, mr := newTestRedis(t, "")

	req.NoError(r.Set(ctx, "conn", []byte("r1")))
	mr.FastForward(time.Hour + time.Second)

	_, err := r.Get(ctx, "conn")
	req.ErrorIs(err, core.ErrNotFound)
}

func TestRedis_SwapMarksReadFailures(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r, mr := newTestRedis(t, "")

	// Given a key holding a list, so GET fails with WRONGTYPE
	_, err := mr.Lpush("list", "x")
	req.NoError(err)

	called := false
	_, err = r.Swap(ctx, "list", func([]byte, bool) ([]byte, error) {
		called = true
		return []byte("1"), nil
	})

	req.ErrorIs(err, core.ErrStoreRead)
	req.False(called)
}

func TestRedis_SwapConcurrentWriters(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r, _ := newTestRedis(t, "")

	incr := func(old []byte, found bool) ([]byte, error) {
		n := 0
		if found {
			n, _ = strconv.Atoi(string(old))
		}
		return []byte(strconv.Itoa(n + 1)), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := r.Swap(ctx, "counter", incr)
				req.NoError(err)
			}
		}()
	}
	wg.Wait()

	v, err := r.Get(ctx, "counter")
	req.NoError(err)
	req.Equal("20", string(v))
}

func TestRedis_PingAndFailure(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r, _ := newTestRedis(t, "")
	req.NoError(r.Ping(ctx))

	// Given a server that refuses connections
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	down := NewRedis(client, "", time.Hour)

	// Then errors are not mistaken for absent keys
	_, err := down.Get(ctx, "r1")
	req.Error(err)
	req.NotErrorIs(err, core.ErrNotFound)
	req.Error(down.Ping(ctx))
}
