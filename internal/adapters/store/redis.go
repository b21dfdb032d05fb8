package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Rooms/internal/core"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxSwapAttempts = 16

var ErrSwapContention = errors.New("swap: too many concurrent writers")

// Redis keeps room state in a Redis instance shared by every gateway process.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Dial connects and pings the server before handing the client out.
func Dial(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("module", "adapters.store").Str("addr", opts.Addr).Msg("redis connection established")
	return rdb, nil
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Swap is an optimistic WATCH/MULTI loop. A write by another process between
// the read and EXEC aborts the transaction and fn is re-run on the new value.
func (r *Redis) Swap(ctx context.Context, key string, fn func(old []byte, found bool) ([]byte, error)) ([]byte, error) {
	k := r.key(key)
	var next []byte
	txf := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, k).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			found, err = false, nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrStoreRead, err)
		}
		next, err = fn(old, found)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, r.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, k)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			log.Debug().Str("module", "adapters.store").Str("key", key).Int("attempt", attempt).Msg("swap conflict, retrying")
			continue
		}
		return nil, fmt.Errorf("redis swap %s: %w", key, err)
	}
	return nil, ErrSwapContention
}
