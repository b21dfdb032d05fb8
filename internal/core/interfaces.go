package core

import (
	"context"
	"errors"

	"github.com/dkeye/Rooms/internal/domain"
)

// ErrNotFound is returned by a Store for an absent or expired key.
var ErrNotFound = errors.New("key not found")

// ErrStoreRead marks a Swap that failed before fn could see the current value.
var ErrStoreRead = errors.New("store read failed")

// Store is the shared key/value state. Entries expire on the store's own TTL.
// No locking or transactions are implied.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Swapper is implemented by stores that can apply a read-modify-write
// atomically. fn receives the current value (found=false when absent) and
// returns the value to write; it may be called more than once.
type Swapper interface {
	Swap(ctx context.Context, key string, fn func(old []byte, found bool) ([]byte, error)) ([]byte, error)
}

// Broadcaster fans a frame out to every connection in a room's channel.
type Broadcaster interface {
	Publish(ctx context.Context, room domain.RoomID, f Frame) error
}

// PublishResult reports delivery stats/backpressure for one local fan-out.
type PublishResult struct {
	SendTo  int
	Dropped []domain.ConnID
}
