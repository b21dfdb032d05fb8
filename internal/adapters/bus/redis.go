// Package bus carries room frames between gateway processes.
package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis publishes every room frame on a Redis channel and hands frames
// received from the subscription to the local broadcaster, so each process
// reaches its own members of the room.
type Redis struct {
	client *redis.Client
	prefix string
	local  core.Broadcaster

	readyOnce sync.Once
	ready     chan struct{}
}

func NewRedis(client *redis.Client, prefix string, local core.Broadcaster) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		local:  local,
		ready:  make(chan struct{}),
	}
}

func (b *Redis) channel(room domain.RoomID) string {
	return b.prefix + "room:" + string(room)
}

func (b *Redis) Publish(ctx context.Context, room domain.RoomID, f core.Frame) error {
	if err := b.client.Publish(ctx, b.channel(room), []byte(f)).Err(); err != nil {
		// Local members still get the frame; remote ones miss it.
		_ = b.local.Publish(ctx, room, f)
		return fmt.Errorf("bus publish %s: %w", room, err)
	}
	return nil
}

// Ready is closed once the subscription is confirmed by the server.
func (b *Redis) Ready() <-chan struct{} { return b.ready }

// Run delivers subscribed frames until ctx is done.
func (b *Redis) Run(ctx context.Context) error {
	pattern := b.prefix + "room:*"
	sub := b.client.PSubscribe(ctx, pattern)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("bus subscribe %s: %w", pattern, err)
	}
	b.readyOnce.Do(func() { close(b.ready) })
	log.Info().Str("module", "adapters.bus").Str("pattern", pattern).Msg("bus subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "adapters.bus").Msg("bus ctx done")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			room := domain.RoomID(strings.TrimPrefix(msg.Channel, b.prefix+"room:"))
			if err := b.local.Publish(ctx, room, core.Frame(msg.Payload)); err != nil {
				log.Error().Err(err).Str("module", "adapters.bus").Str("room", string(room)).Msg("local delivery failed")
			}
		}
	}
}
