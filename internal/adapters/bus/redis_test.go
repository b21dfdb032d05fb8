package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu     sync.Mutex
	frames map[domain.RoomID][]string
}

func newSink() *sink { return &sink{frames: make(map[domain.RoomID][]string)} }

func (s *sink) Publish(_ context.Context, room domain.RoomID, f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[room] = append(s.frames[room], string(f))
	return nil
}

func (s *sink) get(room domain.RoomID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.frames[room]...)
}

func startBus(t *testing.T, ctx context.Context, addr string, local core.Broadcaster) *Redis {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	b := NewRedis(client, "test:", local)
	go func() { _ = b.Run(ctx) }()
	select {
	case <-b.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("bus did not subscribe")
	}
	return b
}

func TestRedisBus_FansOutAcrossProcesses(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given two gateway processes on one redis
	local1, local2 := newSink(), newSink()
	bus1 := startBus(t, ctx, mr.Addr(), local1)
	startBus(t, ctx, mr.Addr(), local2)

	// When process 1 publishes to r1
	req.NoError(bus1.Publish(ctx, "r1", core.Frame(`{"event":"room:visibility","data":true}`)))

	// Then both deliver it to their local members of r1
	for _, s := range []*sink{local1, local2} {
		s := s
		req.Eventually(func() bool { return len(s.get("r1")) == 1 }, 2*time.Second, 10*time.Millisecond)
		req.Equal(`{"event":"room:visibility","data":true}`, s.get("r1")[0])
		req.Empty(s.get("r2"))
	}
}

func TestRedisBus_PublishFailureFallsBackToLocal(t *testing.T) {
	req := require.New(t)
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	local := newSink()
	b := NewRedis(client, "", local)

	err := b.Publish(context.Background(), "r1", core.Frame("x"))

	req.Error(err)
	req.Equal([]string{"x"}, local.get("r1"))
}
