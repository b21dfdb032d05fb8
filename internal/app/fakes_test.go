package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Rooms/internal/adapters/store"
	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
)

var errStoreDown = errors.New("store down")

type published struct {
	Room  domain.RoomID
	Event string
	Data  json.RawMessage
}

// recorder is a core.Broadcaster that keeps every frame.
type recorder struct {
	mu     sync.Mutex
	frames []published
}

func (r *recorder) Publish(_ context.Context, room domain.RoomID, f core.Frame) error {
	env, err := core.Decode(f)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, published{Room: room, Event: env.Event, Data: env.Data})
	return nil
}

func (r *recorder) last(event string) (published, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i].Event == event {
			return r.frames[i], true
		}
	}
	return published{}, false
}

func (r *recorder) countOf(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.frames {
		if p.Event == event {
			n++
		}
	}
	return n
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) lastVotes() domain.Votes {
	p, ok := r.last(core.EventVotes)
	if !ok {
		return nil
	}
	var v domain.Votes
	_ = json.Unmarshal(p.Data, &v)
	return v
}

func (r *recorder) lastVisibility() (bool, bool) {
	p, ok := r.last(core.EventVisibility)
	if !ok {
		return false, false
	}
	var v bool
	_ = json.Unmarshal(p.Data, &v)
	return v, true
}

func (r *recorder) lastUsers() []domain.ConnID {
	p, ok := r.last(core.EventUsers)
	if !ok {
		return nil
	}
	var v []domain.ConnID
	_ = json.Unmarshal(p.Data, &v)
	return v
}

// mapStore is a plain core.Store without Swap, so Rooms falls back to its
// own get/set sequence.
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
	// readFail fails only Get.
	readFail bool
}

func newMapStore() *mapStore { return &mapStore{data: make(map[string][]byte)} }

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail || s.readFail {
		return nil, errStoreDown
	}
	v, ok := s.data[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.data[key] = value
	return nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	delete(s.data, key)
	return nil
}

func (s *mapStore) Ping(context.Context) error {
	if s.fail {
		return errStoreDown
	}
	return nil
}

func (s *mapStore) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

// fakeConn is a core.SignalConnection with an optional full buffer.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// pausingStore blocks the first Get of key until release is closed.
type pausingStore struct {
	*store.Memory
	key     string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newPausingStore(key string) *pausingStore {
	return &pausingStore{
		Memory:  store.NewMemory(time.Hour),
		key:     key,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *pausingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == s.key {
		s.once.Do(func() {
			close(s.entered)
			<-s.release
		})
	}
	return s.Memory.Get(ctx, key)
}

// failingSwapStore reads and writes fine but every Swap commit fails.
type failingSwapStore struct {
	*store.Memory
}

func (s failingSwapStore) Swap(context.Context, string, func([]byte, bool) ([]byte, error)) ([]byte, error) {
	return nil, errStoreDown
}
