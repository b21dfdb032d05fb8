package signal

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoomRateLimiter_SlidingWindow(t *testing.T) {
	req := require.New(t)
	rl := NewRoomRateLimiter(3, time.Second)
	now := time.Now()
	rl.now = func() time.Time { return now }

	// Given three events inside the window
	for i := 0; i < 3; i++ {
		req.True(rl.Allow("A"))
	}

	// Then the fourth is refused while another connection is unaffected
	req.False(rl.Allow("A"))
	req.True(rl.Allow("B"))

	// And the window slides
	now = now.Add(1100 * time.Millisecond)
	req.True(rl.Allow("A"))
}

func TestRoomRateLimiter_Forget(t *testing.T) {
	req := require.New(t)
	rl := NewRoomRateLimiter(1, time.Minute)

	req.True(rl.Allow("A"))
	req.False(rl.Allow("A"))

	rl.Forget("A")
	req.True(rl.Allow("A"))
}

func TestCheckOrigin(t *testing.T) {
	req := require.New(t)
	open := NewSignalWSController(nil, Options{})
	strict := NewSignalWSController(nil, Options{AllowedOrigins: []string{"https://poker.example.com"}})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	req.True(open.checkOrigin(r))
	req.False(strict.checkOrigin(r))

	r.Header.Set("Origin", "https://poker.example.com")
	req.True(strict.checkOrigin(r))
}
