package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-engine/internal/config"
)

// fakeClock is advanced by hand.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	l.now = clock.now
	return l, clock
}

func TestBucket_TakeAndRefill(t *testing.T) {
	start := time.Unix(0, 0)
	b := newBucket(3, 1, start)

	for i := 0; i < 3; i++ {
		ok, _, _ := b.take(start)
		require.True(t, ok, "request %d", i+1)
	}
	ok, tokens, full := b.take(start)
	assert.False(t, ok)
	assert.Equal(t, 0.0, tokens)
	assert.Equal(t, start.Add(3*time.Second), full)

	ok, _, _ = b.take(start.Add(1500 * time.Millisecond))
	assert.True(t, ok)
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		ok, info := l.Allow("10.0.0.1", "/sources", "GET")
		require.True(t, ok)
		assert.Equal(t, 5, info.Limit)
		assert.Equal(t, 4-i, info.Remaining)
	}

	ok, info := l.Allow("10.0.0.1", "/sources", "GET")
	assert.False(t, ok)
	assert.Equal(t, 12*time.Second, info.RetryAfter)

	// other clients and paths have their own buckets
	ok, _ = l.Allow("10.0.0.2", "/sources", "GET")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1", "/sources/x", "GET")
	assert.True(t, ok)

	clock.advance(13 * time.Second)
	ok, _ = l.Allow("10.0.0.1", "/sources", "GET")
	assert.True(t, ok)
}

func TestLimiter_EndpointTiers(t *testing.T) {
	cfg := DefaultConfig()
	l, _ := newTestLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		ok, info := l.Allow("c", "/personas/generate", "POST")
		require.True(t, ok)
		assert.Equal(t, 20, info.Limit)
	}
	ok, _ := l.Allow("c", "/personas/generate", "POST")
	assert.False(t, ok, "burst of 3 exhausted")

	ok, info := l.Allow("c", "/sources/abc", "DELETE")
	assert.True(t, ok)
	assert.Equal(t, 60, info.Limit)
}

func TestLimiter_Lists(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
		Whitelist:     map[string]bool{"trusted": true},
		Blacklist:     map[string]bool{"banned": true},
	})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("trusted", "/x", "GET")
		assert.True(t, ok)
	}
	ok, _ := l.Allow("banned", "/x", "GET")
	assert.False(t, ok)
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: false, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		ok, info := l.Allow("c", "/x", "GET")
		assert.True(t, ok)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_UnlimitedRoutes(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("c", "/health", "GET")
		assert.True(t, ok)
		ok, _ = l.Allow("c", "/metrics", "GET")
		assert.True(t, ok)
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer l.Stop()

	l.Allow("old", "/x", "GET")
	clock.advance(2 * time.Hour)
	l.Allow("new", "/x", "GET")

	assert.Equal(t, 1, l.evictIdle(clock.now().Add(-IdleTTL)))
	assert.Len(t, l.entries, 1)
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})
	defer l.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/x", "GET"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/sources/", Method: "DELETE", Limit: 1},
		{Path: "/sources/special/", Method: "DELETE", Limit: 2},
		{Path: "/scrape", Method: "POST", Limit: 3},
	}
	tests := []struct {
		path, method string
		want         int
	}{
		{"/scrape", "POST", 3},
		{"/sources/abc", "DELETE", 1},
		{"/sources/special/abc", "DELETE", 2},
		{"/scrape", "GET", -1},
		{"/health", "GET", 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.want < 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Limit)
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.RateLimitConfig{
		Enabled:      true,
		DefaultLimit: 7,
		Whitelist:    []string{"127.0.0.1", ""},
	})
	assert.Equal(t, 7, cfg.DefaultLimit)
	assert.Equal(t, map[string]bool{"127.0.0.1": true}, cfg.Whitelist)
	assert.NotEmpty(t, cfg.EndpointConfigs)
}
