package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int64
}

// MemoryLimiter keeps windows in process memory. Counts are not shared
// across instances.
type MemoryLimiter struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewMemoryLimiter returns a limiter with the given window (DefaultWindow if <= 0).
func NewMemoryLimiter(win time.Duration) *MemoryLimiter {
	if win <= 0 {
		win = DefaultWindow
	}
	return &MemoryLimiter{
		window:  win,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// WithClock overrides the time source.
func (m *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	m.now = now
	return m
}

func (m *MemoryLimiter) Allow(_ context.Context, keyID string, quota int) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[keyID]
	if !ok || now.Sub(w.start) >= m.window {
		w = &window{start: now}
		m.windows[keyID] = w
	}
	// Stop counting once over quota so the counter cannot grow without bound.
	if w.count <= int64(quota) {
		w.count++
	}
	return decide(w.count, quota, w.start.Add(m.window).Sub(now)), nil
}

// Sweep drops windows that have fully elapsed.
func (m *MemoryLimiter) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, w := range m.windows {
		if now.Sub(w.start) >= m.window {
			delete(m.windows, k)
			removed++
		}
	}
	return removed
}

// Run sweeps expired windows every interval until ctx is done.
func (m *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
