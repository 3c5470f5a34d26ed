package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps request timestamps per key in process memory. State is
// lost on restart.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return newMemoryLimiter(policy, time.Now, true)
}

func newMemoryLimiter(policy Policy, now func() time.Time, cleanup bool) *MemoryLimiter {
	l := &MemoryLimiter{
		policy:      policy,
		now:         now,
		windows:     make(map[string][]time.Time),
		stopCleanup: make(chan struct{}),
	}

	if cleanup {
		l.wg.Add(1)
		go l.cleanupLoop()
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	valid := prune(l.windows[key], now, l.policy.Window)
	if len(valid) >= l.policy.Max {
		l.windows[key] = valid
		return false, nil
	}

	l.windows[key] = append(valid, now)
	return true, nil
}

// prune drops timestamps that are a full window or more behind now.
func prune(times []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(times) && now.Sub(times[i]) >= window {
		i++
	}
	return times[i:]
}

func (l *MemoryLimiter) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.policy.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stopCleanup:
			return
		}
	}
}

// evictIdle forgets keys with no requests inside the window.
func (l *MemoryLimiter) evictIdle() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, times := range l.windows {
		if len(prune(times, now, l.policy.Window)) == 0 {
			delete(l.windows, key)
		}
	}
}

func (l *MemoryLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
	l.wg.Wait()
}
