package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minIdleTTL is the shortest time a key is remembered after its last request
const minIdleTTL = time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process token bucket per key, used when redis is
// disabled. Limits are not shared between server instances. Keys idle for
// longer than it takes their bucket to refill are swept.
type LocalLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter allows requestsPerMinute per key on average with bursts
// of up to burst extra requests
func NewLocalLimiter(requestsPerMinute, burst int) *LocalLimiter {
	l := &LocalLimiter{
		entries: make(map[string]*limiterEntry),
		every:   rate.Limit(float64(requestsPerMinute) / 60),
		burst:   requestsPerMinute/60 + burst + 1,
		idleTTL: minIdleTTL,
		now:     time.Now,
	}
	if l.every > 0 {
		if refill := time.Duration(float64(l.burst) / float64(l.every) * float64(time.Second)); refill > l.idleTTL {
			l.idleTTL = refill
		}
	}
	l.lastSweep = l.now()
	return l
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{lim: rate.NewLimiter(l.every, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.lim.AllowN(now, 1)
	tokens := entry.lim.TokensAt(now)
	l.mu.Unlock()

	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	reset := now
	if l.every > 0 {
		missing := float64(l.burst) - tokens
		reset = now.Add(time.Duration(missing / float64(l.every) * float64(time.Second)))
	}

	return allowed, remaining, reset, nil
}

// sweep drops keys that have been idle for idleTTL. Callers hold mu.
func (l *LocalLimiter) sweep(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}

func (l *LocalLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
