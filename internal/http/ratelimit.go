package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SubscriberRateLimiter keeps one token bucket per subscriber. Every turn
// arrives from the gateway's address, so the key is the MSISDN.
type SubscriberRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	idle     time.Duration
	swept    time.Time
	now      func() time.Time
}

func NewSubscriberRateLimiter(rps float64, burst int) *SubscriberRateLimiter {
	return &SubscriberRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     3 * time.Minute,
		now:      time.Now,
	}
}

func (l *SubscriberRateLimiter) Allow(subscriber string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) > time.Minute {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, key)
			}
		}
		l.swept = now
	}

	v, ok := l.visitors[subscriber]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[subscriber] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
