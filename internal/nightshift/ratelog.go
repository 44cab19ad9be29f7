package nightshift

import (
	"log"
	"sync"
	"time"
)

// rateLimitedLogger drops messages arriving within interval of the last
// printed one. Location failures are retried on every call, so their
// warning would otherwise flood the log.
type rateLimitedLogger struct {
	mu       sync.Mutex
	lastAt   time.Time
	interval time.Duration
	now      func() time.Time
	printf   func(format string, args ...any)
}

func newRateLimitedLogger(interval time.Duration) *rateLimitedLogger {
	return &rateLimitedLogger{interval: interval, now: time.Now, printf: log.Printf}
}

func (l *rateLimitedLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if !l.lastAt.IsZero() && now.Sub(l.lastAt) < l.interval {
		return
	}
	l.lastAt = now
	l.printf(format, args...)
}
