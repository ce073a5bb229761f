// Package ratelimit paces outbound navigation requests. Each scan worker
// owns one Limiter; the only cross-worker state is the optional shared
// daily-budget ledger.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"market-scanner/config"
	"market-scanner/utils"
)

// Limiter enforces a rolling per-window request ceiling and a minimum
// inter-request delay. Acquire blocks until a slot is available.
type Limiter struct {
	mu           sync.Mutex
	maxPerWindow int
	minDelay     time.Duration
	window       time.Duration

	requests    int
	windowStart time.Time
	lastRequest time.Time
	hits        int

	budget *DailyBudget
	log    zerolog.Logger
}

// New builds a Limiter over a one-minute rolling window. budget may be nil.
func New(cfg config.RateLimitConfig, budget *DailyBudget, log zerolog.Logger) *Limiter {
	return newWithWindow(cfg.RequestsPerMinute,
		time.Duration(cfg.PauseBetweenMs)*time.Millisecond,
		time.Minute, budget, log)
}

func newWithWindow(maxPerWindow int, minDelay, window time.Duration, budget *DailyBudget, log zerolog.Logger) *Limiter {
	if maxPerWindow < 1 {
		maxPerWindow = 1
	}
	return &Limiter{
		maxPerWindow: maxPerWindow,
		minDelay:     minDelay,
		window:       window,
		windowStart:  time.Now(),
		budget:       budget,
		log:          log,
	}
}

// Acquire blocks the caller until a request slot is available. The waits are
// bounded by the window length and honour ctx cancellation. Waiting here is
// backpressure, not an error; only budget exhaustion or cancellation fail.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.windowStart) >= l.window {
		l.requests = 0
		l.windowStart = now
	}

	if l.requests >= l.maxPerWindow {
		wait := l.window - now.Sub(l.windowStart)
		l.hits++
		l.log.Debug().Dur("wait", wait).Msg("rate limit window exhausted, pausing")
		if err := utils.SleepCtx(ctx, wait); err != nil {
			return err
		}
		l.requests = 0
		l.windowStart = time.Now()
	}

	if !l.lastRequest.IsZero() {
		if since := time.Since(l.lastRequest); since < l.minDelay {
			if err := utils.SleepCtx(ctx, l.minDelay-since); err != nil {
				return err
			}
		}
	}

	if l.budget != nil {
		if err := l.budget.Consume(); err != nil {
			return err
		}
	}

	l.requests++
	l.lastRequest = time.Now()
	return nil
}

// Hits returns how many times the window cap forced a wait.
func (l *Limiter) Hits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hits
}
