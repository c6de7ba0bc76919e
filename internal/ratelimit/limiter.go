package ratelimit

import (
	"context"
	"os"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different external endpoints we interact with
type API string

const (
	// APIChart represents the daily-history chart endpoint
	APIChart API = "chart"
	// APIListing represents the symbol-listing endpoint
	APIListing API = "listing"
	// APIResend represents the Resend email API
	APIResend API = "resend"
)

// Limiter manages rate limits for different APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

var (
	instance *Limiter
	once     sync.Once
)

// GetLimiter returns the singleton rate limiter instance
func GetLimiter() *Limiter {
	once.Do(func() {
		instance = &Limiter{
			limiters: make(map[API]*rate.Limiter),
		}
		instance.initLimiters()
	})
	return instance
}

// initLimiters initializes rate limiters for each API with conservative defaults
func (l *Limiter) initLimiters() {
	// In test mode, use unlimited rate limits to avoid slowing down tests
	if os.Getenv("GO_TESTING") == "1" || isTestMode() {
		l.limiters[APIChart] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APIListing] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APIResend] = rate.NewLimiter(rate.Inf, 1)
		return
	}

	// Production rate limits
	// Chart endpoint: unofficial and quick to block scrapers. 2 requests per
	// second across the whole pool, on top of the per-worker jitter, stays
	// well under the observed blocking threshold.
	l.limiters[APIChart] = rate.NewLimiter(rate.Limit(2), 1)

	// Listing endpoint: hit at most twice per run, pace it anyway
	l.limiters[APIListing] = rate.NewLimiter(rate.Limit(1), 1)

	// Resend: documented limit is 2 requests per second
	l.limiters[APIResend] = rate.NewLimiter(rate.Limit(2), 1)
}

// isTestMode checks if we're running in test mode
func isTestMode() bool {
	// Check if the test binary is running by looking for test-related arguments
	for _, arg := range os.Args {
		if len(arg) > 6 && arg[:6] == "-test." {
			return true
		}
	}
	return false
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event for the given API may happen now
func (l *Limiter) Allow(api API) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request
		return true
	}

	return limiter.Allow()
}
