package downloader

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stocksync/internal/history"
	"stocksync/internal/progress"
	"stocksync/internal/store"
	"stocksync/internal/symbol"
)

// HistoryClient fetches daily bars for one symbol. *history.Client is the
// production implementation; tests substitute a mock.
type HistoryClient interface {
	Fetch(ctx context.Context, sym symbol.Symbol) ([]history.Bar, error)
}

// Options configures a Downloader.
type Options struct {
	// Concurrency is the fixed worker count. The default of 4 is a
	// provider-blocking safeguard, not a tuning knob: raising it invites
	// throttling rather than buying throughput.
	Concurrency int

	// MaxRetries is the number of fetch attempts per stale symbol.
	MaxRetries int

	// Progress, if set, is notified once per completed symbol.
	Progress *progress.Reporter

	// Logger defaults to the logrus standard logger.
	Logger *logrus.Logger
}

// Downloader runs one retry-wrapped fetch per symbol through a bounded
// worker pool, skipping symbols whose on-disk artifact is still fresh.
type Downloader struct {
	client HistoryClient
	store  *store.Store
	opts   Options
	log    *logrus.Logger

	// Delay hooks, replaced in tests.
	jitter  func() time.Duration
	backoff func() time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a Downloader. Zero option fields take their defaults.
func New(client HistoryClient, st *store.Store, opts Options) *Downloader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &Downloader{
		client: client,
		store:  st,
		opts:   opts,
		log:    opts.Logger,
		jitter: func() time.Duration {
			// Uniform in [0.7s, 1.5s): desynchronizes the pool so the
			// provider never sees a synchronized request burst.
			return time.Duration((0.7 + 0.8*rand.Float64()) * float64(time.Second))
		},
		backoff: func() time.Duration {
			// Uniform whole seconds in [5s, 12s].
			return time.Duration(5+rand.Intn(8)) * time.Second
		},
		sleep: sleepCtx,
	}
}

// Run processes every identifier in items and returns the aggregated run
// statistics. Exactly one outcome is produced per identifier; individual
// failures are folded into the statistics and never abort the run.
func (d *Downloader) Run(ctx context.Context, items []string) Stats {
	jobs := make(chan string)
	results := make(chan Outcome, len(items))

	var wg sync.WaitGroup
	for i := 0; i < d.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- d.downloadOne(ctx, item)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, item := range items {
			jobs <- item
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single consumer: the only place the counters are touched.
	stats := newStats()
	for out := range results {
		stats.add(out)
		if d.opts.Progress != nil {
			d.opts.Progress.Done()
		}
		if out.Err != nil {
			d.log.WithField("symbol", out.Code).WithError(out.Err).Warn("symbol failed")
		}
	}
	return stats
}

// downloadOne produces the single outcome for one raw identifier.
func (d *Downloader) downloadOne(ctx context.Context, item string) Outcome {
	sym, err := symbol.Parse(item)
	if err != nil {
		// Unusable input still gets its outcome; the run moves on.
		return Outcome{Status: StatusError, Code: item, Err: err}
	}

	if d.store.IsFresh(sym) {
		return Outcome{Status: StatusExists, Code: sym.Code}
	}

	return d.attempt(ctx, sym)
}

// attempt runs the bounded retry loop for one stale symbol. Every attempt
// is preceded by a short jitter delay; the longer backoff happens only
// between an errored attempt and the next one, never after the final
// attempt and never after an empty-but-clean response.
func (d *Downloader) attempt(ctx context.Context, sym symbol.Symbol) Outcome {
	var lastErr error

	for i := 1; i <= d.opts.MaxRetries; i++ {
		err := d.sleep(ctx, d.jitter())
		if err == nil {
			var bars []history.Bar
			bars, err = d.client.Fetch(ctx, sym)
			if err == nil && len(bars) > 0 {
				err = d.store.Write(sym, bars)
				if err == nil {
					return Outcome{Status: StatusSuccess, Code: sym.Code}
				}
			}
		}

		// The final attempt's nature decides the outcome tag below.
		lastErr = err

		if i == d.opts.MaxRetries {
			break
		}

		if err != nil {
			d.log.WithFields(logrus.Fields{
				"symbol":  sym.Code,
				"attempt": i,
			}).WithError(err).Debug("attempt failed, backing off")

			// A cancelled sleep falls through to the next attempt, which
			// observes the context itself.
			_ = d.sleep(ctx, d.backoff())
		}
	}

	if lastErr == nil {
		return Outcome{Status: StatusEmpty, Code: sym.Code}
	}
	return Outcome{Status: StatusError, Code: sym.Code, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
