package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Total is the number of symbols in the run.
	Total int

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 1s
	UpdateInterval time.Duration
}

// Reporter prints a single updating line with completed/total symbol counts.
// Completion notifications may arrive from many workers concurrently.
type Reporter struct {
	opts Options

	completed atomic.Int64
	startTime time.Time

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = time.Second
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.startTime = time.Now()

	fmt.Fprintf(r.opts.Output, "[stocksync] Syncing %d symbols\n", r.opts.Total)

	go r.updateLoop()
}

// Done marks one symbol as completed, whatever its outcome.
func (r *Reporter) Done() {
	r.completed.Add(1)
}

// Stop stops the reporter and prints the final line. It blocks until the
// display goroutine has flushed. Calling Stop without Start is a no-op.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinal()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) printProgress() {
	completed := int(r.completed.Load())
	elapsed := time.Since(r.startTime)

	var percent, perSec float64
	if r.opts.Total > 0 {
		percent = float64(completed) / float64(r.opts.Total) * 100
	}
	if elapsed > 0 {
		perSec = float64(completed) / elapsed.Seconds()
	}

	eta := "calculating..."
	if perSec > 0 {
		remaining := float64(r.opts.Total-completed) / perSec
		eta = formatDuration(time.Duration(remaining * float64(time.Second)))
	}

	fmt.Fprintf(r.opts.Output, "\r[stocksync] Progress: %d/%d (%.1f%%) | %.1f symbols/s | ETA: %s    ",
		completed, r.opts.Total, percent, perSec, eta)
}

func (r *Reporter) printFinal() {
	completed := int(r.completed.Load())
	duration := time.Since(r.startTime)

	fmt.Fprintf(r.opts.Output, "\r[stocksync] Completed %d/%d symbols in %s\n",
		completed, r.opts.Total, formatDuration(duration))
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}
