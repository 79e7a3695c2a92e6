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
	// Label identifies the run (for display), e.g. "HLSL30.v2.0 2024-01".
	Label string

	// TotalItems is the total number of items to fetch.
	TotalItems int

	// TotalDays is the number of days in the batch.
	TotalDays int

	// MaxDays and MaxPerDay are the concurrency bounds (for display).
	MaxDays   int
	MaxPerDay int

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information.
type Reporter struct {
	opts Options

	mu             sync.Mutex
	completedItems atomic.Int64
	failedItems    atomic.Int64
	completedDays  atomic.Int32
	startTime      time.Time
	lastUpdate     time.Time
	lastItems      int64
	stopCh         chan struct{}
	stopped        bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.startTime = time.Now()
	r.lastUpdate = r.startTime

	// Print header
	fmt.Fprintf(r.opts.Output, "[hls] Aggregating: %s\n", r.opts.Label)
	fmt.Fprintf(r.opts.Output, "[hls] Items: %d | Days: %d | Concurrency: %d x %d\n",
		r.opts.TotalItems,
		r.opts.TotalDays,
		r.opts.MaxDays,
		r.opts.MaxPerDay,
	)

	go r.updateLoop()
}

// Stop stops the progress reporter.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
}

// ItemCompleted marks one item as fetched.
func (r *Reporter) ItemCompleted() {
	r.completedItems.Add(1)
}

// ItemFailed marks one item as failed. Failed items still count toward
// completion.
func (r *Reporter) ItemFailed() {
	r.completedItems.Add(1)
	r.failedItems.Add(1)
}

// DayCompleted marks one day's batch as done.
func (r *Reporter) DayCompleted() {
	r.completedDays.Add(1)
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	now := time.Now()
	completed := r.completedItems.Load()
	failed := r.failedItems.Load()

	// Calculate rate
	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	itemsThisPeriod := completed - r.lastItems
	rate := float64(itemsThisPeriod) / elapsed

	r.lastUpdate = now
	r.lastItems = completed

	// Calculate percentage and ETA
	var percent float64
	var eta string
	if r.opts.TotalItems > 0 {
		percent = float64(completed) / float64(r.opts.TotalItems) * 100
		if rate > 0 {
			remaining := float64(int64(r.opts.TotalItems) - completed)
			etaSeconds := remaining / rate
			eta = formatDuration(time.Duration(etaSeconds * float64(time.Second)))
		} else {
			eta = "calculating..."
		}
	}

	fmt.Fprintf(r.opts.Output, "\r[hls] Progress: %.1f%% | %d / %d items | %d failed | Rate: %.0f items/s | ETA: %s    ",
		percent,
		completed,
		r.opts.TotalItems,
		failed,
		rate,
		eta,
	)
	fmt.Fprintf(r.opts.Output, "\n[hls] Days: %d / %d completed    \033[A",
		r.completedDays.Load(),
		r.opts.TotalDays,
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	completed := r.completedItems.Load()
	failed := r.failedItems.Load()
	duration := time.Since(r.startTime)
	rate := float64(completed) / duration.Seconds()

	fmt.Fprintf(r.opts.Output, "\r[hls] Progress: 100.0%% | %d / %d items | %d failed | Rate: %.0f items/s | Complete!    \n",
		completed,
		r.opts.TotalItems,
		failed,
		rate,
	)
	fmt.Fprintf(r.opts.Output, "[hls] Days: %d / %d completed    \n",
		r.completedDays.Load(),
		r.opts.TotalDays,
	)
	fmt.Fprintf(r.opts.Output, "[hls] Total time: %s | Average rate: %.0f items/s\n",
		formatDuration(duration),
		rate,
	)
}

// formatDuration formats a duration as a short human-readable string.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
