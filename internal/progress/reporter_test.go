package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestReporterItemTracking(t *testing.T) {
	reporter := NewReporter(Options{
		TotalItems:     100,
		TotalDays:      4,
		UpdateInterval: 100 * time.Millisecond,
	})

	// Track without starting the update loop
	reporter.ItemCompleted()
	reporter.ItemCompleted()
	if reporter.completedItems.Load() != 2 {
		t.Errorf("expected 2 completed, got %d", reporter.completedItems.Load())
	}

	reporter.ItemFailed()
	if reporter.completedItems.Load() != 3 {
		t.Errorf("expected failed item to count toward completion, got %d", reporter.completedItems.Load())
	}
	if reporter.failedItems.Load() != 1 {
		t.Errorf("expected 1 failed, got %d", reporter.failedItems.Load())
	}

	reporter.DayCompleted()
	if reporter.completedDays.Load() != 1 {
		t.Errorf("expected 1 day completed, got %d", reporter.completedDays.Load())
	}
}

func TestReporterStartStop(t *testing.T) {
	var buf safeBuffer
	reporter := NewReporter(Options{
		Label:          "HLSL30.v2.0 2024-01",
		TotalItems:     4,
		TotalDays:      2,
		MaxDays:        3,
		MaxPerDay:      50,
		Output:         &buf,
		UpdateInterval: 10 * time.Millisecond,
	})

	reporter.Start()

	reporter.ItemCompleted()
	reporter.ItemCompleted()
	reporter.DayCompleted()
	reporter.ItemCompleted()
	reporter.ItemFailed()
	reporter.DayCompleted()

	time.Sleep(50 * time.Millisecond) // Let updates run

	reporter.Stop()

	if reporter.completedItems.Load() != 4 {
		t.Errorf("expected 4 completed items, got %d", reporter.completedItems.Load())
	}
	if reporter.completedDays.Load() != 2 {
		t.Errorf("expected 2 completed days, got %d", reporter.completedDays.Load())
	}

	out := buf.String()
	if !strings.Contains(out, "HLSL30.v2.0 2024-01") {
		t.Errorf("expected label in header, got %q", out)
	}
	if !strings.Contains(out, "Complete!") {
		t.Errorf("expected final status, got %q", out)
	}
}

func TestReporterStopIdempotent(t *testing.T) {
	reporter := NewReporter(Options{TotalItems: 1, TotalDays: 1, Output: &safeBuffer{}})
	reporter.Start()
	reporter.Stop()
	reporter.Stop() // must not panic
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m 30s"},
		{3725 * time.Second, "1h 2m 5s"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.input)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

// safeBuffer serializes writes from the reporter's update goroutine.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
