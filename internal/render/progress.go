package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// progressBar redraws a single terminal line per zoom level. Increment is
// safe for concurrent use by the render workers.
type progressBar struct {
	out       io.Writer
	label     string
	total     int64
	processed atomic.Int64
	empty     atomic.Int64
	barWidth  int
	start     time.Time
	done      chan struct{}
	mu        sync.Mutex
}

func newProgressBar(out io.Writer, label string, total int64) *progressBar {
	pb := &progressBar{
		out:      out,
		label:    label,
		total:    total,
		barWidth: 30,
		start:    time.Now(),
		done:     make(chan struct{}),
	}
	go pb.run()
	return pb
}

// Increment records one finished tile; empty tiles are tallied separately.
func (pb *progressBar) Increment(empty bool) {
	pb.processed.Add(1)
	if empty {
		pb.empty.Add(1)
	}
}

// Finish stops the refresh loop and leaves the final state on screen.
func (pb *progressBar) Finish() {
	close(pb.done)
	pb.draw()
	fmt.Fprint(pb.out, "\n")
}

func (pb *progressBar) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-pb.done:
			return
		case <-ticker.C:
			pb.draw()
		}
	}
}

func (pb *progressBar) draw() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	fmt.Fprint(pb.out, pb.line())
}

func (pb *progressBar) line() string {
	processed := pb.processed.Load()
	var frac float64
	if pb.total > 0 {
		frac = min(float64(processed)/float64(pb.total), 1)
	}
	filled := int(float64(pb.barWidth) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", pb.barWidth-filled)

	elapsed := time.Since(pb.start)
	var rate float64
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(processed) / secs
	}
	return fmt.Sprintf("\r%s [%s] %3.0f%%  %d/%d tiles (%d empty)  %.0f/s  %s\033[K",
		pb.label, bar, frac*100, processed, pb.total, pb.empty.Load(), rate, formatDuration(elapsed))
}

// formatDuration prints whole seconds, e.g. "45s" or "1m23s".
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	return fmt.Sprintf("%dm%02ds", m, s)
}
