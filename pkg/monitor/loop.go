package monitor

import (
	"context"
	"time"

	"github.com/projectdiscovery/arpscan/pkg/types"
)

// DefaultDelay is the pause between two cycles
const DefaultDelay = 60 * time.Second

// CycleFunc runs one sweep and reports it. previous is nil on the first cycle.
// A non-zero code stops the loop.
type CycleFunc func(ctx context.Context, previous *types.Snapshot) (*types.Snapshot, int)

// Loop runs Cycle, waits Delay, and repeats until a cycle fails or the
// context is cancelled
type Loop struct {
	Delay time.Duration
	Cycle CycleFunc
	// Countdown is called once per tick while waiting with the time left, and
	// a final time with zero
	Countdown func(remaining time.Duration)
	// Tick is the countdown resolution, one second when zero
	Tick time.Duration
}

// Run executes the loop and returns the exit code of the failing cycle, or 0
// when ctx is cancelled
func (l *Loop) Run(ctx context.Context) int {
	var previous *types.Snapshot
	for {
		if ctx.Err() != nil {
			return 0
		}

		current, code := l.Cycle(ctx, previous)
		if code != 0 {
			return code
		}
		if current != nil {
			previous = current
		}

		if !l.wait(ctx) {
			return 0
		}
	}
}

// wait blocks for Delay and returns false when ctx was cancelled first
func (l *Loop) wait(ctx context.Context) bool {
	delay := l.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	tick := l.Tick
	if tick <= 0 {
		tick = time.Second
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for remaining := delay; remaining > 0; remaining -= tick {
		if l.Countdown != nil {
			l.Countdown(remaining)
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	if l.Countdown != nil {
		l.Countdown(0)
	}
	return true
}
