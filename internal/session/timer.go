package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer counts a configured quiz duration down one second at a time and
// fires an expiry signal exactly once. Ticks and the expiry are delivered
// as events into the controller loop rather than via callbacks, so the
// controller remains the only writer of session state.
type Timer struct {
	total    int // seconds
	interval time.Duration

	remaining atomic.Int64
	fired     atomic.Bool

	stopOnce sync.Once
	stop     chan struct{}
}

// NewTimer builds a countdown for the given duration. interval is how much
// wall-clock time one countdown second takes; production passes
// time.Second, tests compress it.
func NewTimer(duration, interval time.Duration) *Timer {
	if interval <= 0 {
		interval = time.Second
	}
	t := &Timer{
		total:    int(duration / time.Second),
		interval: interval,
		stop:     make(chan struct{}),
	}
	t.remaining.Store(int64(t.total))
	return t
}

// Run decrements once per interval, posting a tick event after each step
// and a single expire event at zero. post must not block indefinitely.
func (t *Timer) Run(post func(Event)) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			left := t.remaining.Add(-1)
			if left > 0 {
				post(Event{Kind: EventTick})
				continue
			}
			t.remaining.Store(0)
			if t.fired.CompareAndSwap(false, true) {
				post(Event{Kind: EventExpire})
			}
			return
		}
	}
}

// Stop halts the countdown; safe to call more than once.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Remaining returns the seconds left on the clock.
func (t *Timer) Remaining() int {
	return int(t.remaining.Load())
}

// Fraction returns the remaining share of the full duration in [0, 1].
func (t *Timer) Fraction() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.Remaining()) / float64(t.total)
}
