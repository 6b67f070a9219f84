package session

import (
	"testing"
	"time"
)

func TestTimerCountsDownAndExpiresOnce(t *testing.T) {
	timer := NewTimer(3*time.Second, time.Millisecond)

	events := make(chan Event, 16)
	done := make(chan struct{})
	go func() {
		timer.Run(func(ev Event) { events <- ev })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timer did not finish")
	}
	close(events)

	ticks, expires := 0, 0
	for ev := range events {
		switch ev.Kind {
		case EventTick:
			ticks++
		case EventExpire:
			expires++
		}
	}
	if ticks != 2 {
		t.Fatalf("expected 2 ticks before expiry, got %d", ticks)
	}
	if expires != 1 {
		t.Fatalf("expected exactly one expiry, got %d", expires)
	}
	if timer.Remaining() != 0 {
		t.Fatalf("expected zero remaining, got %d", timer.Remaining())
	}
}

func TestTimerStopPreventsExpiry(t *testing.T) {
	timer := NewTimer(time.Minute, time.Millisecond)

	events := make(chan Event, 256)
	done := make(chan struct{})
	go func() {
		timer.Run(func(ev Event) {
			select {
			case events <- ev:
			default:
			}
		})
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	timer.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timer did not stop")
	}
	for len(events) > 0 {
		if ev := <-events; ev.Kind == EventExpire {
			t.Fatalf("stopped timer must not expire")
		}
	}
	if timer.Fraction() <= 0 || timer.Fraction() > 1 {
		t.Fatalf("fraction out of range: %f", timer.Fraction())
	}
}
