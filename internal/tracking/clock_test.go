package tracking

import (
	"sync"
	"testing"
	"time"
)

type fakeTime struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeTime() *fakeTime {
	return &fakeTime{t: time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)}
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func TestClockStartPause(t *testing.T) {
	ft := newFakeTime()
	c := NewClock(ft.Now)

	c.Start()
	ft.Advance(1500 * time.Millisecond)
	if got := c.Elapsed(); got != 1500*time.Millisecond {
		t.Fatalf("live elapsed = %v", got)
	}
	c.Pause()
	ft.Advance(time.Hour)
	if got := c.Elapsed(); got != 1500*time.Millisecond {
		t.Fatalf("paused elapsed = %v", got)
	}
}

func TestClockAccumulatesIntervals(t *testing.T) {
	ft := newFakeTime()
	c := NewClock(ft.Now)

	c.Start()
	ft.Advance(2 * time.Second)
	c.Pause()
	ft.Advance(5 * time.Second)
	c.Resume()
	ft.Advance(time.Second)
	c.Pause()

	if got := c.Elapsed(); got != 3*time.Second {
		t.Fatalf("elapsed = %v, want 3s", got)
	}
}

func TestClockGuardsAreNoOps(t *testing.T) {
	ft := newFakeTime()
	c := NewClock(ft.Now)

	c.Pause()
	c.Stop()
	if c.Elapsed() != 0 || c.Running() {
		t.Fatalf("pause before start changed the clock")
	}

	c.Start()
	ft.Advance(time.Second)
	c.Start()
	ft.Advance(time.Second)
	c.Resume()
	if got := c.Elapsed(); got != 2*time.Second {
		t.Fatalf("restart reset the running interval: %v", got)
	}

	c.Pause()
	before := c.Elapsed()
	ft.Advance(time.Second)
	c.Pause()
	if c.Elapsed() != before {
		t.Fatalf("second pause changed elapsed")
	}
}

func TestClockStopAndReset(t *testing.T) {
	ft := newFakeTime()
	c := NewClock(ft.Now)

	c.Start()
	ft.Advance(4 * time.Second)
	c.Stop()
	if c.Running() || c.Elapsed() != 4*time.Second {
		t.Fatalf("stop: running=%v elapsed=%v", c.Running(), c.Elapsed())
	}
	c.Reset()
	if c.Elapsed() != 0 {
		t.Fatalf("reset left %v", c.Elapsed())
	}
}

func TestClockIgnoresBackwardsTime(t *testing.T) {
	ft := newFakeTime()
	c := NewClock(ft.Now)
	c.Start()
	ft.Advance(-time.Minute)
	if c.Elapsed() != 0 {
		t.Fatalf("expected non-negative elapsed, got %v", c.Elapsed())
	}
}
