package tracking

import "time"

// Clock accumulates active time across pause/resume cycles. Misordered calls
// are ignored. Clock is not safe for concurrent use; Session serializes it.
type Clock struct {
	base         time.Duration
	runningSince time.Time
	running      bool
	now          func() time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

func (c *Clock) Start() {
	if c.running {
		return
	}
	c.runningSince = c.now()
	c.running = true
}

func (c *Clock) Resume() {
	c.Start()
}

func (c *Clock) Pause() {
	if !c.running {
		return
	}
	c.base += c.since()
	c.runningSince = time.Time{}
	c.running = false
}

// Stop folds the running interval like Pause. Terminality is the session's
// concern.
func (c *Clock) Stop() {
	c.Pause()
}

func (c *Clock) Reset() {
	c.base = 0
	c.runningSince = time.Time{}
	c.running = false
}

func (c *Clock) Running() bool {
	return c.running
}

func (c *Clock) Elapsed() time.Duration {
	if !c.running {
		return c.base
	}
	return c.base + c.since()
}

func (c *Clock) since() time.Duration {
	d := c.now().Sub(c.runningSince)
	if d < 0 {
		return 0
	}
	return d
}
