package randutil

import "time"

// Timeout tracks a wall-clock budget against a fixed start instant. The
// outer fuzzing loops check it once per iteration, never per child.
type Timeout struct {
	start   time.Time
	budget  time.Duration
	nowFunc func() time.Time
}

// NewTimeout starts a tracker with the given budget in seconds. A
// non-positive value is replaced with 60, matching the reference default.
func NewTimeout(seconds int) *Timeout {
	if seconds <= 0 {
		seconds = 60
	}
	return &Timeout{start: time.Now(), budget: time.Duration(seconds) * time.Second, nowFunc: time.Now}
}

// Expired reports whether the budget has elapsed.
func (t *Timeout) Expired() bool {
	return t.nowFunc().Sub(t.start) >= t.budget
}

// Elapsed returns seconds since the tracker started.
func (t *Timeout) Elapsed() float64 {
	return t.nowFunc().Sub(t.start).Seconds()
}
