package collide

import "time"

// Timer accumulates the wall time spent in a phase over several runs
type Timer struct {
	start time.Time
	total time.Duration
}

func (t *Timer) Start() {
	t.start = time.Now()
}

func (t *Timer) Stop() {
	t.total += time.Since(t.start)
}

func (t *Timer) Reset() {
	t.total = 0
}

// Seconds returns the accumulated time
func (t *Timer) Seconds() float64 {
	return t.total.Seconds()
}
