package call

import "time"

// CancelFunc stops a pending timer. Safe to call more than once and after
// the timer fired.
type CancelFunc func()

// Scheduler abstracts timer creation so the session can be driven
// deterministically in tests instead of sleeping against the wall clock.
type Scheduler interface {
	After(d time.Duration, fn func()) CancelFunc
}

type clockScheduler struct{}

// NewScheduler returns a Scheduler backed by the wall clock.
func NewScheduler() Scheduler { return clockScheduler{} }

func (clockScheduler) After(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
