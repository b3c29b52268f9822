package shared

import (
	"errors"
	"time"
)

// ErrOutsideWindow indicates an operation attempted outside its time window.
var ErrOutsideWindow = errors.New("outside the accepted time window")

// Window is a half-open time interval [StartsAt, EndsAt). A zero bound is
// unbounded on that side. The project application period and form answer
// periods are Windows.
type Window struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.StartsAt.IsZero() && t.Before(w.StartsAt) {
		return false
	}
	if !w.EndsAt.IsZero() && !t.Before(w.EndsAt) {
		return false
	}
	return true
}

// Validate rejects windows that end before they start.
func (w Window) Validate() error {
	if w.StartsAt.IsZero() || w.EndsAt.IsZero() {
		return nil
	}
	if w.EndsAt.Before(w.StartsAt) {
		return errors.New("window ends before it starts")
	}
	return nil
}
