package softassert

import (
	"fmt"
)

// Condition is either a plain boolean outcome or a fallible action that is run
// when the expectation is recorded.
type Condition struct {
	ok     bool
	action func() error
}

// That wraps an already evaluated boolean.
func That(ok bool) Condition {
	return Condition{ok: ok}
}

// Try wraps an action; the expectation fails when it returns an error or panics.
func Try(action func() error) Condition {
	return Condition{action: action}
}

// evaluate returns the captured error of a Try condition, or whether That held.
func (c Condition) evaluate() (ok bool, err error) {
	if c.action == nil {
		return c.ok, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			ok, err = false, fmt.Errorf("panic: %v", rec)
		}
	}()
	if err := c.action(); err != nil {
		return false, err
	}
	return true, nil
}
