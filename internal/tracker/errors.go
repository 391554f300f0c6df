package tracker

import (
	"errors"
	"fmt"
)

// startError signals that a registered tracker's runner failed to start.
type startError struct {
	id   int
	name string
	err  error
}

func (e startError) Error() string {
	return fmt.Sprintf("start tracker %d (%s): %v", e.id, e.name, e.err)
}

func (e startError) Unwrap() error { return e.err }

// IsStartFailed reports whether err came from a runner's Start.
func IsStartFailed(err error) bool {
	var se startError
	return errors.As(err, &se)
}

var errNoRunner = errors.New("tracker has no runner")
