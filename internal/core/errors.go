package core

import (
	"errors"
	"fmt"
)

// resolveError signals that a tracker package could not be fetched or parsed.
type resolveError struct {
	locator string
	err     error
}

func (e resolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", describe(e.locator), e.err)
}

func (e resolveError) Unwrap() error { return e.err }

// IsResolveFailed reports whether err came from package resolution.
func IsResolveFailed(err error) bool {
	var re resolveError
	return errors.As(err, &re)
}

// runnerError signals that the runnable unit could not be constructed.
type runnerError struct {
	locator string
	err     error
}

func (e runnerError) Error() string {
	return fmt.Sprintf("create runner for %s: %v", describe(e.locator), e.err)
}

func (e runnerError) Unwrap() error { return e.err }

// IsRunnerFailed reports whether err came from the runner factory.
func IsRunnerFailed(err error) bool {
	var re runnerError
	return errors.As(err, &re)
}

// trackerNotFoundError is returned when looking up an unknown identity.
type trackerNotFoundError struct{ id int }

func (e trackerNotFoundError) Error() string { return fmt.Sprintf("tracker not found: %d", e.id) }

// ErrTrackerNotFound returns an error for an unknown tracker identity.
func ErrTrackerNotFound(id int) error { return trackerNotFoundError{id: id} }

// IsTrackerNotFound reports whether err indicates an unknown identity.
func IsTrackerNotFound(err error) bool {
	var nf trackerNotFoundError
	return errors.As(err, &nf)
}

func describe(locator string) string {
	if locator == "" {
		return "inline package"
	}
	return locator
}
