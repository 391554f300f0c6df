//go:build !linux

package runner

import "ecli/internal/handler"

// NewBPF is unavailable outside Linux.
func NewBPF(h handler.EventHandler, locator string, payload []byte, args []string) (Runner, error) {
	return nil, ErrDependencyUnavailable("eBPF trackers require linux")
}
