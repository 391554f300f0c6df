package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"ecli/internal/core"
	"ecli/internal/runner"
	"ecli/pkg/types"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsTrackerNotFound(err):
		return http.StatusNotFound
	case runner.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable
	case core.IsResolveFailed(err), core.IsRunnerFailed(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("encode response")
	}
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
