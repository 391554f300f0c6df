package types

// StartTrackerRequest is the body of POST /trackers. Either Tracker or
// JSONData must be set; JSONData starts a tracker from a raw package.
type StartTrackerRequest struct {
	Tracker  *TrackerConfig `json:"tracker,omitempty"`
	JSONData string         `json:"json_data,omitempty"`
}

// StartTrackerResponse is returned by POST /trackers.
type StartTrackerResponse struct {
	// example: 3
	ID int `json:"id" example:"3"`
}

// TrackersResponse wraps the list returned by GET /trackers.
type TrackersResponse struct {
	Trackers []TrackerInfo `json:"trackers"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state of the process (e.g., starting, running_server).
	// example: running_server
	State string `json:"state" example:"running_server"`
	// Number of running trackers.
	// example: 2
	Running int `json:"running" example:"2"`
	// Number of websocket event subscribers.
	// example: 1
	Subscribers int `json:"subscribers" example:"1"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// EventMessage is one tracker event as streamed over GET /events.
type EventMessage struct {
	// example: opensnoop
	Tracker string `json:"tracker" example:"opensnoop"`
	// Event time in unix nanoseconds.
	TimeUnixNano int64 `json:"time_unix_nano"`
	// Event payload rendered as text when printable, hex otherwise.
	Data string `json:"data"`
}
