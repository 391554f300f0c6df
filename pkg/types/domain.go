package types

// HandlerConfig names one event handler in a tracker's export chain.
type HandlerConfig struct {
	// Handler kind.
	// example: plain_text
	Name string `json:"name" yaml:"name" toml:"name" example:"plain_text"`
}

// TrackerConfig describes a tracker to start.
type TrackerConfig struct {
	// Location of the tracker package: a local path or an http(s) URL.
	// example: ./opensnoop/package.json
	URL string `json:"url,omitempty" yaml:"url" toml:"url" example:"./opensnoop/package.json"`
	// Inline package JSON. When set, URL is not fetched.
	JSONData string `json:"json_data,omitempty" yaml:"json_data" toml:"json_data"`
	// Ordered list of handlers events are exported through.
	ExportHandlers []HandlerConfig `json:"export_handlers,omitempty" yaml:"export_handlers" toml:"export_handlers"`
	// Arguments passed to the tracker program.
	// example: ["--pid","1234"]
	Args []string `json:"args,omitempty" yaml:"args" toml:"args"`
}

// TrackerInfo is the (id, name) pair reported for a running tracker.
type TrackerInfo struct {
	// example: 1
	ID int `json:"id" example:"1"`
	// example: opensnoop
	Name string `json:"name" example:"opensnoop"`
}
