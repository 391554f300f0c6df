package tracker

// Event represents a tracker lifecycle event.
type Event struct {
	Name      string
	TrackerID int
	Tracker   string
	Fields    map[string]any
}

// EventPublisher receives events from the registry. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
