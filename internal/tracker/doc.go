// Package tracker owns running trackers. It is structured into small files
// by concern:
//
//   - registry.go: Registry (identity assignment, Start/List/Stop/StopAll).
//   - types.go: Tracker and the registry Config.
//   - events.go, eventpub_memory.go: lifecycle events and an in-memory
//     publisher for tests.
//   - metrics.go: Prometheus gauges and counters.
//
// Identities start at 1 and are never reused during the life of the
// process. Identity 0 means "no tracker".
package tracker
