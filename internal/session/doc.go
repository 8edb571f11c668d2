// Package session drives a single playback session from start to a
// terminal outcome. The controller owns all session state on one
// goroutine: engine events, retry timers, and periodic resume saves are
// serialized through its run loop, while notifier calls and persistence
// writes happen on side goroutines that never feed state transitions
// back in.
//
// Errors reported by the engine are classified into a small taxonomy
// (near-end format noise, retry loops, mid-stream format faults,
// network drops) and mapped to one of three actions: treat the session
// as complete, retry from a known-good position, or terminate. Genuine
// completion is routed through a guard that fires exactly once per
// session, clearing the resume point and either reporting a stop (for
// movies) or walking the episode advance protocol.
package session
