// Package engine defines the abstract playback engine the session controller
// drives: point-in-time position/duration snapshots plus a discrete stream of
// state and error events. Concrete adapters live in subpackages; the
// controller never depends on engine internals beyond this surface.
package engine
