// Package notify delivers session-lifecycle messages to the orchestrator
// that launched playback. Messages ride a minimal JSON-RPC 2.0 envelope over
// HTTP POST; a 2xx status means delivered and anything else is logged and
// ignored, because a deaf orchestrator must never block a session from
// finishing.
package notify
