// Package mpv adapts a supervised mpv process to the engine interface using
// mpv's JSON-IPC protocol over a unix socket. Property observers feed the
// event stream; synchronous commands run over short-lived connections so
// responses never interleave with events.
package mpv
