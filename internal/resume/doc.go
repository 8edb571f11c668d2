// Package resume persists playback positions keyed by content reference.
// The same content is often referenced by subtly different URLs across
// sessions (extra query parameters, re-encoded characters, rotated hosts),
// so lookup walks a fixed candidate ladder instead of trusting exact keys.
// A stored position of zero is the "fully watched, start over" sentinel and
// is distinct from an absent key.
package resume
