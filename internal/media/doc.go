// Package media resolves a content reference into a single tagged identity:
// a movie, or an episode of a show. Resolution happens once per session with
// a fixed precedence (explicit caller hints, then URL query parameters, then
// filename patterns) so later decisions never re-derive the classification.
package media
