// Package logging builds slog loggers with the formats and attribute
// conventions shared by every encore component. Components attach a
// "component" attribute and use the Field* constants so log consumers can
// filter by session, content key, or event type.
package logging
