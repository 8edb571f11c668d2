// Package catalog provides the external lookup clients used as the
// last-resort tier when advancing to the next episode: a TMDB search client
// that resolves a title hint to a canonical show id, and a stream-resolution
// client that turns a show id plus season/episode into a playable URL.
package catalog
