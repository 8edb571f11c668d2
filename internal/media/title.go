package media

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var releaseNoisePattern = regexp.MustCompile(`(?i)\b(?:480p|720p|1080p|2160p|4k|x264|x265|h264|h265|hevc|web[- ]?dl|webrip|bluray|hdtv|aac|dts|remux)\b.*$`)

// DeriveTitle extracts a human-readable title hint from a content reference.
// It is a hint only: catalog lookups treat it as a search query, never as an
// authoritative name.
func DeriveTitle(rawURL string) string {
	base := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		base = parsed.Path
	}
	if decoded, err := url.PathUnescape(base); err == nil {
		base = decoded
	}
	base = path.Base(base)
	base = strings.TrimSuffix(base, path.Ext(base))

	// Strip the episode marker and everything after it; release tags follow
	// the marker in almost every naming scheme.
	if loc := seasonEpisodePattern.FindStringIndex(base); loc != nil {
		base = base[:loc[0]]
	} else if loc := crossPattern.FindStringIndex(base); loc != nil {
		base = base[:loc[0]]
	}
	base = releaseNoisePattern.ReplaceAllString(base, "")

	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return ""
	}
	return cases.Title(language.Und).String(title)
}
