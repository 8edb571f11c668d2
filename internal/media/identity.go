package media

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes one-shot content from episodic content.
type Kind int

const (
	KindMovie Kind = iota
	KindEpisode
)

func (k Kind) String() string {
	switch k {
	case KindEpisode:
		return "episode"
	default:
		return "movie"
	}
}

// Identity is the resolved classification of a content reference.
// Season and Episode are meaningful only when Kind is KindEpisode.
type Identity struct {
	Kind    Kind
	ShowID  string
	IMDBID  string
	Season  int
	Episode int
	Title   string
}

// Episode reports whether the identity refers to episodic content.
func (id Identity) IsEpisode() bool {
	return id.Kind == KindEpisode
}

// Hints carries caller-supplied identity fields. Zero values mean "unknown".
type Hints struct {
	ShowID  string
	IMDBID  string
	Season  int
	Episode int
	Title   string
}

var (
	// Movie.Name.S01E05.1080p.mkv
	seasonEpisodePattern = regexp.MustCompile(`(?i)\bS(\d{1,2})[\s._-]*E(\d{1,3})\b`)
	// Movie.Name.1x05.mkv
	crossPattern = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`)
)

// Resolve classifies a content reference exactly once. Precedence: explicit
// hints, then query parameters on the URL, then filename patterns. Anything
// unmatched is a movie.
func Resolve(rawURL string, hints Hints) Identity {
	id := Identity{
		Kind:   KindMovie,
		ShowID: strings.TrimSpace(hints.ShowID),
		IMDBID: strings.TrimSpace(hints.IMDBID),
		Title:  strings.TrimSpace(hints.Title),
	}

	if hints.Season > 0 && hints.Episode > 0 {
		id.Kind = KindEpisode
		id.Season = hints.Season
		id.Episode = hints.Episode
		if id.Title == "" {
			id.Title = DeriveTitle(rawURL)
		}
		return id
	}

	parsed, err := url.Parse(rawURL)
	if err == nil {
		if applyQueryParams(&id, parsed.Query()) {
			if id.Title == "" {
				id.Title = DeriveTitle(rawURL)
			}
			return id
		}
	}

	if season, episode, ok := matchEpisodePattern(rawURL); ok {
		id.Kind = KindEpisode
		id.Season = season
		id.Episode = episode
	}
	if id.Title == "" {
		id.Title = DeriveTitle(rawURL)
	}
	return id
}

func applyQueryParams(id *Identity, query url.Values) bool {
	if id.ShowID == "" {
		id.ShowID = strings.TrimSpace(firstQueryValue(query, "show", "showId", "show_id"))
	}
	if id.IMDBID == "" {
		id.IMDBID = strings.TrimSpace(firstQueryValue(query, "imdb", "imdbId", "imdb_id"))
	}

	season, seasonOK := parseQueryInt(query, "season", "s")
	episode, episodeOK := parseQueryInt(query, "episode", "ep", "e")
	if seasonOK && episodeOK && season > 0 && episode > 0 {
		id.Kind = KindEpisode
		id.Season = season
		id.Episode = episode
		return true
	}
	return false
}

func firstQueryValue(query url.Values, names ...string) string {
	for _, name := range names {
		if value := query.Get(name); value != "" {
			return value
		}
	}
	return ""
}

func parseQueryInt(query url.Values, names ...string) (int, bool) {
	raw := firstQueryValue(query, names...)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return value, true
}

func matchEpisodePattern(rawURL string) (season, episode int, ok bool) {
	candidate := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		candidate = parsed.Path
	}
	if decoded, err := url.PathUnescape(candidate); err == nil {
		candidate = decoded
	}

	for _, pattern := range []*regexp.Regexp{seasonEpisodePattern, crossPattern} {
		match := pattern.FindStringSubmatch(candidate)
		if match == nil {
			continue
		}
		s, sErr := strconv.Atoi(match[1])
		e, eErr := strconv.Atoi(match[2])
		if sErr != nil || eErr != nil || s <= 0 || e <= 0 {
			continue
		}
		return s, e, true
	}
	return 0, 0, false
}
