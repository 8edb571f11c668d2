package media

import "testing"

func TestResolveExplicitHintsWin(t *testing.T) {
	id := Resolve("http://cdn.example.com/stream/abc.mkv?season=2&episode=9", Hints{
		Season:  1,
		Episode: 5,
		ShowID:  "tt0944947",
	})
	if !id.IsEpisode() {
		t.Fatal("expected episode")
	}
	if id.Season != 1 || id.Episode != 5 {
		t.Errorf("got S%dE%d, want S1E5 (hints outrank query params)", id.Season, id.Episode)
	}
	if id.ShowID != "tt0944947" {
		t.Errorf("ShowID = %q", id.ShowID)
	}
}

func TestResolveQueryParams(t *testing.T) {
	id := Resolve("http://host/play?season=3&episode=12&imdb=tt1234567", Hints{})
	if !id.IsEpisode() {
		t.Fatal("expected episode")
	}
	if id.Season != 3 || id.Episode != 12 {
		t.Errorf("got S%dE%d, want S3E12", id.Season, id.Episode)
	}
	if id.IMDBID != "tt1234567" {
		t.Errorf("IMDBID = %q", id.IMDBID)
	}
}

func TestResolveFilenamePatterns(t *testing.T) {
	cases := []struct {
		url     string
		season  int
		episode int
	}{
		{"http://host/show/The.Expanse.S01E05.1080p.mkv", 1, 5},
		{"http://host/show/the%20expanse%20s02e03.mkv", 2, 3},
		{"http://host/show/Fargo.3x08.hdtv.mkv", 3, 8},
	}
	for _, tc := range cases {
		id := Resolve(tc.url, Hints{})
		if !id.IsEpisode() {
			t.Errorf("%s: expected episode", tc.url)
			continue
		}
		if id.Season != tc.season || id.Episode != tc.episode {
			t.Errorf("%s: got S%dE%d, want S%dE%d", tc.url, id.Season, id.Episode, tc.season, tc.episode)
		}
	}
}

func TestResolveMovieFallback(t *testing.T) {
	id := Resolve("http://host/movies/Heat.1995.1080p.mkv", Hints{})
	if id.IsEpisode() {
		t.Error("expected movie")
	}
	if id.Title == "" {
		t.Error("expected derived title")
	}
}

func TestResolvePartialQueryDoesNotClassify(t *testing.T) {
	// A season without an episode is not enough to call it episodic.
	id := Resolve("http://host/play/feature.mkv?season=2", Hints{})
	if id.IsEpisode() {
		t.Error("expected movie when only season is present")
	}
}

func TestDeriveTitle(t *testing.T) {
	cases := map[string]string{
		"http://host/show/The.Expanse.S01E05.1080p.WEB-DL.mkv": "The Expanse",
		"http://host/movies/heat_1995.mkv":                     "Heat 1995",
		"http://host/movies/blade%20runner.mkv":                "Blade Runner",
	}
	for input, want := range cases {
		if got := DeriveTitle(input); got != want {
			t.Errorf("DeriveTitle(%q) = %q, want %q", input, got, want)
		}
	}
}
