package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"encore/internal/catalog"
)

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := catalog.New("", "http://host", "en-US"); err == nil {
		t.Error("expected error for missing api key")
	}
	if _, err := catalog.New("key", "", "en-US"); err == nil {
		t.Error("expected error for missing base url")
	}
}

func TestSearchShowPicksMostPopular(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "the expanse" {
			t.Errorf("query = %q", r.URL.Query().Get("query"))
		}
		fmt.Fprint(w, `{"page":1,"total_results":2,"results":[
			{"id":100,"name":"The Expanse Fan Cut","popularity":3.1},
			{"id":63639,"name":"The Expanse","popularity":88.4}
		]}`)
	}))
	t.Cleanup(server.Close)

	client, err := catalog.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	show, err := client.SearchShow(context.Background(), "the expanse")
	if err != nil {
		t.Fatalf("SearchShow failed: %v", err)
	}
	if show.ID != 63639 {
		t.Errorf("show.ID = %d, want 63639", show.ID)
	}
}

func TestSearchShowNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"page":1,"total_results":0,"results":[]}`)
	}))
	t.Cleanup(server.Close)

	client, err := catalog.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = client.SearchShow(context.Background(), "nothing here")
	if !errors.Is(err, catalog.ErrNoMatch) {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestResolveStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stream/63639/1/6" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"url":"http://cdn.example.com/expanse-s01e06.mkv"}`)
	}))
	t.Cleanup(server.Close)

	resolver, err := catalog.NewResolver(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	url, err := resolver.ResolveStream(context.Background(), catalog.EpisodeRef{ShowID: "63639", Season: 1, Episode: 6})
	if err != nil {
		t.Fatalf("ResolveStream failed: %v", err)
	}
	if url != "http://cdn.example.com/expanse-s01e06.mkv" {
		t.Errorf("url = %q", url)
	}
}

func TestResolveStreamMisses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	resolver, err := catalog.NewResolver(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	_, err = resolver.ResolveStream(context.Background(), catalog.EpisodeRef{IMDBID: "tt1", Season: 9, Episode: 99})
	if !errors.Is(err, catalog.ErrNoStream) {
		t.Errorf("err = %v, want ErrNoStream", err)
	}
}

func TestResolveStreamRejectsIncompleteRef(t *testing.T) {
	resolver, err := catalog.NewResolver("http://host", time.Second)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	if _, err := resolver.ResolveStream(context.Background(), catalog.EpisodeRef{Season: 1, Episode: 2}); !errors.Is(err, catalog.ErrNoStream) {
		t.Errorf("missing identifier: err = %v, want ErrNoStream", err)
	}
	if _, err := resolver.ResolveStream(context.Background(), catalog.EpisodeRef{ShowID: "1"}); !errors.Is(err, catalog.ErrNoStream) {
		t.Errorf("missing episode: err = %v, want ErrNoStream", err)
	}
}
