package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleResponse = `{
	"web": {
		"results": [
			{"title": "Patellar <strong>tendinopathy</strong>", "description": "Load management <strong>works</strong> well.", "url": "https://example.org/a"},
			{"title": "Knee pain in lifters", "description": "Eccentric loading helps.", "url": "https://example.org/b"},
			{"title": "Extra result", "description": "Beyond the cap.", "url": "https://example.org/c"}
		]
	}
}`

func newTestSearcher(t *testing.T, handler http.HandlerFunc, maxResults int) (*Searcher, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := New(&Config{
		APIKey:     "test-key",
		Endpoint:   server.URL,
		MaxResults: maxResults,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, server
}

func TestSearchParsesAndCleansResults(t *testing.T) {
	var gotQuery, gotToken string
	s, _ := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotToken = r.Header.Get("X-Subscription-Token")
		w.Write([]byte(sampleResponse))
	}, 2)

	findings, err := s.Search(context.Background(), "patellar tendinopathy rehab")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "patellar tendinopathy rehab" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotToken != "test-key" {
		t.Errorf("token = %q", gotToken)
	}
	if len(findings) != 2 {
		t.Fatalf("findings = %d, want MaxResults cap of 2", len(findings))
	}
	if findings[0].Title != "Patellar tendinopathy" {
		t.Errorf("title not cleaned: %q", findings[0].Title)
	}
	if strings.Contains(findings[0].Excerpt, "<strong>") {
		t.Errorf("excerpt keeps markup: %q", findings[0].Excerpt)
	}
	if findings[0].Relevance <= findings[1].Relevance {
		t.Errorf("relevance not rank-ordered: %v vs %v", findings[0].Relevance, findings[1].Relevance)
	}
}

func TestSearchStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "invalid API key"},
		{http.StatusTooManyRequests, "rate limited"},
		{http.StatusInternalServerError, "status 500"},
	}
	for _, tc := range cases {
		status := tc.status
		s, _ := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}, 3)
		_, err := s.Search(context.Background(), "anything")
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("status %d: err = %v, want %q", tc.status, err, tc.want)
		}
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestCleanExcerpt(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<strong>bold</strong> claim", "bold claim"},
		{"  spaced \n\t out  ", "spaced out"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CleanExcerpt(tc.in); got != tc.want {
			t.Errorf("CleanExcerpt(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
