// Package web implements retrieval.Searcher over the Brave Search API.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sweetpotato0/rehab-orchestra/retrieval"
)

const defaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Config holds Brave Search configuration.
type Config struct {
	APIKey     string
	Endpoint   string // Overridable for tests
	MaxResults int
	Timeout    time.Duration
}

// DefaultConfig returns a Brave Search configuration with sane limits.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:     apiKey,
		Endpoint:   defaultEndpoint,
		MaxResults: 3,
		Timeout:    10 * time.Second,
	}
}

// Searcher queries the Brave Search API.
type Searcher struct {
	config *Config
	client *http.Client
}

// New creates a Brave-backed web searcher.
func New(config *Config) (*Searcher, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("brave API key not configured")
	}
	if config.Endpoint == "" {
		config.Endpoint = defaultEndpoint
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Searcher{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

// Search implements retrieval.Searcher.
func (s *Searcher) Search(ctx context.Context, query string) ([]retrieval.Finding, error) {
	endpoint := s.config.Endpoint + "?" + url.Values{
		"q":     {query},
		"count": {strconv.Itoa(s.config.MaxResults)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("web search rejected: invalid API key")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("web search rate limited")
	default:
		return nil, fmt.Errorf("web search failed with status %d", resp.StatusCode)
	}

	var payload braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := payload.Web.Results
	if len(results) > s.config.MaxResults {
		results = results[:s.config.MaxResults]
	}
	findings := make([]retrieval.Finding, 0, len(results))
	for i, item := range results {
		findings = append(findings, retrieval.Finding{
			Source:    item.URL,
			Title:     CleanExcerpt(item.Title),
			Excerpt:   CleanExcerpt(item.Description),
			Relevance: 1 - float64(i)/float64(len(results)+1),
		})
	}
	return findings, nil
}

var reSpaces = regexp.MustCompile(`\s+`)

// CleanExcerpt strips markup from a search snippet. Brave descriptions embed
// highlight tags, so plain text is extracted before prompting.
func CleanExcerpt(snippet string) string {
	if snippet == "" {
		return ""
	}
	text := snippet
	if strings.ContainsRune(snippet, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet)); err == nil {
			text = doc.Text()
		}
	}
	return strings.TrimSpace(reSpaces.ReplaceAllString(text, " "))
}
