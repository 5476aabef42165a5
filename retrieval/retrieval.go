// Package retrieval defines the knowledge/web retrieval boundary consumed by
// the evidence-gathering capability. Backends live in retrieval/web and
// retrieval/mcp.
package retrieval

import "context"

// Finding is one retrieved piece of supporting evidence.
type Finding struct {
	Source    string  `json:"source"`    // URL or knowledge-base identifier
	Title     string  `json:"title"`     // Human readable title
	Excerpt   string  `json:"excerpt"`   // Short plain-text excerpt
	Relevance float64 `json:"relevance"` // Rank-derived score in [0,1]
}

// Searcher returns an ordered sequence of findings for a query. A single call
// is finite and not restartable; callers issue a fresh Search per query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Finding, error)
}
