// Package mcp implements retrieval.Searcher over a Model Context Protocol
// server exposing a search tool, typically a local knowledge-base index.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/rehab-orchestra/retrieval"
)

// Config describes the MCP server process and the tool to call.
type Config struct {
	Command    string   // Executable launching the stdio MCP server
	Args       []string // Additional command arguments
	ToolName   string   // Search tool name, default "search"
	MaxResults int
}

// Searcher calls a search tool on a connected MCP session.
type Searcher struct {
	config  *Config
	session *sdkmcp.ClientSession
}

// Connect launches the MCP server and establishes a session.
func Connect(ctx context.Context, config *Config) (*Searcher, error) {
	if config == nil || config.Command == "" {
		return nil, fmt.Errorf("mcp search command not configured")
	}
	if config.ToolName == "" {
		config.ToolName = "search"
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 3
	}

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "rehab-orchestra",
		Version: "1.0.0",
	}, nil)

	transport := &sdkmcp.CommandTransport{
		Command: exec.Command(config.Command, config.Args...),
	}
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect failed: %w", err)
	}

	return &Searcher{config: config, session: session}, nil
}

type toolFinding struct {
	Source    string  `json:"source"`
	Title     string  `json:"title"`
	Excerpt   string  `json:"excerpt"`
	Relevance float64 `json:"relevance"`
}

// Search implements retrieval.Searcher by invoking the configured tool. The
// tool is expected to return a JSON array of findings as text content.
func (s *Searcher) Search(ctx context.Context, query string) ([]retrieval.Finding, error) {
	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name: s.config.ToolName,
		Arguments: map[string]any{
			"query": query,
			"limit": s.config.MaxResults,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mcp search call failed: %w", err)
	}
	if result.IsError {
		return nil, fmt.Errorf("mcp search tool returned error")
	}

	var findings []retrieval.Finding
	for _, content := range result.Content {
		text, ok := content.(*sdkmcp.TextContent)
		if !ok {
			continue
		}
		var decoded []toolFinding
		if err := json.Unmarshal([]byte(text.Text), &decoded); err != nil {
			return nil, fmt.Errorf("mcp search tool output invalid: %w", err)
		}
		for _, f := range decoded {
			findings = append(findings, retrieval.Finding{
				Source:    f.Source,
				Title:     f.Title,
				Excerpt:   f.Excerpt,
				Relevance: f.Relevance,
			})
		}
	}
	if len(findings) > s.config.MaxResults {
		findings = findings[:s.config.MaxResults]
	}
	return findings, nil
}

// Close terminates the MCP session.
func (s *Searcher) Close() error {
	if s.session == nil {
		return nil
	}
	return s.session.Close()
}
