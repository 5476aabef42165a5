// Package provider defines the reasoning-service client consumed by the
// pipeline capabilities, with implementations under provider/openai,
// provider/claude and provider/gemini.
package provider

import (
	"context"

	"github.com/sweetpotato0/rehab-orchestra/message"
)

// LLMClient defines the interface for LLM providers
type LLMClient interface {
	// Generate generates a response from the LLM
	Generate(ctx context.Context, messages []*message.Message) (*message.Message, error)
}
