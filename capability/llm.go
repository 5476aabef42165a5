package capability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/message"
	"github.com/sweetpotato0/rehab-orchestra/pkg/logging"
	"github.com/sweetpotato0/rehab-orchestra/prompt"
	"github.com/sweetpotato0/rehab-orchestra/provider"
)

// Option customises a capability.
type Option func(*options)

type options struct {
	prompts *prompt.Manager
	budget  *prompt.Budget
	logger  *slog.Logger
}

// WithPrompts overrides the default prompt templates.
func WithPrompts(m *prompt.Manager) Option {
	return func(o *options) {
		if m != nil {
			o.prompts = m
		}
	}
}

// WithBudget caps the token size of rendered prompts.
func WithBudget(b *prompt.Budget) Option {
	return func(o *options) {
		o.budget = b
	}
}

// WithLogger overrides the capability logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(component string, opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.prompts == nil {
		o.prompts = DefaultPrompts()
	}
	if o.logger == nil {
		o.logger = logging.WithComponent(component)
	}
	return o
}

// llmStep bundles the pieces shared by every LLM-backed capability.
type llmStep struct {
	name    string
	llm     provider.LLMClient
	prompts *prompt.Manager
	budget  *prompt.Budget
	logger  *slog.Logger
}

func newLLMStep(name string, llm provider.LLMClient, opts []Option) llmStep {
	o := applyOptions(name+"_capability", opts)
	return llmStep{
		name:    name,
		llm:     llm,
		prompts: o.prompts,
		budget:  o.budget,
		logger:  o.logger,
	}
}

// generate renders the step's templates and performs one LLM round trip.
// Transport failures map to ErrCapabilityUnavailable; an empty reply maps to
// ErrMalformedOutput so the controller can count it as a failed attempt.
func (s *llmStep) generate(ctx context.Context, vars map[string]interface{}, feedback string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: no LLM client configured for step %s", errors.ErrCapabilityUnavailable, s.name)
	}

	system, err := s.prompts.Render(s.name+"_system", vars)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrConfiguration, err)
	}
	user, err := s.prompts.Render(s.name+"_user", vars)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrConfiguration, err)
	}
	if feedback != "" {
		user += "\n\nA previous attempt was rejected: " + feedback +
			"\nCorrect the issues and report confidence honestly."
	}
	if s.budget != nil {
		user = s.budget.Fit(user)
	}

	msgs := []*message.Message{
		message.NewMessage(message.RoleSystem, system),
		message.NewMessage(message.RoleUser, user),
	}
	resp, err := s.llm.Generate(ctx, msgs)
	if err != nil {
		// Timeouts and transport failures alike mean the reasoning
		// service could not be used for this attempt.
		return "", fmt.Errorf("%w: %v", errors.ErrCapabilityUnavailable, err)
	}
	if resp == nil || strings.TrimSpace(resp.Text()) == "" {
		return "", fmt.Errorf("%w: empty reply from step %s", errors.ErrMalformedOutput, s.name)
	}
	return resp.Text(), nil
}
