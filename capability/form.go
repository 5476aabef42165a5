package capability

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/provider"
)

// FormAnalyzer identifies the form breakdown likely to explain the pain.
type FormAnalyzer struct {
	llmStep
}

// NewFormAnalyzer creates the form analysis capability.
func NewFormAnalyzer(llm provider.LLMClient, opts ...Option) *FormAnalyzer {
	return &FormAnalyzer{llmStep: newLLMStep(StepFormAnalysis, llm, opts)}
}

// Name implements Capability.
func (f *FormAnalyzer) Name() string { return StepFormAnalysis }

type formOutput struct {
	FormAnalysis string     `json:"form_analysis"`
	Confidence   Confidence `json:"confidence"`
}

// Invoke implements Capability.
func (f *FormAnalyzer) Invoke(ctx context.Context, req *Request) (*Result, error) {
	vars := map[string]interface{}{"Record": req.Record.Summary()}
	raw, err := f.generate(ctx, vars, req.Feedback)
	if err != nil {
		return nil, err
	}

	out, err := decodeJSON[formOutput](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: form analysis output: %v", errors.ErrMalformedOutput, err)
	}
	if caserecord.IsUnknown(out.FormAnalysis) {
		return nil, fmt.Errorf("%w: form analysis missing from output", errors.ErrMalformedOutput)
	}

	return &Result{
		Step:       StepFormAnalysis,
		Fields:     map[string]string{caserecord.FieldFormAnalysis: out.FormAnalysis},
		Confidence: float64(out.Confidence),
	}, nil
}
