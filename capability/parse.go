package capability

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/provider"
)

// Parser extracts structured fields from free-text pain descriptions.
type Parser struct {
	llmStep
}

// NewParser creates the parse capability.
func NewParser(llm provider.LLMClient, opts ...Option) *Parser {
	return &Parser{llmStep: newLLMStep(StepParse, llm, opts)}
}

// Name implements Capability.
func (p *Parser) Name() string { return StepParse }

type parseOutput struct {
	Exercise          string     `json:"exercise"`
	PainLocation      string     `json:"pain_location"`
	PainTiming        string     `json:"pain_timing"`
	PainSide          string     `json:"pain_side"`
	PainIntensity     string     `json:"pain_intensity"`
	AdditionalContext string     `json:"additional_context"`
	Confidence        Confidence `json:"confidence"`
}

// Invoke implements Capability. Parse never fails on missing information; it
// reports what it found and lets the conversation manager ask for the rest.
func (p *Parser) Invoke(ctx context.Context, req *Request) (*Result, error) {
	vars := map[string]interface{}{"Input": req.Input}
	raw, err := p.generate(ctx, vars, req.Feedback)
	if err != nil {
		return nil, err
	}

	out, err := decodeJSON[parseOutput](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse output: %v", errors.ErrMalformedOutput, err)
	}

	fields := map[string]string{
		caserecord.FieldExercise:          out.Exercise,
		caserecord.FieldPainLocation:      out.PainLocation,
		caserecord.FieldPainTiming:        out.PainTiming,
		caserecord.FieldPainSide:          out.PainSide,
		caserecord.FieldPainIntensity:     out.PainIntensity,
		caserecord.FieldAdditionalContext: out.AdditionalContext,
	}
	p.logger.Debug("parsed user input",
		"exercise", out.Exercise,
		"pain_location", out.PainLocation,
		"confidence", float64(out.Confidence))

	return &Result{
		Step:       StepParse,
		Fields:     fields,
		Confidence: float64(out.Confidence),
	}, nil
}
