package capability

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/provider"
)

// Prescriber turns the diagnosis into a concrete recovery action plan.
type Prescriber struct {
	llmStep
}

// NewPrescriber creates the prescription capability.
func NewPrescriber(llm provider.LLMClient, opts ...Option) *Prescriber {
	return &Prescriber{llmStep: newLLMStep(StepPrescription, llm, opts)}
}

// Name implements Capability.
func (p *Prescriber) Name() string { return StepPrescription }

type prescriptionOutput struct {
	ActionPlan string     `json:"action_plan"`
	Confidence Confidence `json:"confidence"`
}

// Invoke implements Capability.
func (p *Prescriber) Invoke(ctx context.Context, req *Request) (*Result, error) {
	vars := map[string]interface{}{"Record": req.Record.Summary()}
	raw, err := p.generate(ctx, vars, req.Feedback)
	if err != nil {
		return nil, err
	}

	out, err := decodeJSON[prescriptionOutput](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: prescription output: %v", errors.ErrMalformedOutput, err)
	}
	if caserecord.IsUnknown(out.ActionPlan) {
		return nil, fmt.Errorf("%w: action plan missing from output", errors.ErrMalformedOutput)
	}

	return &Result{
		Step:       StepPrescription,
		Fields:     map[string]string{caserecord.FieldActionPlan: out.ActionPlan},
		Confidence: float64(out.Confidence),
	}, nil
}
