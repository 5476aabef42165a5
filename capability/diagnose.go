package capability

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/provider"
)

// Diagnoser produces the injury hypothesis for the accumulated case record.
type Diagnoser struct {
	llmStep
}

// NewDiagnoser creates the diagnosis capability.
func NewDiagnoser(llm provider.LLMClient, opts ...Option) *Diagnoser {
	return &Diagnoser{llmStep: newLLMStep(StepDiagnosis, llm, opts)}
}

// Name implements Capability.
func (d *Diagnoser) Name() string { return StepDiagnosis }

type diagnosisOutput struct {
	Diagnosis                string     `json:"diagnosis"`
	RequiresMedicalAttention Flag       `json:"requires_medical_attention"`
	Confidence               Confidence `json:"confidence"`
}

// Invoke implements Capability.
func (d *Diagnoser) Invoke(ctx context.Context, req *Request) (*Result, error) {
	vars := map[string]interface{}{"Record": req.Record.Summary()}
	raw, err := d.generate(ctx, vars, req.Feedback)
	if err != nil {
		return nil, err
	}

	out, err := decodeJSON[diagnosisOutput](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: diagnosis output: %v", errors.ErrMalformedOutput, err)
	}
	if caserecord.IsUnknown(out.Diagnosis) {
		return nil, fmt.Errorf("%w: diagnosis missing from output", errors.ErrMalformedOutput)
	}

	if out.RequiresMedicalAttention {
		d.logger.Warn("diagnosis flags possible medical attention")
	}

	return &Result{
		Step: StepDiagnosis,
		Fields: map[string]string{
			caserecord.FieldDiagnosis:       out.Diagnosis,
			caserecord.FieldRequiresMedical: strconv.FormatBool(bool(out.RequiresMedicalAttention)),
		},
		Confidence: float64(out.Confidence),
	}, nil
}
