// Package capability defines the pluggable reasoning steps of the pipeline.
// Each capability is a stateless transformation: it reads the accumulated case
// record, delegates its internal reasoning to an LLM provider, and returns the
// fields it contributes together with a self-assessed confidence score.
package capability

import (
	"context"

	"github.com/sweetpotato0/rehab-orchestra/caserecord"
)

// Fixed pipeline step names.
const (
	StepParse        = "parse"
	StepFormAnalysis = "form_analysis"
	StepDiagnosis    = "diagnosis"
	StepResearch     = "research"
	StepPrescription = "prescription"
)

// Steps returns the fixed pipeline order.
func Steps() []string {
	return []string{StepParse, StepFormAnalysis, StepDiagnosis, StepResearch, StepPrescription}
}

// Citation links a contributed field to retrieved supporting evidence.
type Citation struct {
	Source    string  `json:"source"`
	Title     string  `json:"title,omitempty"`
	Excerpt   string  `json:"excerpt,omitempty"`
	Relevance float64 `json:"relevance"`
}

// Request carries the inputs for one capability invocation.
type Request struct {
	Record   *caserecord.Record // Read view of the case record
	Input    string             // Raw dialogue text, used by the parse step
	Feedback string             // Reflection notes from a prior low-confidence attempt
	Attempt  int                // 1-based attempt counter
}

// Result is the immutable output of one capability invocation.
type Result struct {
	Step       string            `json:"step"`
	Fields     map[string]string `json:"fields"`
	Confidence float64           `json:"confidence"`
	Citations  []Citation        `json:"citations,omitempty"`
}

// Capability is a named, stateless unit of work in the pipeline.
type Capability interface {
	// Name returns the pipeline step name.
	Name() string

	// Invoke runs the step against the case record. Transport failures are
	// reported as errors.ErrCapabilityUnavailable, structurally invalid
	// outputs as errors.ErrMalformedOutput.
	Invoke(ctx context.Context, req *Request) (*Result, error)
}
