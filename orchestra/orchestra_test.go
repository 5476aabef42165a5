package orchestra

import (
	"context"
	"fmt"
	"testing"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/session"
	"github.com/sweetpotato0/rehab-orchestra/session/store"
)

// stubCapability replays canned results or errors per attempt and records how
// it was called.
type stubCapability struct {
	name     string
	results  []*capability.Result
	errs     []error
	calls    int
	feedback []string
	callLog  *[]string // optional shared invocation order across stubs
}

func (s *stubCapability) Name() string { return s.name }

func (s *stubCapability) Invoke(ctx context.Context, req *capability.Request) (*capability.Result, error) {
	idx := s.calls
	s.calls++
	s.feedback = append(s.feedback, req.Feedback)
	if s.callLog != nil {
		*s.callLog = append(*s.callLog, s.name)
	}
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	if len(s.results) == 0 {
		return nil, fmt.Errorf("stub %s has no results", s.name)
	}
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	return s.results[idx], nil
}

// okResult builds a confident result contributing a single marker field.
func okResult(step string, confidence float64, fields map[string]string) *capability.Result {
	return &capability.Result{Step: step, Fields: fields, Confidence: confidence}
}

// pipelineStubs returns confident stubs for all five steps, logging their
// invocation order into callLog.
func pipelineStubs(callLog *[]string) []capability.Capability {
	parse := &stubCapability{name: capability.StepParse, callLog: callLog, results: []*capability.Result{
		okResult(capability.StepParse, 0.9, map[string]string{
			caserecord.FieldExercise:     "squat",
			caserecord.FieldPainLocation: "right knee",
			caserecord.FieldPainTiming:   "during ascent",
		}),
	}}
	form := &stubCapability{name: capability.StepFormAnalysis, callLog: callLog, results: []*capability.Result{
		okResult(capability.StepFormAnalysis, 0.85, map[string]string{
			caserecord.FieldFormAnalysis: "likely knee valgus on the way up",
		}),
	}}
	diagnose := &stubCapability{name: capability.StepDiagnosis, callLog: callLog, results: []*capability.Result{
		okResult(capability.StepDiagnosis, 0.8, map[string]string{
			caserecord.FieldDiagnosis:       "patellofemoral pain syndrome",
			caserecord.FieldRequiresMedical: "false",
		}),
	}}
	research := &stubCapability{name: capability.StepResearch, callLog: callLog, results: []*capability.Result{
		{
			Step:       capability.StepResearch,
			Fields:     map[string]string{caserecord.FieldResearchFindings: "evidence supports load management"},
			Confidence: 0.75,
			Citations:  []capability.Citation{{Source: "https://example.org/pfps", Title: "PFPS review", Relevance: 1}},
		},
	}}
	prescribe := &stubCapability{name: capability.StepPrescription, callLog: callLog, results: []*capability.Result{
		okResult(capability.StepPrescription, 0.9, map[string]string{
			caserecord.FieldActionPlan: "ROOT CAUSE\n- knee valgus\nTHIS WEEK\n- glute bridges 3x12",
		}),
	}}
	return []capability.Capability{parse, form, diagnose, research, prescribe}
}

func newTestOrchestrator(t *testing.T, cfg *Config, caps []capability.Capability) *Orchestrator {
	t.Helper()
	if cfg == nil {
		cfg = NewConfig()
	}
	o, err := New(cfg, session.NewManager(store.NewInMemoryStore()), caps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}
