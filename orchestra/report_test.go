package orchestra

import (
	"strings"
	"testing"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

func reportSession(t *testing.T) *session.Session {
	t.Helper()
	sess := session.New("r1")
	fields := map[string]map[string]string{
		capability.StepParse: {
			caserecord.FieldExercise:     "squat",
			caserecord.FieldPainLocation: "right knee",
			caserecord.FieldPainTiming:   "during ascent",
		},
		capability.StepFormAnalysis: {caserecord.FieldFormAnalysis: "knee valgus under load"},
		capability.StepDiagnosis: {
			caserecord.FieldDiagnosis:       "patellofemoral pain syndrome",
			caserecord.FieldRequiresMedical: "true",
		},
		capability.StepResearch:     {caserecord.FieldResearchFindings: "load management is effective"},
		capability.StepPrescription: {caserecord.FieldActionPlan: "THIS WEEK\n- glute bridges 3x12"},
	}
	for step, f := range fields {
		if err := sess.Record.Apply(step, f); err != nil {
			t.Fatal(err)
		}
		sess.SetResult(&session.StepResult{Step: step, Fields: f, Confidence: 0.8, Attempts: 1})
	}
	sess.Results[capability.StepResearch].Citations = []capability.Citation{
		{Source: "https://example.org/pfps", Title: "PFPS review", Relevance: 1},
	}
	return sess
}

func TestBuildReport(t *testing.T) {
	r := BuildReport(reportSession(t))

	if r.Exercise != "squat" || r.Diagnosis != "patellofemoral pain syndrome" {
		t.Errorf("report = %+v", r)
	}
	if !r.RequiresMedicalAttention {
		t.Error("medical flag lost")
	}
	if len(r.References) != 1 || r.References[0].Source != "https://example.org/pfps" {
		t.Errorf("references = %+v", r.References)
	}
	if len(r.Steps) != 5 {
		t.Fatalf("steps = %d, want 5", len(r.Steps))
	}
	for i, step := range capability.Steps() {
		if r.Steps[i].Step != step {
			t.Errorf("steps[%d] = %s, want %s", i, r.Steps[i].Step, step)
		}
	}
}

func TestRenderSurfacesDegradedSteps(t *testing.T) {
	sess := reportSession(t)
	sess.Results[capability.StepDiagnosis].Degraded = true
	sess.Results[capability.StepDiagnosis].Confidence = 0.4

	text := BuildReport(sess).Render()
	if !strings.Contains(text, "reduced confidence") {
		t.Errorf("degraded diagnosis not surfaced:\n%s", text)
	}
	if !strings.Contains(text, "see a medical professional") {
		t.Errorf("medical warning missing:\n%s", text)
	}
	if !strings.Contains(text, "ACTION PLAN") {
		t.Errorf("action plan section missing:\n%s", text)
	}
}
