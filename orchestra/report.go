package orchestra

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

// StepSummary is one line of the executed-step log in the final report.
type StepSummary struct {
	Step        string  `json:"step"`
	Confidence  float64 `json:"confidence"`
	Attempts    int     `json:"attempts"`
	Degraded    bool    `json:"degraded"`
	Unavailable bool    `json:"unavailable"`
}

// Report is the assembled outcome of a completed session.
type Report struct {
	SessionID                string                `json:"session_id"`
	Exercise                 string                `json:"exercise,omitempty"`
	PainLocation             string                `json:"pain_location,omitempty"`
	PainTiming               string                `json:"pain_timing,omitempty"`
	FormAnalysis             string                `json:"form_analysis,omitempty"`
	Diagnosis                string                `json:"diagnosis,omitempty"`
	RequiresMedicalAttention bool                  `json:"requires_medical_attention"`
	ResearchFindings         string                `json:"research_findings,omitempty"`
	References               []capability.Citation `json:"references,omitempty"`
	ActionPlan               string                `json:"action_plan,omitempty"`
	Steps                    []StepSummary         `json:"steps"`
	GeneratedAt              time.Time             `json:"generated_at"`
}

// BuildReport assembles the final report from the session's case record and
// step results. Degraded and unavailable steps are surfaced, not hidden.
func BuildReport(sess *session.Session) *Report {
	rec := sess.Record
	r := &Report{
		SessionID:   sess.ID,
		GeneratedAt: time.Now(),
	}
	r.Exercise, _ = rec.Get(caserecord.FieldExercise)
	r.PainLocation, _ = rec.Get(caserecord.FieldPainLocation)
	r.PainTiming, _ = rec.Get(caserecord.FieldPainTiming)
	r.FormAnalysis, _ = rec.Get(caserecord.FieldFormAnalysis)
	r.Diagnosis, _ = rec.Get(caserecord.FieldDiagnosis)
	r.ResearchFindings, _ = rec.Get(caserecord.FieldResearchFindings)
	r.ActionPlan, _ = rec.Get(caserecord.FieldActionPlan)
	if flag, ok := rec.Get(caserecord.FieldRequiresMedical); ok && flag == "true" {
		r.RequiresMedicalAttention = true
	}

	steps := make([]string, 0, len(sess.Results))
	for step := range sess.Results {
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool { return stepOrder(steps[i]) < stepOrder(steps[j]) })
	for _, step := range steps {
		res := sess.Results[step]
		r.Steps = append(r.Steps, StepSummary{
			Step:        res.Step,
			Confidence:  res.Confidence,
			Attempts:    res.Attempts,
			Degraded:    res.Degraded,
			Unavailable: res.Unavailable,
		})
		if res.Step == capability.StepResearch {
			r.References = res.Citations
		}
	}
	return r
}

func stepOrder(step string) int {
	for i, s := range capability.Steps() {
		if s == step {
			return i
		}
	}
	return len(capability.Steps())
}

// Render formats the report as the plain-text message delivered to the user.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("WORKOUT INJURY ANALYSIS\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	if r.Exercise != "" || r.PainLocation != "" {
		fmt.Fprintf(&b, "Exercise: %s\nPain: %s", orUnknown(r.Exercise), orUnknown(r.PainLocation))
		if r.PainTiming != "" {
			fmt.Fprintf(&b, " (%s)", r.PainTiming)
		}
		b.WriteString("\n\n")
	}
	if r.RequiresMedicalAttention {
		b.WriteString("IMPORTANT: some findings suggest you should see a medical professional.\n\n")
	}
	writeSection(&b, "FORM ANALYSIS", r.FormAnalysis)
	writeSection(&b, "DIAGNOSIS", r.Diagnosis)
	writeSection(&b, "SUPPORTING RESEARCH", r.ResearchFindings)
	if len(r.References) > 0 {
		b.WriteString("REFERENCES\n")
		for i, ref := range r.References {
			title := ref.Title
			if title == "" {
				title = ref.Source
			}
			fmt.Fprintf(&b, "  [%d] %s - %s\n", i+1, title, ref.Source)
		}
		b.WriteString("\n")
	}
	writeSection(&b, "ACTION PLAN", r.ActionPlan)

	var notes []string
	for _, s := range r.Steps {
		switch {
		case s.Unavailable:
			notes = append(notes, s.Step+" could not be completed")
		case s.Degraded:
			notes = append(notes, fmt.Sprintf("%s carries reduced confidence (%.2f)", s.Step, s.Confidence))
		}
	}
	if len(notes) > 0 {
		b.WriteString("NOTES\n")
		for _, n := range notes {
			b.WriteString("  - " + n + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func writeSection(b *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	b.WriteString(title + "\n" + body + "\n\n")
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
