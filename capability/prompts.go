package capability

import (
	"sync"

	"github.com/sweetpotato0/rehab-orchestra/prompt"
)

var (
	defaultPromptsOnce sync.Once
	defaultPrompts     *prompt.Manager
)

// DefaultPrompts returns the built-in prompt templates shared by all
// capabilities. Overridable per capability via WithPrompts.
func DefaultPrompts() *prompt.Manager {
	defaultPromptsOnce.Do(func() {
		defaultPrompts = prompt.NewManager()
		for name, content := range defaultTemplates {
			if err := defaultPrompts.RegisterString(name, content); err != nil {
				panic(err)
			}
		}
	})
	return defaultPrompts
}

var defaultTemplates = map[string]string{
	StepParse + "_system": `You extract structured information from workout injury descriptions. Be concise and specific. Respond ONLY with valid JSON.`,

	StepParse + "_user": `Extract key information from this workout issue description.

User input:
"{{.Input}}"

Respond ONLY with valid JSON (no extra text):
{
    "exercise": "name of exercise (e.g., squat, deadlift, bench press)",
    "pain_location": "specific body part (e.g., right knee, lower back)",
    "pain_timing": "when pain occurs (e.g., during ascent, after workout)",
    "pain_side": "left or right if mentioned",
    "pain_intensity": "severity if mentioned (e.g., sharp, dull, mild, severe)",
    "additional_context": "any other relevant info",
    "confidence": 0.0
}
Use "unknown" for fields not present. Set confidence between 0 and 1.`,

	StepFormAnalysis + "_system": `You are an expert strength coach analyzing exercise form and biomechanics. Respond ONLY with valid JSON.`,

	StepFormAnalysis + "_user": `Analyze the likely FORM ISSUES that could cause this pain pattern.

Case record:
{{.Record}}

Cover, in one text block: the most likely form breakdown, the biomechanical
explanation, and two or three specific points to check. Be specific to this
exercise and pain pattern, under 200 words.

Respond ONLY with valid JSON:
{"form_analysis": "...", "confidence": 0.0}`,

	StepDiagnosis + "_system": `You are a certified sports medicine professional and biomechanical analyst specializing in diagnosing exercise-related injuries. Respond ONLY with valid JSON.`,

	StepDiagnosis + "_user": `Using the data below, produce a precise, evidence-based injury hypothesis.

Case record:
{{.Record}}

Your diagnosis text must name the most likely injury or tissue involved and
the mechanism, explain the root cause in relation to form errors or overuse,
note red flags that require clinical evaluation, and suggest what an
in-person assessment would focus on. Under 220 words, professional tone.

Respond ONLY with valid JSON:
{"diagnosis": "...", "requires_medical_attention": false, "confidence": 0.0}`,

	StepResearch + "_system": `You synthesize research findings supporting an injury diagnosis, citing the provided sources. Respond ONLY with valid JSON.`,

	StepResearch + "_user": `Synthesize the research findings below.

Case record:
{{.Record}}

Retrieved evidence:
{{.Evidence}}

Provide two or three key evidence points citing the sources and a short note
on how well the research supports the diagnosis. Under 150 words.

Respond ONLY with valid JSON:
{"research_findings": "...", "confidence": 0.0}`,

	StepPrescription + "_system": `You create personalized recovery action plans for exercise-related injuries. Respond ONLY with valid JSON.`,

	StepPrescription + "_user": `Create a plain-text action plan (no markdown symbols) for this case.

Case record:
{{.Record}}

Structure the plan as sections: ROOT CAUSE, IMMEDIATE ACTION, THIS WEEK
(exercises with sets/reps), MONITOR, SEE PROFESSIONAL IF. Bullets with "-",
no stars.

Respond ONLY with valid JSON:
{"action_plan": "...", "confidence": 0.0}`,
}
