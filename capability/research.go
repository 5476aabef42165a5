package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/provider"
	"github.com/sweetpotato0/rehab-orchestra/retrieval"
)

// Researcher gathers supporting evidence for the diagnosis. It queries the
// configured retrieval backend and asks the LLM to synthesize the findings
// into a short evidence summary with citations.
type Researcher struct {
	llmStep
	searcher retrieval.Searcher
}

// NewResearcher creates the research capability. searcher may be nil, in which
// case every invocation reports ErrCapabilityUnavailable and the controller
// marks the step degraded.
func NewResearcher(llm provider.LLMClient, searcher retrieval.Searcher, opts ...Option) *Researcher {
	return &Researcher{
		llmStep:  newLLMStep(StepResearch, llm, opts),
		searcher: searcher,
	}
}

// Name implements Capability.
func (r *Researcher) Name() string { return StepResearch }

type researchOutput struct {
	ResearchFindings string     `json:"research_findings"`
	Confidence       Confidence `json:"confidence"`
}

// Invoke implements Capability.
func (r *Researcher) Invoke(ctx context.Context, req *Request) (*Result, error) {
	if r.searcher == nil {
		return nil, fmt.Errorf("%w: no retrieval backend configured", errors.ErrCapabilityUnavailable)
	}

	query := buildResearchQuery(req.Record)
	findings, err := r.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieval failed: %v", errors.ErrCapabilityUnavailable, err)
	}
	if len(findings) == 0 {
		return nil, fmt.Errorf("%w: retrieval returned no results for %q", errors.ErrCapabilityUnavailable, query)
	}
	r.logger.Debug("retrieved evidence", "query", query, "findings", len(findings))

	vars := map[string]interface{}{
		"Record":   req.Record.Summary(),
		"Evidence": renderFindings(findings),
	}
	raw, err := r.generate(ctx, vars, req.Feedback)
	if err != nil {
		return nil, err
	}

	out, err := decodeJSON[researchOutput](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: research output: %v", errors.ErrMalformedOutput, err)
	}
	if caserecord.IsUnknown(out.ResearchFindings) {
		return nil, fmt.Errorf("%w: research findings missing from output", errors.ErrMalformedOutput)
	}

	citations := make([]Citation, 0, len(findings))
	for _, f := range findings {
		citations = append(citations, Citation{
			Source:    f.Source,
			Title:     f.Title,
			Excerpt:   f.Excerpt,
			Relevance: f.Relevance,
		})
	}

	return &Result{
		Step:       StepResearch,
		Fields:     map[string]string{caserecord.FieldResearchFindings: out.ResearchFindings},
		Confidence: float64(out.Confidence),
		Citations:  citations,
	}, nil
}

func buildResearchQuery(rec *caserecord.Record) string {
	parts := make([]string, 0, 3)
	if diagnosis, ok := rec.Get(caserecord.FieldDiagnosis); ok {
		// The diagnosis is prose; keep the first sentence as the query core.
		if idx := strings.IndexAny(diagnosis, ".\n"); idx > 0 {
			diagnosis = diagnosis[:idx]
		}
		parts = append(parts, diagnosis)
	}
	if exercise, ok := rec.Get(caserecord.FieldExercise); ok {
		parts = append(parts, exercise)
	}
	parts = append(parts, "rehabilitation evidence")
	return strings.Join(parts, " ")
}

func renderFindings(findings []retrieval.Finding) string {
	var b strings.Builder
	for i, f := range findings {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, f.Title, f.Source, f.Excerpt)
	}
	return strings.TrimSpace(b.String())
}
