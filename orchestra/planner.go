package orchestra

import (
	"fmt"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

// DecisionKind enumerates what the planner can decide.
type DecisionKind string

const (
	DecideRun      DecisionKind = "run"      // run the named step
	DecideAsk      DecisionKind = "ask"      // ask the user the attached question
	DecideFinalize DecisionKind = "finalize" // all steps done, assemble the report
	DecideAbort    DecisionKind = "abort"    // internal fault, end the turn
)

// Decision is the planner's verdict for one planning cycle. Produced fresh
// each cycle, never persisted.
type Decision struct {
	Kind     DecisionKind
	Step     string // set for DecideRun
	Field    string // set for DecideAsk, the field the question targets
	Question string // set for DecideAsk
	Optional bool   // set for DecideAsk when the field is an optional one
	Reason   string // set for DecideAbort
}

// Planner selects the next pipeline action from the session state. Decide is
// a pure function of that state: re-running it on an unchanged session yields
// the same decision.
type Planner struct {
	cfg  *Config
	conv *Conversation
}

// NewPlanner creates the planner.
func NewPlanner(cfg *Config, conv *Conversation) *Planner {
	return &Planner{cfg: cfg, conv: conv}
}

// Decide walks the fixed step order and returns the first actionable
// decision. A step with any committed result, accepted, degraded or
// unavailable, is never re-run within a session; the retry budget lives
// inside the controller, so a committed result is always final for its step.
func (p *Planner) Decide(sess *session.Session) Decision {
	for _, step := range p.cfg.Steps {
		if _, done := sess.Result(step); done {
			continue
		}

		gaps := p.actionableGaps(sess, step)
		if len(gaps) == 0 {
			// Required data satisfied. Before the first real reasoning
			// step, offer a bounded number of optional questions; once
			// the pipeline is past that point it never asks again.
			if step == capability.StepFormAnalysis {
				if field := p.conv.NextOptional(sess); field != "" {
					return p.ask(field, true)
				}
			}
			return Decision{Kind: DecideRun, Step: step}
		}
		return p.ask(gaps[0], false)
	}
	return Decision{Kind: DecideFinalize}
}

// actionableGaps filters the step's missing fields down to the ones worth
// acting on. A field produced by an earlier step whose run already happened
// is dropped: the user cannot supply it and re-running is not allowed, so
// the pipeline advances with what it has.
func (p *Planner) actionableGaps(sess *session.Session, step string) []string {
	var gaps []string
	for _, field := range p.conv.FindGaps(sess.Record, step) {
		if producer, produced := p.cfg.FieldProducers[field]; produced {
			if _, attempted := sess.Result(producer); attempted {
				continue
			}
		}
		gaps = append(gaps, field)
	}
	return gaps
}

func (p *Planner) ask(field string, optional bool) Decision {
	question, err := p.conv.Question(field)
	if err != nil {
		// The requirement table and question map disagree. Fail the turn
		// loudly instead of looping on an unanswerable gap.
		return Decision{
			Kind:   DecideAbort,
			Reason: fmt.Sprintf("%v: %v", errors.ErrInternalInconsistency, err),
		}
	}
	return Decision{Kind: DecideAsk, Field: field, Question: question, Optional: optional}
}
