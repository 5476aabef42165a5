package orchestra

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/message"
	"github.com/sweetpotato0/rehab-orchestra/pkg/logging"
	"github.com/sweetpotato0/rehab-orchestra/pkg/telemetry"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

// ResponseType classifies what a turn produced.
type ResponseType string

const (
	ResponseQuestion    ResponseType = "question"    // clarifying question, more input needed
	ResponsePartial     ResponseType = "partial"     // progress report, pipeline unfinished
	ResponseFinal       ResponseType = "final"       // full report attached
	ResponseUnavailable ResponseType = "unavailable" // analysis could not be completed
)

// Response is what HandleTurn returns to the surrounding service.
type Response struct {
	SessionID string       `json:"session_id"`
	Type      ResponseType `json:"type"`
	Text      string       `json:"text"`
	Report    *Report      `json:"report,omitempty"`
}

// Orchestrator drives the pipeline turn by turn. It is the only component
// that mutates session state; the planner, controller and capabilities all
// work on read views and hand results back for the orchestrator to commit.
type Orchestrator struct {
	cfg        *Config
	sessions   *session.Manager
	caps       map[string]capability.Capability
	conv       *Conversation
	planner    *Planner
	controller *Controller
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates an orchestrator. Configuration problems are fatal here, at
// startup, never at request time.
func New(cfg *Config, sessions *session.Manager, caps []capability.Capability) (*Orchestrator, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sessions == nil {
		return nil, fmt.Errorf("%w: session manager is required", errors.ErrConfiguration)
	}

	byName := make(map[string]capability.Capability, len(caps))
	for _, cp := range caps {
		byName[cp.Name()] = cp
	}
	for _, step := range cfg.Steps {
		if _, ok := byName[step]; !ok {
			return nil, fmt.Errorf("%w: no capability registered for step %q", errors.ErrConfiguration, step)
		}
	}

	conv := NewConversation(cfg)
	return &Orchestrator{
		cfg:        cfg,
		sessions:   sessions,
		caps:       byName,
		conv:       conv,
		planner:    NewPlanner(cfg, conv),
		controller: NewController(cfg),
		logger:     logging.WithComponent("orchestrator"),
		tracer:     telemetry.Tracer("rehab-orchestra/orchestrator"),
	}, nil
}

// HandleTurn processes one user message for a session and returns a
// clarifying question, a progress report, or the final report. Turns on the
// same session are serialised; turns on different sessions run concurrently.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userMessage string) (resp *Response, err error) {
	ctx, span := o.tracer.Start(ctx, "turn",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer func() { telemetry.End(span, err) }()

	sess, release, err := o.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	switch sess.State {
	case session.StateFinal:
		// The report was already delivered; repeat it rather than re-run.
		report := BuildReport(sess)
		return &Response{SessionID: sessionID, Type: ResponseFinal, Text: report.Render(), Report: report}, nil
	case session.StateAborted:
		return o.unavailable(ctx, sess, "this session ended without a result, please start a new one")
	}

	o.ingest(sess, userMessage)

	for i := 0; i < o.cfg.MaxTurnIterations; i++ {
		decision := o.planner.Decide(sess)
		switch decision.Kind {
		case DecideAsk:
			return o.ask(ctx, sess, decision)

		case DecideRun:
			result := o.controller.Execute(ctx, o.caps[decision.Step], sess.Record.Clone(), userMessage)
			if err := o.commit(sess, result); err != nil {
				o.logger.Error("commit failed", "session_id", sessionID, "step", decision.Step, "error", err)
				return o.unavailable(ctx, sess, "analysis unavailable")
			}

		case DecideFinalize:
			return o.finalize(ctx, sess)

		case DecideAbort:
			o.logger.Error("planner aborted turn", "session_id", sessionID, "reason", decision.Reason)
			return o.unavailable(ctx, sess, "analysis unavailable")

		default:
			return o.unavailable(ctx, sess, "analysis unavailable")
		}
	}

	// The iteration bound tripped before the pipeline finished. Report
	// progress instead of looping forever.
	o.logger.Warn("turn iteration bound reached", "session_id", sessionID)
	resp = &Response{
		SessionID: sess.ID,
		Type:      ResponsePartial,
		Text:      o.progressText(sess),
	}
	if err := o.sessions.Persist(ctx, sess); err != nil {
		return nil, err
	}
	return resp, nil
}

// RunOnce drives a fresh description through the whole pipeline in a single
// call, skipping optional questions. Required gaps still surface as a
// question response since nobody is there to answer them.
func (o *Orchestrator) RunOnce(ctx context.Context, sessionID, description string) (*Response, error) {
	sess, release, err := o.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.ForceProceed = true
	release()

	return o.HandleTurn(ctx, sessionID, description)
}

// ingest appends the message and merges whatever the lexical extractor can
// pull out of it, so follow-up answers land in the record without an extra
// model round trip.
func (o *Orchestrator) ingest(sess *session.Session, userMessage string) {
	sess.Append(message.NewMessage(message.RoleUser, userMessage))
	sess.State = session.StateCollecting

	if WantsToProceed(userMessage) {
		sess.ForceProceed = true
		return
	}
	extracted := capability.Extract(userMessage)
	if len(extracted) == 0 {
		return
	}
	// Lexical hits are written on the parse step's behalf so the parse
	// capability may refine them later.
	if err := sess.Record.Apply(capability.StepParse, extracted); err != nil {
		o.logger.Warn("lexical merge skipped", "session_id", sess.ID, "error", err)
	}
}

// commit atomically applies a step result to the session. Unavailable results
// carry no fields; they are recorded so the planner advances past the step.
func (o *Orchestrator) commit(sess *session.Session, result *session.StepResult) error {
	if !result.Unavailable && len(result.Fields) > 0 {
		if err := sess.Record.Apply(result.Step, result.Fields); err != nil {
			return err
		}
	}
	sess.SetResult(result)
	sess.State = session.StateReasoning
	return nil
}

func (o *Orchestrator) ask(ctx context.Context, sess *session.Session, decision Decision) (*Response, error) {
	sess.State = session.StateCollecting
	sess.AskedFields[decision.Field]++
	if decision.Optional {
		sess.OptionalAsked++
	}
	sess.Append(message.NewMessage(message.RoleAssistant, decision.Question))

	if err := o.sessions.Persist(ctx, sess); err != nil {
		return nil, err
	}
	return &Response{SessionID: sess.ID, Type: ResponseQuestion, Text: decision.Question}, nil
}

func (o *Orchestrator) finalize(ctx context.Context, sess *session.Session) (*Response, error) {
	report := BuildReport(sess)
	text := report.Render()
	sess.State = session.StateFinal
	sess.Append(message.NewMessage(message.RoleAssistant, text))

	if err := o.sessions.Persist(ctx, sess); err != nil {
		return nil, err
	}
	o.logger.Info("session finalised", "session_id", sess.ID, "steps", len(sess.Results))
	return &Response{SessionID: sess.ID, Type: ResponseFinal, Text: text, Report: report}, nil
}

func (o *Orchestrator) unavailable(ctx context.Context, sess *session.Session, text string) (*Response, error) {
	sess.State = session.StateAborted
	if err := o.sessions.Persist(ctx, sess); err != nil {
		return nil, err
	}
	return &Response{SessionID: sess.ID, Type: ResponseUnavailable, Text: text}, nil
}

func (o *Orchestrator) progressText(sess *session.Session) string {
	done := 0
	for _, step := range o.cfg.Steps {
		if sess.Completed(step) {
			done++
		}
	}
	return fmt.Sprintf("analysis in progress: %d of %d steps completed", done, len(o.cfg.Steps))
}
