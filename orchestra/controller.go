package orchestra

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/pkg/logging"
	"github.com/sweetpotato0/rehab-orchestra/pkg/telemetry"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

// attemptState is the explicit state machine driving one Execute call.
type attemptState string

const (
	statePending        attemptState = "pending"
	stateReflecting     attemptState = "reflecting"
	stateRetryScheduled attemptState = "retry-scheduled"
	stateDegraded       attemptState = "degraded"
	stateAccepted       attemptState = "accepted"
)

// Controller wraps a single capability invocation in a bounded
// reason/reflect/retry loop. The retry cap is hard, never adaptive, and the
// per-attempt timeout makes this the only place in the core where blocking
// external calls are bounded.
type Controller struct {
	cfg    *Config
	logger *slog.Logger
	tracer trace.Tracer
}

// NewController creates the reasoning controller.
func NewController(cfg *Config) *Controller {
	return &Controller{
		cfg:    cfg,
		logger: logging.WithComponent("controller"),
		tracer: telemetry.Tracer("rehab-orchestra/controller"),
	}
}

// Execute runs the capability until a result crosses the step's confidence
// threshold or the attempt budget runs out. It always returns a StepResult:
// accepted, degraded (best candidate below threshold), or unavailable (no
// valid candidate at all). The record is a read view; nothing is committed
// here.
func (c *Controller) Execute(ctx context.Context, cp capability.Capability, rec *caserecord.Record, input string) *session.StepResult {
	step := cp.Name()
	sc := c.cfg.Step(step)

	var (
		best     *capability.Result
		feedback string
		state    = statePending
	)

	attempt := 0
	for state != stateAccepted && state != stateDegraded {
		switch state {
		case statePending, stateRetryScheduled:
			attempt++
			res, err := c.invoke(ctx, cp, rec, input, feedback, attempt, sc.Timeout)
			if err != nil {
				c.logger.Warn("capability attempt failed",
					"step", step, "attempt", attempt, "error", err)
				feedback = attemptFeedback(err)
				state = c.afterFailure(attempt, sc.MaxAttempts)
				continue
			}
			// Reflect on the candidate.
			state = stateReflecting
			if reflectErr := c.reflect(step, res, rec, sc.Threshold); reflectErr != nil {
				c.logger.Info("candidate rejected on reflection",
					"step", step, "attempt", attempt,
					"confidence", res.Confidence, "reason", reflectErr)
				if isValidCandidate(res, rec) && (best == nil || res.Confidence > best.Confidence) {
					best = res
				}
				feedback = reflectErr.Error()
				state = c.afterFailure(attempt, sc.MaxAttempts)
				continue
			}
			best = res
			state = stateAccepted

		default:
			// Unreachable; the loop only parks in pending or retry-scheduled.
			state = stateDegraded
		}
	}

	now := time.Now()
	if best == nil {
		c.logger.Error("capability unavailable after budget exhaustion",
			"step", step, "attempts", attempt)
		return &session.StepResult{
			Step:        step,
			Attempts:    attempt,
			Unavailable: true,
			UpdatedAt:   now,
		}
	}

	result := &session.StepResult{
		Step:       step,
		Fields:     best.Fields,
		Confidence: best.Confidence,
		Citations:  best.Citations,
		Attempts:   attempt,
		Degraded:   state == stateDegraded,
		UpdatedAt:  now,
	}
	c.logger.Info("step completed",
		"step", step, "attempts", attempt,
		"confidence", result.Confidence, "degraded", result.Degraded)
	return result
}

// invoke performs one capability attempt under the per-attempt deadline.
func (c *Controller) invoke(ctx context.Context, cp capability.Capability, rec *caserecord.Record, input, feedback string, attempt int, timeout time.Duration) (res *capability.Result, err error) {
	ctx, span := c.tracer.Start(ctx, "attempt."+cp.Name(),
		trace.WithAttributes(attribute.Int("attempt", attempt)))
	defer func() { telemetry.End(span, err) }()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err = cp.Invoke(ctx, &capability.Request{
		Record:   rec,
		Input:    input,
		Feedback: feedback,
		Attempt:  attempt,
	})
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: attempt timed out after %s", errors.ErrCapabilityUnavailable, timeout)
		}
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: capability returned no result", errors.ErrMalformedOutput)
	}
	return res, nil
}

// reflect checks a candidate for internal consistency and threshold.
func (c *Controller) reflect(step string, res *capability.Result, rec *caserecord.Record, threshold float64) error {
	if res.Confidence < 0 || res.Confidence > 1 {
		return fmt.Errorf("confidence %.2f outside [0,1]", res.Confidence)
	}
	if err := rec.CanApply(step, res.Fields); err != nil {
		return fmt.Errorf("output conflicts with the case record: %v", err)
	}
	if res.Confidence < threshold {
		return fmt.Errorf("confidence %.2f below threshold %.2f", res.Confidence, threshold)
	}
	return nil
}

// isValidCandidate reports whether a rejected candidate may still serve as a
// degraded fallback. Out-of-range confidence or conflicting fields disqualify
// it entirely.
func isValidCandidate(res *capability.Result, rec *caserecord.Record) bool {
	if res.Confidence < 0 || res.Confidence > 1 {
		return false
	}
	return rec.CanApply(res.Step, res.Fields) == nil
}

func (c *Controller) afterFailure(attempt, maxAttempts int) attemptState {
	if attempt < maxAttempts {
		return stateRetryScheduled
	}
	return stateDegraded
}

func attemptFeedback(err error) string {
	if stderrors.Is(err, errors.ErrMalformedOutput) {
		return "the previous reply was not valid JSON with the required fields"
	}
	return ""
}
