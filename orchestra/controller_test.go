package orchestra

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/errors"
)

func TestControllerAcceptsFirstAttempt(t *testing.T) {
	cfg := NewConfig(WithThreshold(0.7), WithMaxAttempts(3))
	c := NewController(cfg)

	stub := &stubCapability{name: capability.StepDiagnosis, results: []*capability.Result{
		okResult(capability.StepDiagnosis, 0.8, map[string]string{caserecord.FieldDiagnosis: "tendinopathy"}),
	}}
	res := c.Execute(context.Background(), stub, caserecord.New(), "")

	if stub.calls != 1 {
		t.Errorf("calls = %d, want exactly 1", stub.calls)
	}
	if res.Degraded || res.Unavailable {
		t.Errorf("result flags = degraded:%v unavailable:%v", res.Degraded, res.Unavailable)
	}
	if res.Attempts != 1 || res.Confidence != 0.8 {
		t.Errorf("attempts = %d, confidence = %v", res.Attempts, res.Confidence)
	}
}

func TestControllerDegradesAfterBudget(t *testing.T) {
	cfg := NewConfig(WithThreshold(0.7), WithMaxAttempts(2))
	c := NewController(cfg)

	stub := &stubCapability{name: capability.StepDiagnosis, results: []*capability.Result{
		okResult(capability.StepDiagnosis, 0.3, map[string]string{caserecord.FieldDiagnosis: "weak guess"}),
		okResult(capability.StepDiagnosis, 0.5, map[string]string{caserecord.FieldDiagnosis: "better guess"}),
	}}
	res := c.Execute(context.Background(), stub, caserecord.New(), "")

	if stub.calls != 2 {
		t.Errorf("calls = %d, want 2", stub.calls)
	}
	if !res.Degraded {
		t.Error("result should be degraded")
	}
	if res.Confidence != 0.5 {
		t.Errorf("confidence = %v, want best candidate 0.5", res.Confidence)
	}
	if res.Fields[caserecord.FieldDiagnosis] != "better guess" {
		t.Errorf("fields = %v, want the best-scoring candidate", res.Fields)
	}
}

func TestControllerRetryCarriesFeedback(t *testing.T) {
	cfg := NewConfig(WithThreshold(0.7), WithMaxAttempts(2))
	c := NewController(cfg)

	stub := &stubCapability{name: capability.StepFormAnalysis, results: []*capability.Result{
		okResult(capability.StepFormAnalysis, 0.4, map[string]string{caserecord.FieldFormAnalysis: "vague"}),
		okResult(capability.StepFormAnalysis, 0.9, map[string]string{caserecord.FieldFormAnalysis: "specific"}),
	}}
	res := c.Execute(context.Background(), stub, caserecord.New(), "")

	if res.Degraded {
		t.Error("second attempt crossed threshold, result must not be degraded")
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
	if stub.feedback[0] != "" {
		t.Errorf("first attempt feedback = %q, want empty", stub.feedback[0])
	}
	if !strings.Contains(stub.feedback[1], "below threshold") {
		t.Errorf("second attempt feedback = %q, want low-confidence note", stub.feedback[1])
	}
}

func TestControllerUnavailableOnHardErrors(t *testing.T) {
	cfg := NewConfig(WithMaxAttempts(2))
	c := NewController(cfg)

	failure := fmt.Errorf("%w: connection refused", errors.ErrCapabilityUnavailable)
	stub := &stubCapability{name: capability.StepDiagnosis, errs: []error{failure, failure}}
	res := c.Execute(context.Background(), stub, caserecord.New(), "")

	if stub.calls != 2 {
		t.Errorf("calls = %d, want exactly 2", stub.calls)
	}
	if !res.Unavailable {
		t.Error("result should carry the unavailable marker")
	}
	if len(res.Fields) != 0 {
		t.Errorf("unavailable result must carry no fields, got %v", res.Fields)
	}
}

func TestControllerTimeoutCountsAsFailedAttempt(t *testing.T) {
	cfg := NewConfig(WithMaxAttempts(2), WithTimeout(20*time.Millisecond))
	c := NewController(cfg)

	slow := &blockingCapability{name: capability.StepDiagnosis}
	res := c.Execute(context.Background(), slow, caserecord.New(), "")

	if slow.calls != 2 {
		t.Errorf("calls = %d, want 2", slow.calls)
	}
	if !res.Unavailable {
		t.Error("timeouts on every attempt should yield an unavailable result")
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
}

func TestControllerRejectsConflictingCandidate(t *testing.T) {
	cfg := NewConfig(WithThreshold(0.5), WithMaxAttempts(1))
	c := NewController(cfg)

	rec := caserecord.New()
	if err := rec.Apply(capability.StepParse, map[string]string{caserecord.FieldExercise: "squat"}); err != nil {
		t.Fatal(err)
	}
	// The candidate tries to overwrite a field another step owns. Even as a
	// degraded fallback it must be discarded.
	stub := &stubCapability{name: capability.StepDiagnosis, results: []*capability.Result{
		okResult(capability.StepDiagnosis, 0.9, map[string]string{caserecord.FieldExercise: "deadlift"}),
	}}
	res := c.Execute(context.Background(), stub, rec, "")

	if !res.Unavailable {
		t.Error("conflicting candidate must not be accepted or degrade-kept")
	}
}

func TestControllerOutOfRangeConfidence(t *testing.T) {
	cfg := NewConfig(WithMaxAttempts(1))
	c := NewController(cfg)

	stub := &stubCapability{name: capability.StepDiagnosis, results: []*capability.Result{
		okResult(capability.StepDiagnosis, 1.4, map[string]string{caserecord.FieldDiagnosis: "x"}),
	}}
	res := c.Execute(context.Background(), stub, caserecord.New(), "")

	if !res.Unavailable {
		t.Error("out-of-range confidence must disqualify the candidate entirely")
	}
}

// blockingCapability waits for the context to be cancelled.
type blockingCapability struct {
	name  string
	calls int
}

func (b *blockingCapability) Name() string { return b.name }

func (b *blockingCapability) Invoke(ctx context.Context, req *capability.Request) (*capability.Result, error) {
	b.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}
