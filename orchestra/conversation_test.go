package orchestra

import (
	stderrors "errors"
	"testing"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

func TestFindGapsOrder(t *testing.T) {
	cfg := NewConfig()
	c := NewConversation(cfg)

	rec := caserecord.New()
	gaps := c.FindGaps(rec, capability.StepFormAnalysis)
	want := []string{
		caserecord.FieldExercise,
		caserecord.FieldPainLocation,
		caserecord.FieldPainTiming,
	}
	if len(gaps) != len(want) {
		t.Fatalf("gaps = %v, want %v", gaps, want)
	}
	for i := range want {
		if gaps[i] != want[i] {
			t.Errorf("gaps[%d] = %q, want %q", i, gaps[i], want[i])
		}
	}

	if err := rec.Apply("parse", map[string]string{caserecord.FieldExercise: "squat"}); err != nil {
		t.Fatal(err)
	}
	gaps = c.FindGaps(rec, capability.StepFormAnalysis)
	if len(gaps) != 2 || gaps[0] != caserecord.FieldPainLocation {
		t.Errorf("gaps after filling exercise = %v", gaps)
	}
}

func TestFindGapsIgnoresPlaceholders(t *testing.T) {
	cfg := NewConfig()
	c := NewConversation(cfg)

	rec := caserecord.New()
	if err := rec.Apply("parse", map[string]string{caserecord.FieldExercise: "unknown"}); err != nil {
		t.Fatal(err)
	}
	gaps := c.FindGaps(rec, capability.StepDiagnosis)
	if len(gaps) != 2 {
		t.Errorf("placeholder value should still count as a gap, gaps = %v", gaps)
	}
}

func TestQuestionUnknownField(t *testing.T) {
	c := NewConversation(NewConfig())
	_, err := c.Question("no_such_field")
	if !stderrors.Is(err, errors.ErrInternalInconsistency) {
		t.Fatalf("err = %v, want ErrInternalInconsistency", err)
	}
}

func TestNextOptionalRespectsCapAndForceProceed(t *testing.T) {
	cfg := NewConfig(WithOptionalQuestionCap(2))
	c := NewConversation(cfg)
	sess := session.New("s")

	if field := c.NextOptional(sess); field != caserecord.FieldPainSide {
		t.Errorf("first optional = %q, want pain_side", field)
	}

	sess.AskedFields[caserecord.FieldPainSide] = 1
	sess.OptionalAsked = 1
	if field := c.NextOptional(sess); field != caserecord.FieldPainIntensity {
		t.Errorf("second optional = %q, want pain_intensity", field)
	}

	sess.OptionalAsked = 2
	if field := c.NextOptional(sess); field != "" {
		t.Errorf("cap reached but still asking about %q", field)
	}

	sess.OptionalAsked = 0
	sess.ForceProceed = true
	if field := c.NextOptional(sess); field != "" {
		t.Errorf("force-proceed ignored, asking about %q", field)
	}
}

func TestNextOptionalSkipsKnownFields(t *testing.T) {
	c := NewConversation(NewConfig())
	sess := session.New("s")
	if err := sess.Record.Apply("parse", map[string]string{caserecord.FieldPainSide: "right"}); err != nil {
		t.Fatal(err)
	}
	if field := c.NextOptional(sess); field != caserecord.FieldPainIntensity {
		t.Errorf("optional = %q, want pain_intensity", field)
	}
}

func TestWantsToProceed(t *testing.T) {
	for _, text := range []string{"no", "Skip", "  proceed  ", "just tell me", "Nothing."} {
		if !WantsToProceed(text) {
			t.Errorf("WantsToProceed(%q) = false", text)
		}
	}
	for _, text := range []string{"my knee hurts", "right side", "no pain on the left"} {
		if WantsToProceed(text) {
			t.Errorf("WantsToProceed(%q) = true", text)
		}
	}
}
