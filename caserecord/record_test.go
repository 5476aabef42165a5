package caserecord

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/sweetpotato0/rehab-orchestra/errors"
)

func TestApplyAndGet(t *testing.T) {
	r := New()
	if err := r.Apply("parse", map[string]string{
		"exercise":      "squat",
		"pain_location": "right knee",
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if v, ok := r.Get("exercise"); !ok || v != "squat" {
		t.Errorf("exercise = %q, %v", v, ok)
	}
	if owner, ok := r.Owner("exercise"); !ok || owner != "parse" {
		t.Errorf("owner = %q, %v", owner, ok)
	}
	if !r.Has("pain_location") {
		t.Error("pain_location missing")
	}
}

func TestOwnerMayRefineOwnField(t *testing.T) {
	r := New()
	if err := r.Apply("parse", map[string]string{"pain_location": "knee"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply("parse", map[string]string{"pain_location": "right knee"}); err != nil {
		t.Fatalf("owner refinement rejected: %v", err)
	}
	if v, _ := r.Get("pain_location"); v != "right knee" {
		t.Errorf("pain_location = %q", v)
	}
	if owner, _ := r.Owner("pain_location"); owner != "parse" {
		t.Errorf("owner changed to %q", owner)
	}
}

func TestForeignOverwriteRejected(t *testing.T) {
	r := New()
	if err := r.Apply("parse", map[string]string{"exercise": "squat"}); err != nil {
		t.Fatal(err)
	}

	err := r.Apply("diagnosis", map[string]string{
		"exercise":  "deadlift",
		"diagnosis": "tendinopathy",
	})
	if !stderrors.Is(err, errors.ErrFieldConflict) {
		t.Fatalf("err = %v, want ErrFieldConflict", err)
	}
	// Atomic: the conflicting apply must not have written anything.
	if r.Has("diagnosis") {
		t.Error("partial write on conflicting apply")
	}
	if v, _ := r.Get("exercise"); v != "squat" {
		t.Errorf("exercise = %q, original overwritten", v)
	}
}

func TestAgreeingForeignValueIgnored(t *testing.T) {
	r := New()
	if err := r.Apply("parse", map[string]string{"exercise": "squat"}); err != nil {
		t.Fatal(err)
	}
	// Same value from a different step is harmless.
	if err := r.Apply("diagnosis", map[string]string{
		"exercise":  "squat",
		"diagnosis": "tendinopathy",
	}); err != nil {
		t.Fatalf("agreeing value rejected: %v", err)
	}
	if owner, _ := r.Owner("exercise"); owner != "parse" {
		t.Errorf("owner = %q, want parse", owner)
	}
}

func TestPlaceholderNeverReplacesContent(t *testing.T) {
	r := New()
	if err := r.Apply("parse", map[string]string{"exercise": "squat"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply("parse", map[string]string{"exercise": "unknown"}); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.Get("exercise"); v != "squat" {
		t.Errorf("exercise = %q, placeholder replaced content", v)
	}
}

func TestFieldSetGrowsMonotonically(t *testing.T) {
	r := New()
	if err := r.Apply("parse", map[string]string{"exercise": "squat", "pain_side": "unknown"}); err != nil {
		t.Fatal(err)
	}
	before := r.Len()
	if err := r.Apply("parse", map[string]string{"pain_timing": "during ascent"}); err != nil {
		t.Fatal(err)
	}
	if r.Len() < before {
		t.Errorf("field count shrank from %d to %d", before, r.Len())
	}
	// Placeholder fields are stored but not reported as known.
	if r.Has("pain_side") {
		t.Error("placeholder reported as known content")
	}
}

func TestIsUnknown(t *testing.T) {
	for _, v := range []string{"", "unknown", "  Unknown ", "N/A", "not specified"} {
		if !IsUnknown(v) {
			t.Errorf("IsUnknown(%q) = false", v)
		}
	}
	if IsUnknown("right knee") {
		t.Error("IsUnknown(right knee) = true")
	}
}

func TestCloneIsolation(t *testing.T) {
	r := New()
	if err := r.Apply("parse", map[string]string{"exercise": "squat"}); err != nil {
		t.Fatal(err)
	}
	clone := r.Clone()
	if err := clone.Apply("parse", map[string]string{"exercise": "deadlift"}); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.Get("exercise"); v != "squat" {
		t.Errorf("clone mutation leaked, exercise = %q", v)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	r := New()
	if err := r.Apply("parse", map[string]string{"exercise": "squat"}); err != nil {
		t.Fatal(err)
	}
	fields, owners := r.Snapshot()
	restored := FromSnapshot(fields, owners)

	if v, _ := restored.Get("exercise"); v != "squat" {
		t.Errorf("restored exercise = %q", v)
	}
	if owner, _ := restored.Owner("exercise"); owner != "parse" {
		t.Errorf("restored owner = %q", owner)
	}
}

func TestSummary(t *testing.T) {
	r := New()
	if err := r.Apply("parse", map[string]string{
		"exercise":  "squat",
		"pain_side": "unknown",
	}); err != nil {
		t.Fatal(err)
	}
	summary := r.Summary()
	if !strings.Contains(summary, "exercise: squat") {
		t.Errorf("summary = %q", summary)
	}
	if strings.Contains(summary, "pain side") {
		t.Errorf("summary renders placeholder field: %q", summary)
	}
}
