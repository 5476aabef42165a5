package prompt

import (
	"strings"
	"testing"
)

func newTestBudget(t *testing.T, maxTokens int) *Budget {
	t.Helper()
	b, err := NewBudget("cl100k_base", maxTokens)
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	return b
}

func TestBudgetFitShortTextUntouched(t *testing.T) {
	b := newTestBudget(t, 100)
	text := "pain in the right knee during squats"
	if got := b.Fit(text); got != text {
		t.Errorf("Fit changed text under budget: %q", got)
	}
}

func TestBudgetFitTruncates(t *testing.T) {
	b := newTestBudget(t, 10)
	text := strings.Repeat("squat knee pain analysis ", 50)

	fitted := b.Fit(text)
	if len(fitted) >= len(text) {
		t.Error("Fit did not truncate oversized text")
	}
	if got := b.CountTokens(fitted); got > 10 {
		t.Errorf("fitted text counts %d tokens, budget is 10", got)
	}
}

func TestBudgetUnknownModelFallsBack(t *testing.T) {
	// Unknown model names fall back to encoding lookup; a name that is
	// neither must fail.
	if _, err := NewBudget("definitely-not-a-model-or-encoding", 100); err == nil {
		t.Fatal("expected error for unknown model and encoding")
	}
}
