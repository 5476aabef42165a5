package capability

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// decodeJSON tries to unmarshal the raw model output into T after stripping fences.
func decodeJSON[T any](raw string) (*T, error) {
	clean := sanitizeJSON(raw)
	var out T
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	return &out, nil
}

func sanitizeJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	// Models occasionally wrap the object in prose; keep the outermost braces.
	if !strings.HasPrefix(trimmed, "{") {
		start := strings.Index(trimmed, "{")
		end := strings.LastIndex(trimmed, "}")
		if start >= 0 && end > start {
			trimmed = trimmed[start : end+1]
		}
	}
	return trimmed
}

// Confidence accepts either a numeric score or the low/medium/high labels some
// models emit despite instructions.
type Confidence float64

func (c *Confidence) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*c = Confidence(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("confidence must be a number or label: %s", string(data))
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		*c = 0.25
	case "medium", "moderate":
		*c = 0.55
	case "high":
		*c = 0.85
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("unrecognised confidence label %q", s)
		}
		*c = Confidence(f)
	}
	return nil
}

// Flag accepts a boolean or its textual spellings.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("flag must be a boolean or string: %s", string(data))
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}
