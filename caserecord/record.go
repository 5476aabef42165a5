// Package caserecord holds the structured facts accumulated about one
// reported workout problem. Fields grow monotonically across turns: a step
// may refine fields it wrote itself, but never overwrite another step's.
package caserecord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sweetpotato0/rehab-orchestra/errors"
)

// Well-known field names contributed by the pipeline steps.
const (
	FieldExercise          = "exercise"
	FieldPainLocation      = "pain_location"
	FieldPainTiming        = "pain_timing"
	FieldPainSide          = "pain_side"
	FieldPainIntensity     = "pain_intensity"
	FieldPainType          = "pain_type"
	FieldAdditionalContext = "additional_context"
	FieldFormAnalysis      = "form_analysis"
	FieldDiagnosis         = "diagnosis"
	FieldRequiresMedical   = "requires_medical_attention"
	FieldResearchFindings  = "research_findings"
	FieldActionPlan        = "action_plan"
)

// Placeholder values treated as "not collected yet".
var unknownValues = map[string]struct{}{
	"":              {},
	"unknown":       {},
	"unspecified":   {},
	"not specified": {},
	"n/a":           {},
}

// IsUnknown reports whether a value counts as missing.
func IsUnknown(value string) bool {
	_, ok := unknownValues[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// Record maps field names to values and remembers which step wrote each field.
// It is not safe for concurrent use; the orchestrator serialises access per
// session.
type Record struct {
	fields map[string]string
	owners map[string]string
}

// New creates an empty case record.
func New() *Record {
	return &Record{
		fields: make(map[string]string),
		owners: make(map[string]string),
	}
}

// Get returns the value of a field and whether it carries known content.
func (r *Record) Get(field string) (string, bool) {
	value, ok := r.fields[field]
	if !ok || IsUnknown(value) {
		return value, false
	}
	return value, true
}

// Has reports whether the field holds known content.
func (r *Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// Owner returns the step that first wrote the field.
func (r *Record) Owner(field string) (string, bool) {
	owner, ok := r.owners[field]
	return owner, ok
}

// Len returns the number of stored fields, including unknown placeholders.
func (r *Record) Len() int {
	return len(r.fields)
}

// Fields returns a copy of all stored fields.
func (r *Record) Fields() map[string]string {
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// FieldNames returns the sorted names of all stored fields.
func (r *Record) FieldNames() []string {
	names := make([]string, 0, len(r.fields))
	for k := range r.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CanApply reports whether applying the given fields on behalf of step would
// violate the ownership invariant. Used by the controller during reflection so
// a conflicting candidate counts as a failed attempt instead of corrupting the
// record.
func (r *Record) CanApply(step string, fields map[string]string) error {
	for field, value := range fields {
		owner, owned := r.owners[field]
		if !owned || owner == step {
			continue
		}
		current, known := r.Get(field)
		if !known || current == value || IsUnknown(value) {
			continue
		}
		return fmt.Errorf("%w: step %s cannot overwrite %q owned by %s", errors.ErrFieldConflict, step, field, owner)
	}
	return nil
}

// Apply merges the fields produced by step into the record. The merge is
// atomic: on an ownership conflict nothing is written. Unknown placeholder
// values never replace known content, and a field claimed by another step is
// silently kept when the incoming value agrees or carries no information.
func (r *Record) Apply(step string, fields map[string]string) error {
	if err := r.CanApply(step, fields); err != nil {
		return err
	}
	for field, value := range fields {
		value = strings.TrimSpace(value)
		if current, known := r.Get(field); known {
			owner := r.owners[field]
			if owner != step || IsUnknown(value) || current == value {
				continue
			}
		}
		if IsUnknown(value) {
			// Keep the placeholder only when the field is new, so the
			// field set still grows monotonically.
			if _, exists := r.fields[field]; exists {
				continue
			}
		}
		r.fields[field] = value
		if _, owned := r.owners[field]; !owned {
			r.owners[field] = step
		}
	}
	return nil
}

// Clone returns a deep copy, used to hand read views to capabilities.
func (r *Record) Clone() *Record {
	clone := New()
	for k, v := range r.fields {
		clone.fields[k] = v
	}
	for k, v := range r.owners {
		clone.owners[k] = v
	}
	return clone
}

// Snapshot returns serialisable copies of fields and owners.
func (r *Record) Snapshot() (fields, owners map[string]string) {
	owners = make(map[string]string, len(r.owners))
	for k, v := range r.owners {
		owners[k] = v
	}
	return r.Fields(), owners
}

// FromSnapshot rebuilds a record from persisted fields and owners.
func FromSnapshot(fields, owners map[string]string) *Record {
	r := New()
	for k, v := range fields {
		r.fields[k] = v
	}
	for k, v := range owners {
		r.owners[k] = v
	}
	return r
}

// Summary renders the known fields as "name: value" lines for prompts.
func (r *Record) Summary() string {
	var b strings.Builder
	for _, name := range r.FieldNames() {
		value, known := r.Get(name)
		if !known {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", strings.ReplaceAll(name, "_", " "), value)
	}
	return strings.TrimSpace(b.String())
}
