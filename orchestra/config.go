// Package orchestra is the core of the pipeline: it decides, turn by turn,
// which reasoning step runs next, whether enough information exists to
// proceed, how confidence gates progress, and when to ask the user for
// clarification instead.
package orchestra

import (
	"fmt"
	"time"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/config"
	"github.com/sweetpotato0/rehab-orchestra/errors"
)

// StepConfig holds the per-step knobs read by the planner and the controller.
type StepConfig struct {
	Threshold   float64       // minimum acceptable confidence
	MaxAttempts int           // hard cap on reason/reflect/retry cycles
	Timeout     time.Duration // per-attempt deadline, 0 means no deadline
}

// Config parameterises the orchestration core. Zero values are filled with
// defaults by NewConfig; Validate runs once at startup and any failure is
// fatal (ErrConfiguration), never recovered at request time.
type Config struct {
	// Steps is the fixed pipeline order. Never reordered at runtime.
	Steps []string

	// StepConfigs overrides the defaults per step name.
	StepConfigs map[string]StepConfig

	DefaultThreshold   float64
	DefaultMaxAttempts int
	DefaultTimeout     time.Duration

	// RequiredFields declares, per step, the case record fields that must be
	// known before the step may run.
	RequiredFields map[string][]string

	// Questions maps a field name to the clarifying question asked when the
	// field is missing. Every user-provided field in RequiredFields and
	// OptionalFields must have an entry.
	Questions map[string]string

	// FieldProducers maps fields that are produced by pipeline steps rather
	// than by the user. A gap in such a field is never asked about; once its
	// producing step has run, the pipeline advances with or without it.
	FieldProducers map[string]string

	// OptionalFields are asked about, in order, after the required fields
	// are satisfied, up to OptionalQuestionCap questions per session.
	OptionalFields      []string
	OptionalQuestionCap int

	// MaxTurnIterations bounds the decide/act loop within one turn.
	MaxTurnIterations int
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithThreshold sets the default confidence threshold.
func WithThreshold(t float64) Option {
	return func(c *Config) { c.DefaultThreshold = t }
}

// WithMaxAttempts sets the default retry budget per step.
func WithMaxAttempts(n int) Option {
	return func(c *Config) { c.DefaultMaxAttempts = n }
}

// WithStepConfig overrides the knobs for one step.
func WithStepConfig(step string, sc StepConfig) Option {
	return func(c *Config) { c.StepConfigs[step] = sc }
}

// WithTimeout sets the default per-attempt deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.DefaultTimeout = d }
}

// WithOptionalQuestionCap bounds optional clarifying questions per session.
func WithOptionalQuestionCap(n int) Option {
	return func(c *Config) { c.OptionalQuestionCap = n }
}

// NewConfig builds a Config with the fixed pipeline defaults applied.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		Steps:              capability.Steps(),
		StepConfigs:        make(map[string]StepConfig),
		DefaultThreshold:   0.7,
		DefaultMaxAttempts: 2,
		DefaultTimeout:     60 * time.Second,
		RequiredFields:     defaultRequiredFields(),
		Questions:          defaultQuestions(),
		FieldProducers: map[string]string{
			caserecord.FieldFormAnalysis:     capability.StepFormAnalysis,
			caserecord.FieldDiagnosis:        capability.StepDiagnosis,
			caserecord.FieldResearchFindings: capability.StepResearch,
			caserecord.FieldActionPlan:       capability.StepPrescription,
		},
		OptionalFields: []string{
			caserecord.FieldPainSide,
			caserecord.FieldPainIntensity,
			caserecord.FieldAdditionalContext,
		},
		OptionalQuestionCap: 3,
		MaxTurnIterations:   10,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Step returns the effective config for a step, falling back to defaults.
func (c *Config) Step(name string) StepConfig {
	sc, ok := c.StepConfigs[name]
	if !ok {
		sc = StepConfig{}
	}
	if sc.Threshold == 0 {
		sc.Threshold = c.DefaultThreshold
	}
	if sc.MaxAttempts == 0 {
		sc.MaxAttempts = c.DefaultMaxAttempts
	}
	if sc.Timeout == 0 {
		sc.Timeout = c.DefaultTimeout
	}
	return sc
}

// Validate checks the configuration at startup. Any error wraps
// ErrConfiguration and should abort process start.
func (c *Config) Validate() error {
	v := config.NewValidator()
	v.RequirePositive("max_turn_iterations", c.MaxTurnIterations)
	v.RequirePositive("default_max_attempts", c.DefaultMaxAttempts)
	v.ValidateFloatRange("default_threshold", c.DefaultThreshold, 0, 1)
	if len(c.Steps) == 0 {
		v.RequireNonEmpty("steps", "")
	}
	for step, sc := range c.StepConfigs {
		v.ValidateOneOf("step_configs."+step, step, c.Steps...)
		if sc.Threshold != 0 {
			v.ValidateFloatRange("step_configs."+step+".threshold", sc.Threshold, 0, 1)
		}
		if sc.MaxAttempts < 0 {
			v.RequirePositive("step_configs."+step+".max_attempts", sc.MaxAttempts)
		}
	}
	for step, fields := range c.RequiredFields {
		v.ValidateOneOf("required_fields."+step, step, c.Steps...)
		for _, field := range fields {
			if _, produced := c.FieldProducers[field]; produced {
				continue
			}
			if _, ok := c.Questions[field]; !ok {
				v.RequireNonEmpty("questions."+field, "")
			}
		}
	}
	for _, field := range c.OptionalFields {
		if _, ok := c.Questions[field]; !ok {
			v.RequireNonEmpty("questions."+field, "")
		}
	}
	if err := v.Error(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrConfiguration, err)
	}
	return nil
}

// defaultRequiredFields declares which case record fields gate each step.
// Parse has no prerequisites; it is what fills the record in the first place.
func defaultRequiredFields() map[string][]string {
	return map[string][]string{
		capability.StepParse: {},
		capability.StepFormAnalysis: {
			caserecord.FieldExercise,
			caserecord.FieldPainLocation,
			caserecord.FieldPainTiming,
		},
		capability.StepDiagnosis: {
			caserecord.FieldExercise,
			caserecord.FieldPainLocation,
		},
		capability.StepResearch: {
			caserecord.FieldDiagnosis,
		},
		capability.StepPrescription: {
			caserecord.FieldDiagnosis,
		},
	}
}

func defaultQuestions() map[string]string {
	return map[string]string{
		caserecord.FieldExercise:          "Which exercise were you doing when the pain appeared?",
		caserecord.FieldPainLocation:      "Where exactly do you feel the pain?",
		caserecord.FieldPainTiming:        "When does the pain occur: during the movement, right after, or the next day?",
		caserecord.FieldPainSide:          "Is the pain on the left side, the right side, or both?",
		caserecord.FieldPainIntensity:     "How would you describe the pain: sharp, dull, aching, or burning?",
		caserecord.FieldAdditionalContext: "Anything else worth knowing, like previous injuries or recent changes in training load?",
	}
}
