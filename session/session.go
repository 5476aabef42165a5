// Package session tracks the multi-turn state of one reported workout
// problem: the dialogue transcript, the accumulated case record, and the
// outcome of every pipeline step executed so far.
package session

import (
	"time"

	"github.com/sweetpotato0/rehab-orchestra/capability"
	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/message"
)

// State describes where a session is in its lifecycle.
type State string

const (
	StateCollecting State = "collecting" // gathering required fields from the user
	StateReasoning  State = "reasoning"  // running pipeline steps
	StateFinal      State = "final"      // report delivered
	StateAborted    State = "aborted"    // ended without a report
)

// StepResult records the accepted outcome of one pipeline step.
type StepResult struct {
	Step        string                `json:"step"`
	Fields      map[string]string     `json:"fields"`
	Confidence  float64               `json:"confidence"`
	Citations   []capability.Citation `json:"citations,omitempty"`
	Attempts    int                   `json:"attempts"`
	Degraded    bool                  `json:"degraded"`    // accepted below threshold after retries ran out
	Unavailable bool                  `json:"unavailable"` // step could not run at all
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Session is the unit of conversation state. It is not safe for concurrent
// use; Manager serialises access per session ID.
type Session struct {
	ID            string
	State         State
	Record        *caserecord.Record
	Results       map[string]*StepResult
	Messages      []*message.Message
	AskedFields   map[string]int // per-field count of clarifying questions asked
	OptionalAsked int            // total optional-field questions asked
	ForceProceed  bool           // user declined to answer; stop asking optional questions
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New creates an empty session.
func New(id string) *Session {
	now := time.Now()
	return &Session{
		ID:          id,
		State:       StateCollecting,
		Record:      caserecord.New(),
		Results:     make(map[string]*StepResult),
		AskedFields: make(map[string]int),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Append adds a message to the transcript and bumps the update time.
func (s *Session) Append(msg *message.Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
}

// Result returns the accepted result for a step, if any.
func (s *Session) Result(step string) (*StepResult, bool) {
	res, ok := s.Results[step]
	return res, ok
}

// SetResult stores a step outcome and bumps the update time.
func (s *Session) SetResult(res *StepResult) {
	s.Results[res.Step] = res
	s.UpdatedAt = time.Now()
}

// Completed reports whether the step already produced an accepted or degraded
// result. Unavailable results do not count as completed work.
func (s *Session) Completed(step string) bool {
	res, ok := s.Results[step]
	return ok && !res.Unavailable
}

// Snapshot is the serialisable form of a session, shared by every store
// backend.
type Snapshot struct {
	ID            string                 `json:"id" bson:"_id"`
	State         State                  `json:"state" bson:"state"`
	Fields        map[string]string      `json:"fields" bson:"fields"`
	Owners        map[string]string      `json:"owners" bson:"owners"`
	Results       map[string]*StepResult `json:"results" bson:"results"`
	Messages      []*message.Message     `json:"messages" bson:"messages"`
	AskedFields   map[string]int         `json:"asked_fields" bson:"asked_fields"`
	OptionalAsked int                    `json:"optional_asked" bson:"optional_asked"`
	ForceProceed  bool                   `json:"force_proceed" bson:"force_proceed"`
	CreatedAt     time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" bson:"updated_at"`
}

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() *Snapshot {
	fields, owners := s.Record.Snapshot()
	results := make(map[string]*StepResult, len(s.Results))
	for k, v := range s.Results {
		copied := *v
		results[k] = &copied
	}
	asked := make(map[string]int, len(s.AskedFields))
	for k, v := range s.AskedFields {
		asked[k] = v
	}
	return &Snapshot{
		ID:            s.ID,
		State:         s.State,
		Fields:        fields,
		Owners:        owners,
		Results:       results,
		Messages:      message.CloneMessages(s.Messages),
		AskedFields:   asked,
		OptionalAsked: s.OptionalAsked,
		ForceProceed:  s.ForceProceed,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// FromSnapshot rebuilds a session from its persisted form.
func FromSnapshot(snap *Snapshot) *Session {
	s := New(snap.ID)
	s.State = snap.State
	s.Record = caserecord.FromSnapshot(snap.Fields, snap.Owners)
	if snap.Results != nil {
		s.Results = snap.Results
	}
	s.Messages = snap.Messages
	if snap.AskedFields != nil {
		s.AskedFields = snap.AskedFields
	}
	s.OptionalAsked = snap.OptionalAsked
	s.ForceProceed = snap.ForceProceed
	s.CreatedAt = snap.CreatedAt
	s.UpdatedAt = snap.UpdatedAt
	return s
}
