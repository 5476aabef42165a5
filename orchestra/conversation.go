package orchestra

import (
	"fmt"
	"strings"

	"github.com/sweetpotato0/rehab-orchestra/caserecord"
	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

// Conversation inspects the case record for information gaps and formats the
// clarifying questions that fill them. It reads the record and the session's
// questioning counters; it never mutates either.
type Conversation struct {
	cfg *Config
}

// NewConversation creates the conversation manager.
func NewConversation(cfg *Config) *Conversation {
	return &Conversation{cfg: cfg}
}

// FindGaps returns the required fields of step that the record does not know
// yet, in declaration order so the highest-priority gap comes first.
func (c *Conversation) FindGaps(rec *caserecord.Record, step string) []string {
	var gaps []string
	for _, field := range c.cfg.RequiredFields[step] {
		if !rec.Has(field) {
			gaps = append(gaps, field)
		}
	}
	return gaps
}

// Question formats the clarifying question for a missing field. A field
// without a question entry means the requirement table and the question map
// disagree, which Validate should have caught at startup.
func (c *Conversation) Question(field string) (string, error) {
	q, ok := c.cfg.Questions[field]
	if !ok || q == "" {
		return "", fmt.Errorf("%w: no question configured for field %q", errors.ErrInternalInconsistency, field)
	}
	return q, nil
}

// NextOptional returns the next optional field worth asking about, or "" when
// the record already covers them all, the per-session cap is reached, or the
// user asked to proceed.
func (c *Conversation) NextOptional(sess *session.Session) string {
	if sess.ForceProceed || sess.OptionalAsked >= c.cfg.OptionalQuestionCap {
		return ""
	}
	for _, field := range c.cfg.OptionalFields {
		if sess.Record.Has(field) {
			continue
		}
		// Ask about each optional field at most once.
		if sess.AskedFields[field] > 0 {
			continue
		}
		return field
	}
	return ""
}

// Proceed keywords end optional questioning for the session.
var proceedAnswers = map[string]struct{}{
	"proceed":      {},
	"continue":     {},
	"skip":         {},
	"go ahead":     {},
	"just tell me": {},
	"no":           {},
	"nothing":      {},
	"that's all":   {},
	"thats all":    {},
	"none":         {},
}

// WantsToProceed reports whether the message is a refusal to answer more
// optional questions rather than new information.
func WantsToProceed(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.Trim(normalized, ".!,")
	_, ok := proceedAnswers[normalized]
	return ok
}
