package message

import (
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(RoleUser, "Hello, world!")

	if msg.Role != RoleUser {
		t.Errorf("Expected role %s, got %s", RoleUser, msg.Role)
	}

	if msg.Content != "Hello, world!" {
		t.Errorf("Expected content 'Hello, world!', got '%s'", msg.Content)
	}

	if msg.ID == "" {
		t.Error("Expected non-empty ID")
	}

	if msg.CreatedAt.IsZero() {
		t.Error("Expected non-zero created time")
	}
}

func TestNewStepMessage(t *testing.T) {
	msg := NewStepMessage("diagnosis", "analysis complete")

	if msg.Role != RoleSystem {
		t.Errorf("Expected role %s, got %s", RoleSystem, msg.Role)
	}

	if msg.Step != "diagnosis" {
		t.Errorf("Expected step 'diagnosis', got '%s'", msg.Step)
	}
}

func TestText(t *testing.T) {
	msg := NewMessage(RoleAssistant, "reply")
	if msg.Text() != "reply" {
		t.Errorf("Text() = %q", msg.Text())
	}

	var nilMsg *Message
	if nilMsg.Text() != "" {
		t.Error("nil message Text() should be empty")
	}
}

func TestCloneIsDeep(t *testing.T) {
	msg := NewMessage(RoleUser, "original")
	msg.Metadata["key"] = "value"

	cloned := Clone(msg)
	cloned.Content = "changed"
	cloned.Metadata["key"] = "other"

	if msg.Content != "original" {
		t.Error("clone mutation leaked into original content")
	}
	if msg.Metadata["key"] != "value" {
		t.Error("clone mutation leaked into original metadata")
	}
}

func TestCloneMessages(t *testing.T) {
	msgs := []*Message{
		NewMessage(RoleUser, "one"),
		NewMessage(RoleAssistant, "two"),
	}
	clones := CloneMessages(msgs)
	if len(clones) != 2 {
		t.Fatalf("Expected 2 clones, got %d", len(clones))
	}
	clones[0].Content = "changed"
	if msgs[0].Content != "one" {
		t.Error("clone mutation leaked into original slice")
	}

	if CloneMessages(nil) != nil {
		t.Error("cloning nil slice should return nil")
	}
}
