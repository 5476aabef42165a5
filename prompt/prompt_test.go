package prompt

import (
	"strings"
	"testing"
)

func TestTemplateRender(t *testing.T) {
	tmpl, err := NewTemplate("greet", "Hello, {{.Name}}!")
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}
	out, err := tmpl.Render(map[string]interface{}{"Name": "world"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "Hello, world!" {
		t.Errorf("Render() = %q", out)
	}
}

func TestNewTemplateInvalid(t *testing.T) {
	if _, err := NewTemplate("bad", "{{.Unclosed"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestManagerRegisterAndRender(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("q", "case: {{.Record}}"); err != nil {
		t.Fatalf("RegisterString: %v", err)
	}

	out, err := m.Render("q", map[string]interface{}{"Record": "exercise: squat"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "exercise: squat") {
		t.Errorf("Render() = %q", out)
	}
}

func TestManagerDuplicateRegistration(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("dup", "a"); err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterString("dup", "b"); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestManagerRenderMissing(t *testing.T) {
	m := NewManager()
	if _, err := m.Render("missing", nil); err == nil {
		t.Fatal("expected not-found error")
	}
}
