package deps

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeLookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

// TestBinaryChecker tests finding the first available name.
func TestBinaryChecker(t *testing.T) {
	c := &BinaryChecker{Label: "espeak-ng", Names: []string{"espeak-ng", "espeak"}, Required: true, Instructions: "install it", lookPath: fakeLookPath("espeak")}
	s := c.Check()
	if !s.Installed || s.Detail != "/usr/bin/espeak" {
		t.Errorf("Expected espeak fallback, got %+v", s)
	}

	c.lookPath = fakeLookPath()
	s = c.Check()
	if s.Installed || s.Instructions != "install it" {
		t.Errorf("Expected missing with instructions, got %+v", s)
	}
}

// TestModelsChecker tests counting piper models.
func TestModelsChecker(t *testing.T) {
	dir := t.TempDir()
	c := &ModelsChecker{Dir: dir, Required: true}
	if c.Check().Installed {
		t.Error("Expected no models in empty dir")
	}

	for _, name := range []string{"a.onnx", "b.onnx", "b.onnx.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	s := c.Check()
	if !s.Installed || !strings.HasPrefix(s.Detail, "2 in ") {
		t.Errorf("Expected 2 models, got %+v", s)
	}
}

// TestCheckers tests checker selection by engine.
func TestCheckers(t *testing.T) {
	tests := []struct {
		engine   string
		expected int
		wantErr  bool
	}{
		{engine: "mock", expected: 0},
		{engine: "piper", expected: 2},
		{engine: "espeak", expected: 1},
		{engine: "auto", expected: 3},
		{engine: "festival", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			checkers, err := Checkers(Options{Engine: tt.engine})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Checkers() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(checkers) != tt.expected {
				t.Errorf("Expected %d checkers, got %d", tt.expected, len(checkers))
			}
		})
	}
}

type staticChecker Status

func (c staticChecker) Check() Status { return Status(c) }

// TestRunAuto tests that auto needs one complete engine.
func TestRunAuto(t *testing.T) {
	missingPiper := []Checker{
		staticChecker{Name: "piper", Installed: true},
		staticChecker{Name: "piper models"},
		staticChecker{Name: "espeak-ng"},
	}
	r := Run("auto", missingPiper)
	if r.OK() {
		t.Error("Expected failure without models or espeak")
	}
	if m := r.Missing(); len(m) != 1 || m[0].Name != "any engine" {
		t.Errorf("Unexpected missing list %+v", m)
	}

	withEspeak := []Checker{
		staticChecker{Name: "piper"},
		staticChecker{Name: "piper models"},
		staticChecker{Name: "espeak-ng", Installed: true},
	}
	r = Run("auto", withEspeak)
	if !r.OK() {
		t.Errorf("Expected espeak to satisfy auto, got %+v", r.Missing())
	}
	if out := r.Render(); !strings.Contains(out, "✓ any engine") || !strings.Contains(out, "○ piper") {
		t.Errorf("Unexpected report:\n%s", out)
	}
}

// TestRunRequired tests a missing required dependency.
func TestRunRequired(t *testing.T) {
	r := Run("espeak", []Checker{staticChecker{Name: "espeak-ng", Required: true, Instructions: "apt install"}})
	if r.OK() {
		t.Error("Expected failure")
	}
	if out := r.Render(); !strings.Contains(out, "✗ espeak-ng") || !strings.Contains(out, "apt install") {
		t.Errorf("Unexpected report:\n%s", out)
	}
}
