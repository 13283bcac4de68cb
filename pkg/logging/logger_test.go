package logging

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		if l := New(level); l == nil || l.Logger == nil {
			t.Fatalf("New(%q) returned nil logger", level)
		}
	}
}

func TestWithSession(t *testing.T) {
	l := Default().WithSession("sess-1")
	if l == nil || l.Logger == nil {
		t.Fatal("WithSession returned nil logger")
	}
}
