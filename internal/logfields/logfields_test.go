package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		attr slog.Attr
	}{
		{"Pipe", KeyPipe, "compile", Pipe("compile")},
		{"Processor", KeyProcessor, "commonmark", Processor("commonmark")},
		{"Wrapper", KeyWrapper, "when", Wrapper("when")},
		{"Destination", KeyDestination, "index.html", Destination("index.html")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}
	for _, c := range cases {
		if c.attr.Key != c.key {
			t.Errorf("%s: key = %q, want %q", c.name, c.attr.Key, c.key)
		}
		if got := c.attr.Value.String(); got != c.val {
			t.Errorf("%s: value = %q, want %q", c.name, got, c.val)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Step(3); a.Key != KeyStep || a.Value.Int64() != 3 {
		t.Errorf("Step: got %v", a)
	}
	if a := Count(7); a.Key != KeyCount || a.Value.Int64() != 7 {
		t.Errorf("Count: got %v", a)
	}
	if a := DurationMS(1.5); a.Key != KeyDurationMS || a.Value.Float64() != 1.5 {
		t.Errorf("DurationMS: got %v", a)
	}
}

func TestChanges(t *testing.T) {
	a := Changes(map[string]any{"title": "x"})
	if a.Key != KeyChanges {
		t.Errorf("Changes: key = %q", a.Key)
	}
	if m, ok := a.Value.Any().(map[string]any); !ok || m["title"] != "x" {
		t.Errorf("Changes: value = %v", a.Value.Any())
	}
}
