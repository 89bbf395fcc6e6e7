package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupLevels(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	tests := []struct {
		name      string
		verbose   bool
		quiet     bool
		wantDebug bool
		wantWarn  bool
	}{
		{name: "default", wantWarn: true},
		{name: "verbose", verbose: true, wantDebug: true, wantWarn: true},
		{name: "quiet", quiet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Setup(&buf, tt.verbose, tt.quiet)

			Debug("debug message")
			Warn("warn message", "file", "a.jsonl")

			out := buf.String()
			if got := strings.Contains(out, "debug message"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "warn message"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v\n%s", got, tt.wantWarn, out)
			}
			if tt.wantWarn && !strings.Contains(out, "file=a.jsonl") {
				t.Errorf("missing attribute in %q", out)
			}
		})
	}
}

func TestErrorAlwaysLogged(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	var buf bytes.Buffer
	Setup(&buf, false, true)
	Error("boom", "error", "disk full")
	Info("hidden")

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "boom") {
		t.Errorf("error record missing: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at quiet level: %q", out)
	}
}
