package cli

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Models",
		Headers: []string{"Model", "Calls"},
		Rows: [][]string{
			{"claude-sonnet-4", "12"},
			{"---"},
			{"Total", "12"},
		},
	})

	for _, want := range []string{"Models", "Model", "Calls", "claude-sonnet-4", "Total", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	// title, top, header, separator, row, separator row, row, bottom
	if lines := strings.Count(out, "\n"); lines != 8 {
		t.Errorf("got %d lines, want 8:\n%s", lines, out)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if out := RenderTable(Table{}); out != "" {
		t.Errorf("empty table rendered %q", out)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("nil = %q", got)
	}
	got := []rune(RenderSparkline([]float64{0, 1, 2, 4}))
	if len(got) != 4 || got[0] != '▁' || got[3] != '█' {
		t.Errorf("sparkline = %q", string(got))
	}
}

func TestRenderBar(t *testing.T) {
	if got := RenderBar(5, 10, 10); got != strings.Repeat("█", 5) {
		t.Errorf("half bar = %q", got)
	}
	if got := RenderBar(20, 10, 10); got != strings.Repeat("█", 10) {
		t.Errorf("overflow bar = %q", got)
	}
	if got := RenderBar(1, 0, 10); got != "" {
		t.Errorf("zero max = %q", got)
	}
}
