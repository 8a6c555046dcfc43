package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/numberblocks/game/engine"
)

const testLevel = `{
	"name": "Test Level",
	"description": "Additions only",
	"tile_size": 32,
	"width": 16,
	"height": 10,
	"player_start": {"x": 14, "y": 8},
	"problems": [
		{"anchor": {"x": 1, "y": 1}, "min": 1, "max": 9, "operators": ["+"]},
		{"anchor": {"x": 1, "y": 3}, "min": 0, "max": 9, "operators": ["-", "/"]}
	],
	"scramble_area": {"x": 1, "y": 5, "w": 3, "h": 1},
	"distractors": 2,
	"messages": {"welcome": "Hi", "victory": "All %d solved!"}
}`

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole int
		want        float64
	}{
		{1, 4, 25},
		{0, 10, 0},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := percent(tt.part, tt.whole); got != tt.want {
			t.Errorf("percent(%d, %d) = %v, want %v", tt.part, tt.whole, got, tt.want)
		}
	}
}

func TestDigitCount(t *testing.T) {
	tests := map[int]int{0: 1, 9: 1, 10: 2, 99: 2, 100: 3, 9999: 4}
	for n, want := range tests {
		if got := digitCount(n); got != want {
			t.Errorf("digitCount(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestAnalyzeSlot(t *testing.T) {
	var out bytes.Buffer
	stats, err := analyzeSlot(&out, 1, engine.ProblemSlot{Min: 1, Max: 9, Operators: []string{"+"}})
	if err != nil {
		t.Fatalf("analyzeSlot failed: %v", err)
	}

	// Every addition of two positive digits is clean
	if stats.Clean != 81 || stats.Total != 81 || stats.MaxAnswer != 18 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if !strings.Contains(out.String(), "Clean draws: 81/81 (100.0%), expected draws 1.00, max answer 18") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	if _, err := analyzeSlot(&out, 2, engine.ProblemSlot{Min: 1, Max: 9, Operators: []string{"%"}}); err == nil {
		t.Error("Expected error for unknown operator")
	}
}

func TestAnalyzeConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")
	if err := os.WriteFile(path, []byte(testLevel), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	var out bytes.Buffer
	if err := analyzeConfig(&out, path); err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}

	text := out.String()
	expected := []string{
		"Name: Test Level",
		"World: 16 x 10 cells",
		"Problem 1 at (1,1): range [1,9]",
		"Problem 2 at (1,3): range [0,9]",
		"   /  ",
		// 2 + 1 answer digits plus 2 distractors in a 3-cell area
		"Scramble area: 3 free cells, up to 5 blocks",
		"❌ CRITICAL: scramble area too small",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}
}

func TestAnalyzeConfig_Errors(t *testing.T) {
	var out bytes.Buffer
	if err := analyzeConfig(&out, "/non/existent/file.json"); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"name": "test", invalid json}`), 0644)
	if err := analyzeConfig(&out, path); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
