// Package validate checks level configuration JSON files. For each file it
// verifies:
//   - JSON structure with no unknown fields
//   - every rule of engine.ValidateGameConfig
//   - each problem slot can draw a clean problem, with its per-draw odds
//   - connectivity: every problem row and scramble cell is reachable from
//     the player start without crossing walls
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/numberblocks/game/engine"
)

// LowOddsThreshold flags slots whose clean-draw rate is below this fraction
const LowOddsThreshold = 0.05

// Result captures the outcome of validating a single file. Errors make a
// file invalid; Info lines describe a valid file; Warnings never fail it.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// File loads and validates a single configuration file
func File(filePath string) Result {
	result := Result{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var config engine.GameConfig
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	Config(&config, &result)
	return result
}

// Config validates an already decoded level into result
func Config(config *engine.GameConfig, result *Result) {
	if err := engine.ValidateGameConfig(config); err != nil {
		result.fail("%v", strings.TrimPrefix(err.Error(), "config validation: "))
		return
	}

	for i, slot := range config.Problems {
		extent, err := engine.SlotExtent(slot)
		if err != nil {
			result.fail("Problem %d: %v", i+1, err)
			continue
		}
		if extent.Probability < LowOddsThreshold {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Problem %d: only %.1f%% of draws are clean; generation may be slow",
				i+1, extent.Probability*100))
		}
		min, max := slot.SlotRange()
		result.Info = append(result.Info, fmt.Sprintf("✓ Problem %d: [%d,%d] %s, %d cells, %.1f%% clean",
			i+1, min, max, operators(slot), extent.Cells, extent.Probability*100))
	}

	if unreachable := Unreachable(config); len(unreachable) > 0 {
		result.fail("Connectivity failure: %d cells unreachable from player start", len(unreachable))
		for i, c := range unreachable {
			if i == 5 {
				result.Errors = append(result.Errors, fmt.Sprintf("... and %d more", len(unreachable)-5))
				break
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Unreachable: (%d,%d)", c.X, c.Y))
		}
	}

	if result.Valid {
		result.Info = append([]string{
			fmt.Sprintf("✓ Name: %s", config.Name),
			fmt.Sprintf("✓ World: %dx%d cells, %d walls", config.Width, config.Height, len(config.Walls)),
			fmt.Sprintf("✓ Problems: %d, distractors: %d, loose digits: %d", len(config.Problems), config.Distractors, len(config.LooseDigits)),
			"✓ Connectivity: all problem and scramble cells reachable",
		}, result.Info...)
	}
}

func operators(slot engine.ProblemSlot) string {
	if len(slot.Operators) == 0 {
		return "+-*/"
	}
	return strings.Join(slot.Operators, "")
}

// Unreachable flood-fills open floor from the player start and lists the
// problem-row and scramble-area cells it never reaches
func Unreachable(config *engine.GameConfig) []engine.Cell {
	world := engine.Rect{W: config.Width, H: config.Height}
	open := func(c engine.Cell) bool {
		if !world.Contains(c) {
			return false
		}
		for _, w := range config.Walls {
			if w.Contains(c) {
				return false
			}
		}
		return true
	}

	visited := map[engine.Cell]bool{config.PlayerStart: true}
	queue := []engine.Cell{config.PlayerStart}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, d := range []engine.Cell{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}} {
			n := engine.Cell{X: c.X + d.X, Y: c.Y + d.Y}
			if !visited[n] && open(n) {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}

	targets := map[engine.Cell]bool{}
	for _, slot := range config.Problems {
		extent, err := engine.SlotExtent(slot)
		if err != nil {
			continue
		}
		for x := slot.Anchor.X; x < slot.Anchor.X+extent.Cells; x++ {
			targets[engine.Cell{X: x, Y: slot.Anchor.Y}] = true
		}
	}
	if area := config.ScrambleArea; area != nil {
		for y := area.Y; y < area.Y+area.H; y++ {
			for x := area.X; x < area.X+area.W; x++ {
				if c := (engine.Cell{X: x, Y: y}); open(c) {
					targets[c] = true
				}
			}
		}
	}

	var out []engine.Cell
	for c := range targets {
		if !visited[c] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Dir validates every *.json file in dir
func Dir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no config files in %s", dir)
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// Report prints results and reports whether all of them are valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
