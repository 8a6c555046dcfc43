// Command analyze prints quick, human-readable odds for level files in the
// configs directory. For each problem slot it enumerates every draw the
// generator could make and reports how many are clean per operator, the
// expected number of draws before a clean one, and the widest answer. It
// also reports how crowded each scramble area gets.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/mcp-training/numberblocks/game/engine"
	"github.com/wricardo/mcp-training/numberblocks/game/problem"
)

func main() {
	dir := "configs"
	if env := os.Getenv("CONFIG_DIR"); env != "" {
		dir = env
	}
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No config files found in %s\n", dir)
		os.Exit(1)
	}
	sort.Strings(files)

	failed := false
	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		if err := analyzeConfig(os.Stdout, file); err != nil {
			fmt.Printf("Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func analyzeConfig(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	fmt.Fprintf(w, "Name: %s\n", config.Name)
	fmt.Fprintf(w, "World: %d x %d cells\n", config.Width, config.Height)
	fmt.Fprintf(w, "Problems: %d\n", len(config.Problems))

	scattered := 0
	for i, slot := range config.Problems {
		stats, err := analyzeSlot(w, i+1, slot)
		if err != nil {
			fmt.Fprintf(w, "⚠️  Problem %d: %v\n", i+1, err)
			continue
		}
		if slot.Scrambled() {
			scattered += digitCount(stats.MaxAnswer)
		}
	}

	analyzeScramble(w, &config, scattered)
	return nil
}

// analyzeSlot prints the odds of one problem slot
func analyzeSlot(w io.Writer, n int, slot engine.ProblemSlot) (problem.Stats, error) {
	ops, err := engine.SlotOperators(slot)
	if err != nil {
		return problem.Stats{}, err
	}
	min, max := slot.SlotRange()
	stats, err := problem.Enumerate(min, max, ops, false)
	if err != nil {
		return problem.Stats{}, err
	}

	fmt.Fprintf(w, "Problem %d at (%d,%d): range [%d,%d]\n", n, slot.Anchor.X, slot.Anchor.Y, min, max)
	for _, op := range stats.ByOperator {
		fmt.Fprintf(w, "   %s  %d/%d clean (%.1f%%)\n", op.Operator, op.Clean, op.Total, percent(op.Clean, op.Total))
	}
	fmt.Fprintf(w, "   Clean draws: %d/%d (%.1f%%), expected draws %.2f, max answer %d\n",
		stats.Clean, stats.Total, stats.Probability*100, stats.ExpectedDraws(), stats.MaxAnswer)

	if stats.Clean == 0 {
		fmt.Fprintf(w, "❌ CRITICAL: no clean problem can ever be drawn\n")
	} else if stats.Probability < 0.05 {
		fmt.Fprintf(w, "⚠️  WARNING: fewer than 1 in 20 draws are clean\n")
	}
	return stats, nil
}

// analyzeScramble prints how much of the scramble area scattered blocks can fill
func analyzeScramble(w io.Writer, config *engine.GameConfig, scattered int) {
	needed := scattered + config.Distractors
	if config.ScrambleArea == nil {
		if needed > 0 {
			fmt.Fprintf(w, "❌ CRITICAL: %d blocks to scatter but no scramble area\n", needed)
		}
		return
	}

	area := *config.ScrambleArea
	free := 0
	for y := area.Y; y < area.Y+area.H; y++ {
		for x := area.X; x < area.X+area.W; x++ {
			c := engine.Cell{X: x, Y: y}
			if c == config.PlayerStart || blocked(config, c) {
				continue
			}
			free++
		}
	}

	fmt.Fprintf(w, "Scramble area: %d free cells, up to %d blocks (%.1f%% full)\n", free, needed, percent(needed, free))
	if needed > free {
		fmt.Fprintf(w, "❌ CRITICAL: scramble area too small\n")
	} else {
		fmt.Fprintf(w, "✅ Scramble area fits every scattered block\n")
	}
}

func blocked(config *engine.GameConfig, c engine.Cell) bool {
	for _, wall := range config.Walls {
		if wall.Contains(c) {
			return true
		}
	}
	for _, d := range config.LooseDigits {
		if d.At == c {
			return true
		}
	}
	return false
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func digitCount(n int) int {
	count := 1
	for n >= 10 {
		n /= 10
		count++
	}
	return count
}
