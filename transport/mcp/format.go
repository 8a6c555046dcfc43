package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/engine"
	"github.com/wricardo/mcp-training/numberblocks/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	status := ""
	if session.GameState != nil {
		status = fmt.Sprintf(" Score: %d/%d", session.GameState.Score, session.GameState.TotalProblems)
		if session.GameState.Victory {
			status += " (won)"
		}
	}
	return fmt.Sprintf("• %s (config: %s, seed: %d)%s\n  Created: %s, Last accessed: %s\n",
		session.ID, session.ConfigName, session.Seed, status,
		session.CreatedAt.Format("2006-01-02 15:04:05"), session.LastAccessedAt.Format("2006-01-02 15:04:05"))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "Game state unavailable"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Level: %s  Frame: %d  Score: %d/%d\n", state.ConfigName, state.Frame, state.Score, state.TotalProblems)
	if state.Victory {
		b.WriteString("🎉 VICTORY! All problems solved.\n")
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	b.WriteString("\nMap:\n")
	b.WriteString(renderMap(state))

	b.WriteString("\nProblems:\n")
	for i, p := range state.Problems {
		b.WriteString(formatProblem(i+1, p, state))
	}

	b.WriteString("\n")
	b.WriteString(formatPlayer(state))

	if loose := formatLooseGroups(state); loose != "" {
		b.WriteString("\nLoose crates:\n")
		b.WriteString(loose)
	}
	b.WriteString(formatCurrentSegment(state))
	return b.String()
}

// renderMap draws one character per cell
func renderMap(state *engine.GameState) string {
	if state.Width <= 0 || state.Height <= 0 {
		return ""
	}
	grid := make([][]rune, state.Height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(".", state.Width))
	}
	set := func(c engine.Cell, r rune) {
		if c.X >= 0 && c.Y >= 0 && c.X < state.Width && c.Y < state.Height {
			grid[c.Y][c.X] = r
		}
	}

	for _, w := range state.Walls {
		for y := w.Y; y < w.Y+w.H; y++ {
			for x := w.X; x < w.X+w.W; x++ {
				set(engine.Cell{X: x, Y: y}, '#')
			}
		}
	}
	for _, p := range state.Problems {
		for _, c := range p.SlotCells {
			set(c, '_')
		}
	}
	for _, bs := range state.Blocks {
		if !bs.Held {
			set(bs.Cell, rune(bs.Value))
		}
	}
	set(state.Player.Cell, '@')

	var b strings.Builder
	header := "   "
	for x := 0; x < state.Width; x++ {
		header += fmt.Sprint(x % 10)
	}
	b.WriteString(header + "\n")
	for y, row := range grid {
		fmt.Fprintf(&b, "%2d %s\n", y, string(row))
	}
	return b.String()
}

func blockAt(state *engine.GameState, c engine.Cell) *engine.BlockState {
	for i := range state.Blocks {
		if !state.Blocks[i].Held && state.Blocks[i].Cell == c {
			return &state.Blocks[i]
		}
	}
	return nil
}

func formatProblem(n int, p engine.ProblemState, state *engine.GameState) string {
	status := "unsolved"
	if p.Solved {
		status = "SOLVED"
	}
	var slots []string
	for _, c := range p.SlotCells {
		s := fmt.Sprintf("(%d,%d) empty", c.X, c.Y)
		if bs := blockAt(state, c); bs != nil {
			s = fmt.Sprintf("(%d,%d) %s %s", c.X, c.Y, bs.Value, bs.Classification)
		}
		slots = append(slots, s)
	}
	return fmt.Sprintf("%d. %d %s %d = %s  [%s] at row %d\n   answer spaces: %s\n",
		n, p.LHS, p.Operator, p.RHS, strings.Repeat("_", len(p.SlotCells)), status, p.Anchor.Y,
		strings.Join(slots, ", "))
}

func formatPlayer(state *engine.GameState) string {
	p := state.Player
	var keys []string
	for _, a := range p.Keys.Pressed() {
		keys = append(keys, string(a))
	}
	held := "nothing"
	if p.Held != 0 {
		for _, bs := range state.Blocks {
			if bs.ID == p.Held {
				held = fmt.Sprintf("crate %d (%s)", bs.ID, bs.Value)
			}
		}
	}
	line := fmt.Sprintf("Player: cell (%d,%d) pos (%.0f,%.0f) facing %s, holding %s, keys [%s]\n",
		p.Cell.X, p.Cell.Y, p.X, p.Y, p.Orientation, held, strings.Join(keys, " "))
	if p.Target != 0 && p.Held == 0 {
		line += fmt.Sprintf("In reach: crate %d", p.Target)
		if state.Caption {
			line += " (press interact to pick up)"
		}
		line += "\n"
	}
	return line
}

// formatLooseGroups lists movable groups not sitting on an answer space
func formatLooseGroups(state *engine.GameState) string {
	byID := make(map[blocks.BlockID]engine.BlockState, len(state.Blocks))
	for _, bs := range state.Blocks {
		byID[bs.ID] = bs
	}

	var lines []string
	for _, g := range state.Groups {
		if len(g.Blocks) == 0 {
			continue
		}
		first := byID[g.Blocks[0]]
		if !first.Classification.Grabbable() || first.Held {
			continue
		}
		var ids []string
		for _, id := range g.Blocks {
			ids = append(ids, fmt.Sprint(id))
		}
		lines = append(lines, fmt.Sprintf("  %q at (%d,%d) ids [%s]", g.Text, first.Cell.X, first.Cell.Y, strings.Join(ids, " ")))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n") + strings.Repeat("\n", min(len(lines), 1))
}

func formatStepResult(result *service.StepResult) string {
	var b strings.Builder
	status := "OK"
	if !result.Success {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "Step %s: ran %d of %d frames", status, result.FramesRun, result.FramesRequested)
	if result.Truncated {
		fmt.Fprintf(&b, " (capped at %d)", result.Limit)
	}
	if result.StoppedOn != "" {
		fmt.Fprintf(&b, ", stopped on %s", result.StoppedOn)
	}
	b.WriteString("\n")
	if result.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", result.Error)
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, ev := range result.Events {
			fmt.Fprintf(&b, "  frame %d: %s", ev.Frame, ev.Type)
			if ev.BlockID != 0 {
				fmt.Fprintf(&b, " crate %d", ev.BlockID)
			}
			if ev.Message != "" {
				fmt.Fprintf(&b, " - %s", ev.Message)
			}
			b.WriteString("\n")
		}
	}
	if result.ScoreDelta != 0 {
		fmt.Fprintf(&b, "Score change: %+d\n", result.ScoreDelta)
	}
	if result.Held != nil {
		fmt.Fprintf(&b, "Holding: %s", formatBlockInfo(result.Held))
	} else if result.Target != nil {
		fmt.Fprintf(&b, "In reach: %s", formatBlockInfo(result.Target))
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBlockInfo(info *engine.BlockInfo) string {
	s := fmt.Sprintf("crate %d value %s %s at (%d,%d) in group %q, layer %s",
		info.ID, info.Value, info.Classification, info.Cell.X, info.Cell.Y, info.GroupText, info.Layer)
	if info.Grabbable {
		s += ", can be carried"
	}
	if info.ProblemID != "" {
		s += ", part of problem " + info.ProblemID
	}
	if info.SlotIndex != nil {
		s += fmt.Sprintf(" (answer space %d)", *info.SlotIndex+1)
	}
	return s + "\n"
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interaction History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalInteractions)

	if len(history.Interactions) == 0 {
		b.WriteString("(no interactions)\n")
		return b.String()
	}
	for _, e := range history.Interactions {
		fmt.Fprintf(&b, "%d. frame %d %s crate %d (%s) (%d,%d)->(%d,%d)",
			e.Number, e.Frame, e.Action, e.BlockID, e.Value, e.From.X, e.From.Y, e.To.X, e.To.Y)
		if e.Result != "" {
			fmt.Fprintf(&b, " %s", e.Result)
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		fmt.Fprintf(&b, "\nMore on page %d\n", history.Page+1)
	}
	return b.String()
}

// formatCurrentSegment summarizes interactions since the last reset
func formatCurrentSegment(state *engine.GameState) string {
	if state.TotalInteractions == 0 {
		return ""
	}
	line := fmt.Sprintf("\nInteractions: %d since reset (%d total)", state.CurrentInteractionsCount, state.TotalInteractions)
	if n := len(state.CurrentInteractions); n > 0 {
		last := state.CurrentInteractions[n-1]
		line += fmt.Sprintf(", last: %s crate %d at (%d,%d)", last.Action, last.BlockID, last.To.X, last.To.Y)
	}
	return line + "\n"
}
