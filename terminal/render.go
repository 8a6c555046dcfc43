package terminal

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/engine"
)

// cellWidth is how many terminal columns one grid cell takes
const cellWidth = 2

var (
	styleFloor  = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	styleWall   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSlot   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleText   = tcell.StyleDefault
	styleDim    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleGood   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
)

var classStyles = map[blocks.Classification]tcell.Style{
	blocks.Movable:   tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow),
	blocks.Immovable: tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite),
	blocks.Operator:  tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorLightSkyBlue),
	blocks.Correct:   tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen),
	blocks.Incorrect: tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed),
}

// Status is host state shown below the map
type Status struct {
	Muted   bool
	Running bool
}

// screenPos maps a grid cell to its terminal position; the boundary wall at -1 lands on column 0
func screenPos(c engine.Cell) (int, int) {
	return (c.X + 1) * cellWidth, c.Y + 1
}

func drawCell(screen tcell.Screen, c engine.Cell, left, right rune, style tcell.Style) {
	x, y := screenPos(c)
	screen.SetContent(x, y, left, nil, style)
	screen.SetContent(x+1, y, right, nil, style)
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// Render draws a full frame of state
func Render(screen tcell.Screen, state *engine.GameState, status Status) {
	screen.Clear()
	if state == nil {
		screen.Show()
		return
	}

	for y := 0; y < state.Height; y++ {
		for x := 0; x < state.Width; x++ {
			drawCell(screen, engine.Cell{X: x, Y: y}, '·', ' ', styleFloor)
		}
	}
	for _, w := range state.Walls {
		for y := w.Y; y < w.Y+w.H; y++ {
			for x := w.X; x < w.X+w.W; x++ {
				drawCell(screen, engine.Cell{X: x, Y: y}, '▓', '▓', styleWall)
			}
		}
	}
	for _, p := range state.Problems {
		for _, c := range p.SlotCells {
			drawCell(screen, c, '_', '_', styleSlot)
		}
	}

	var held *engine.BlockState
	for i := range state.Blocks {
		b := &state.Blocks[i]
		if b.Held {
			held = b
			continue
		}
		style := classStyles[b.Classification]
		if b.ID == state.Player.Target && state.Player.Held == 0 {
			style = style.Reverse(true)
		}
		drawCell(screen, b.Cell, rune(b.Value), ' ', style)
	}

	// The carried crate rides in the player's second column
	right := ' '
	if held != nil {
		right = rune(held.Value)
	}
	drawCell(screen, state.Player.Cell, '@', right, stylePlayer)

	drawStatus(screen, state, status)
	screen.Show()
}

func drawStatus(screen tcell.Screen, state *engine.GameState, status Status) {
	y := state.Height + 3

	score := fmt.Sprintf("Score %d/%d", state.Score, state.TotalProblems)
	if state.Victory {
		drawText(screen, 0, y, score+"  VICTORY!", styleGood)
	} else {
		drawText(screen, 0, y, score, styleText)
	}
	y++

	for i, p := range state.Problems {
		line := fmt.Sprintf("%d. %d %s %d = %s", i+1, p.LHS, p.Operator, p.RHS, strings.Repeat("_", len(p.SlotCells)))
		style := styleText
		if p.Solved {
			line = fmt.Sprintf("%d. %s", i+1, p.Text)
			style = styleGood
		}
		drawText(screen, 0, y, line, style)
		y++
	}
	y++

	if state.Message != "" {
		drawText(screen, 0, y, state.Message, styleText)
	}
	y++
	if state.Caption && state.Player.Held == 0 {
		drawText(screen, 0, y, "[space] pick up", styleGood)
	}
	y++

	var flags []string
	if status.Running {
		flags = append(flags, "running")
	}
	if status.Muted {
		flags = append(flags, "muted")
	}
	help := "arrows move  space grab/drop  tab run  r new board  m mute  q quit"
	if len(flags) > 0 {
		help += "  [" + strings.Join(flags, " ") + "]"
	}
	drawText(screen, 0, y, help, styleDim)
}
