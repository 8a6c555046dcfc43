package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
)

// MaxGroupDigits caps how long a number players can build by joining crates
const MaxGroupDigits = 6

// SettlePlaced is the release result for a block dropped on open floor
const SettlePlaced = "placed"

// Settle runs when the actor lets go of b. The block snaps to the nearest open
// cell and leaves whatever group it was pulled from. On an answer slot it is
// judged Correct or Incorrect against the expected digit; elsewhere it joins a
// loose neighbouring group on the same row, or stays a lone Movable block.
func (w *world) Settle(b *blocks.DigitBlock) error {
	w.emit(Event{Type: EventRelease, BlockID: b.ID()})

	cell := w.landingCell(b)
	b.MoveTo(w.center(cell))

	if err := w.detach(b); err != nil {
		return err
	}

	if v, i, ok := w.slotAt(cell); ok {
		expected := v.Slots()[i].Expected
		if b.Value() == expected {
			b.SetClassification(blocks.Correct)
			w.lastSettle = EventCorrect
			w.setMessage(w.cfg.Messages.Correct)
			w.emit(Event{Type: EventCorrect, BlockID: b.ID(), ProblemID: v.ID, Message: w.cfg.Messages.Correct})
		} else {
			b.SetClassification(blocks.Incorrect)
			w.lastSettle = EventIncorrect
			w.setMessage(w.cfg.Messages.Incorrect)
			w.emit(Event{Type: EventIncorrect, BlockID: b.ID(), ProblemID: v.ID, Message: w.cfg.Messages.Incorrect})
		}
		return nil
	}

	b.SetClassification(blocks.Movable)
	w.lastSettle = SettlePlaced
	return w.merge(b, cell)
}

func (w *world) setMessage(msg string) {
	if msg != "" {
		w.message = msg
	}
}

// landingCell picks the cell under the block, or the closest open neighbour,
// falling back to where the block was picked up
func (w *world) landingCell(b *blocks.DigitBlock) Cell {
	x, y := b.Position()
	target := w.cellOf(x, y)

	candidates := []Cell{target}
	var ring []Cell
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx != 0 || dy != 0 {
				ring = append(ring, Cell{target.X + dx, target.Y + dy})
			}
		}
	}
	sort.SliceStable(ring, func(i, j int) bool {
		xi, yi := w.center(ring[i])
		xj, yj := w.center(ring[j])
		return math.Hypot(xi-x, yi-y) < math.Hypot(xj-x, yj-y)
	})
	candidates = append(candidates, ring...)

	for _, c := range candidates {
		if w.open(c, b) {
			return c
		}
	}
	return w.cellOf(w.actor.HeldFrom())
}

// detach makes b a group of its own, splitting what remains of its old group
// into runs of adjacent blocks
func (w *world) detach(b *blocks.DigitBlock) error {
	old, ok := b.Group()
	if ok && old.Size() == 1 {
		return nil
	}
	if _, err := w.table.NewGroup(b); err != nil {
		return fmt.Errorf("detach block %d: %w", b.ID(), err)
	}
	if ok {
		return w.splitRuns(old)
	}
	return nil
}

func (w *world) splitRuns(g *blocks.Group) error {
	for g != nil {
		members := g.Blocks()
		split := -1
		for i := 1; i < len(members); i++ {
			prev, cur := w.blockCell(members[i-1]), w.blockCell(members[i])
			if cur.Y != prev.Y || cur.X != prev.X+1 {
				split = i
				break
			}
		}
		if split < 0 {
			return nil
		}
		next, err := w.table.NewGroup(members[split:]...)
		if err != nil {
			return err
		}
		g = next
	}
	return nil
}

// loose reports whether b may be joined with: Movable and not sitting on an answer slot
func (w *world) loose(b *blocks.DigitBlock) bool {
	if b == nil || b.Classification() != blocks.Movable || b.Holder() != nil {
		return false
	}
	_, _, onSlot := w.slotAt(w.blockCell(b))
	return !onSlot
}

func (w *world) merge(b *blocks.DigitBlock, cell Cell) error {
	g, ok := b.Group()
	if !ok {
		return fmt.Errorf("block %d has no group", b.ID())
	}
	merged := false

	left := w.blockAt(Cell{cell.X - 1, cell.Y}, b)
	if w.loose(left) {
		if lg, ok := left.Group(); ok && lg.Blocks()[lg.Size()-1] == left && lg.Size()+g.Size() <= MaxGroupDigits {
			if err := lg.PlaceRight(b); err != nil {
				return err
			}
			g = lg
			merged = true
		}
	}

	right := w.blockAt(Cell{cell.X + 1, cell.Y}, b)
	if w.loose(right) {
		rg, ok := right.Group()
		if ok && rg != g && rg.Blocks()[0] == right && rg.Size()+g.Size() <= MaxGroupDigits {
			for _, m := range rg.Blocks() {
				if err := g.PlaceRight(m); err != nil {
					return err
				}
			}
			merged = true
		}
	}

	if !merged {
		return nil
	}
	x, y := g.Blocks()[0].Position()
	g.MoveTo(x, y)
	w.lastSettle = EventMerge

	msg := ""
	if w.cfg.Messages.Merged != "" {
		msg = fmt.Sprintf(w.cfg.Messages.Merged, g.String())
		w.message = msg
	}
	w.emit(Event{Type: EventMerge, BlockID: b.ID(), Message: msg})
	return nil
}
