package engine

import (
	"testing"

	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
)

// placeNumber creates a loose group for n with its first block on c
func placeNumber(t *testing.T, w *world, n int, c Cell) *blocks.Group {
	t.Helper()
	g, err := w.table.NewGroupFromNumber(n)
	if err != nil {
		t.Fatalf("NewGroupFromNumber(%d) failed: %v", n, err)
	}
	g.MoveTo(w.center(c))
	return g
}

func groupText(t *testing.T, b *blocks.DigitBlock) string {
	t.Helper()
	g, ok := b.Group()
	if !ok {
		t.Fatalf("block %d has no group", b.ID())
	}
	return g.String()
}

func TestSettle_PlacedOnOpenFloor(t *testing.T) {
	engine := newTestEngine(t)
	w := engine.world
	b := placeNumber(t, w, 5, Cell{10, 2}).Blocks()[0]

	x, y := w.center(Cell{5, 5})
	b.MoveTo(x+20, y-20)
	if err := w.Settle(b); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	if w.blockCell(b) != (Cell{5, 5}) {
		t.Errorf("Expected block on (5,5), got %v", w.blockCell(b))
	}
	if bx, by := b.Position(); bx != x || by != y {
		t.Errorf("Expected block snapped to cell center, got (%v,%v)", bx, by)
	}
	if w.lastSettle != SettlePlaced {
		t.Errorf("Expected result %q, got %q", SettlePlaced, w.lastSettle)
	}
	if b.GroupPosition() != blocks.Standalone {
		t.Errorf("Expected standalone block, got %s", b.GroupPosition())
	}
}

func TestSettle_NearestOpenNeighbour(t *testing.T) {
	engine := newTestEngine(t)
	w := engine.world
	five := placeNumber(t, w, 5, Cell{10, 2}).Blocks()[0]
	six := placeNumber(t, w, 6, Cell{5, 5}).Blocks()[0]

	x, y := w.center(Cell{10, 2})
	six.MoveTo(x+20, y)
	if err := w.Settle(six); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	if w.blockCell(six) != (Cell{11, 2}) {
		t.Errorf("Expected block pushed to (11,2), got %v", w.blockCell(six))
	}
	if w.blockCell(five) != (Cell{10, 2}) {
		t.Errorf("Occupant should not move, got %v", w.blockCell(five))
	}
	if groupText(t, six) != "56" {
		t.Errorf("Expected neighbours to join into 56, got %q", groupText(t, six))
	}
}

func TestSettle_FallsBackToGrabOrigin(t *testing.T) {
	engine := newTestEngine(t)
	w := engine.world

	// (0,0) sits in the corner, so only (0,0), (1,0), (0,1) and (1,1) are candidates
	for _, c := range []Cell{{0, 0}, {1, 0}, {0, 1}} {
		placeNumber(t, w, 1, c)
	}
	b := placeNumber(t, w, 8, Cell{5, 5}).Blocks()[0]

	fromX, fromY := w.center(Cell{5, 5})
	if err := w.actor.RestoreHold(b, 0, 0, fromX, fromY); err != nil {
		t.Fatalf("RestoreHold failed: %v", err)
	}
	b.MoveTo(w.center(Cell{0, 0}))

	// (1,1) is the LHS operand of the problem
	if c := w.landingCell(b); c != (Cell{5, 5}) {
		t.Errorf("Expected fallback to grab origin (5,5), got %v", c)
	}
}

func TestSettle_MergeBothSides(t *testing.T) {
	engine := newTestEngine(t)
	w := engine.world
	one := placeNumber(t, w, 1, Cell{10, 2}).Blocks()[0]
	three := placeNumber(t, w, 3, Cell{12, 2}).Blocks()[0]
	two := placeNumber(t, w, 2, Cell{5, 5}).Blocks()[0]

	two.MoveTo(w.center(Cell{11, 2}))
	if err := w.Settle(two); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	if groupText(t, two) != "123" {
		t.Fatalf("Expected 123, got %q", groupText(t, two))
	}
	g, _ := two.Group()
	if n, ok := g.Number(); !ok || n != 123 {
		t.Errorf("Expected number 123, got %d", n)
	}
	want := map[*blocks.DigitBlock]blocks.GroupPosition{one: blocks.Left, two: blocks.Middle, three: blocks.Right}
	for b, p := range want {
		if b.GroupPosition() != p {
			t.Errorf("Block %s: expected %s, got %s", b.Value(), p, b.GroupPosition())
		}
	}
	for i, c := range []Cell{{10, 2}, {11, 2}, {12, 2}} {
		if w.blockCell(g.Blocks()[i]) != c {
			t.Errorf("Block %d: expected %v, got %v", i, c, w.blockCell(g.Blocks()[i]))
		}
	}
	if w.lastSettle != EventMerge {
		t.Errorf("Expected merge result, got %q", w.lastSettle)
	}
	if w.message != "Merged into 123" {
		t.Errorf("Unexpected message %q", w.message)
	}

	events := w.drain()
	if len(events) != 2 || events[1].Type != EventMerge {
		t.Errorf("Expected release then merge events, got %+v", events)
	}
}

func TestSettle_MergeCap(t *testing.T) {
	engine := newTestEngine(t)
	w := engine.world
	long := placeNumber(t, w, 12345, Cell{5, 4})
	six := placeNumber(t, w, 6, Cell{5, 6}).Blocks()[0]

	six.MoveTo(w.center(Cell{10, 4}))
	if err := w.Settle(six); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if long.String() != "123456" {
		t.Fatalf("Expected 123456, got %q", long.String())
	}

	// a seventh digit is refused on the left but still joins the loose 7 on its right
	eight := placeNumber(t, w, 8, Cell{5, 6}).Blocks()[0]
	eight.MoveTo(w.center(Cell{11, 4}))
	if err := w.Settle(eight); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if long.String() != "123456" {
		t.Errorf("Expected capped group to stay 123456, got %q", long.String())
	}
	if groupText(t, eight) != "87" {
		t.Errorf("Expected 87, got %q", groupText(t, eight))
	}
}

func TestSettle_FixedBlocksDoNotMerge(t *testing.T) {
	engine := newTestEngine(t)
	w := engine.world
	b := placeNumber(t, w, 9, Cell{5, 5}).Blocks()[0]

	// (2,1) lies between the LHS operand and the operator
	b.MoveTo(w.center(Cell{2, 1}))
	if err := w.Settle(b); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if groupText(t, b) != "9" {
		t.Errorf("Expected block to stay alone beside fixed blocks, got %q", groupText(t, b))
	}
	if w.problems[0].LHS.String() != "2" {
		t.Errorf("Operand changed to %q", w.problems[0].LHS.String())
	}
}

func TestSettle_SplitsOldGroup(t *testing.T) {
	engine := newTestEngine(t)
	w := engine.world
	g := placeNumber(t, w, 123, Cell{10, 2})
	members := g.Blocks()
	one, two, three := members[0], members[1], members[2]

	two.MoveTo(w.center(Cell{5, 5}))
	if err := w.Settle(two); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	if groupText(t, two) != "2" || two.GroupPosition() != blocks.Standalone {
		t.Errorf("Expected lifted block alone, got %q", groupText(t, two))
	}
	if groupText(t, one) != "1" || groupText(t, three) != "3" {
		t.Errorf("Expected remainder split into 1 and 3, got %q and %q", groupText(t, one), groupText(t, three))
	}
	if w.blockCell(three) != (Cell{12, 2}) {
		t.Errorf("Remaining blocks should stay put, got %v", w.blockCell(three))
	}
}

func TestSettle_AnswerSlot(t *testing.T) {
	tests := []struct {
		name           string
		value          int
		classification blocks.Classification
		event          string
		message        string
		score          int
	}{
		{"right digit", 4, blocks.Correct, EventCorrect, "Victory! All 1 problems solved!", 1},
		{"wrong digit", 9, blocks.Incorrect, EventIncorrect, "Incorrect!", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t)
			w := engine.world
			b := placeNumber(t, w, tt.value, Cell{5, 5}).Blocks()[0]

			b.MoveTo(w.center(Cell{9, 1}))
			if err := w.Settle(b); err != nil {
				t.Fatalf("Settle failed: %v", err)
			}
			w.UpdateScore()

			if b.Classification() != tt.classification {
				t.Errorf("Expected %s, got %s", tt.classification, b.Classification())
			}
			if w.lastSettle != tt.event {
				t.Errorf("Expected result %q, got %q", tt.event, w.lastSettle)
			}
			if w.message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, w.message)
			}
			if w.score != tt.score {
				t.Errorf("Expected score %d, got %d", tt.score, w.score)
			}
			info, err := engine.DescribeBlock(b.ID())
			if err != nil {
				t.Fatalf("DescribeBlock failed: %v", err)
			}
			if info.SlotIndex == nil || *info.SlotIndex != 0 || info.ProblemID != w.problems[0].ID {
				t.Errorf("Expected block on slot 0 of the problem, got %+v", info)
			}
		})
	}
}

func TestSettle_IncorrectBlockCanBeMovedBack(t *testing.T) {
	engine := newTestEngine(t)
	w := engine.world
	b := placeNumber(t, w, 9, Cell{5, 5}).Blocks()[0]

	b.MoveTo(w.center(Cell{9, 1}))
	w.Settle(b)
	if !b.Classification().Grabbable() {
		t.Fatal("Incorrect blocks should be grabbable")
	}

	b.MoveTo(w.center(Cell{5, 5}))
	w.Settle(b)
	if b.Classification() != blocks.Movable {
		t.Errorf("Expected movable after leaving the slot, got %s", b.Classification())
	}
}
