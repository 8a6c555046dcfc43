package assembly

import (
	"errors"
	"testing"

	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/problem"
	"github.com/wricardo/mcp-training/numberblocks/game/scene"
)

const testTile = 32

func newTestTable(t *testing.T) *blocks.Table {
	t.Helper()
	table, err := blocks.NewTable(scene.New(scene.NewTextureCache(blocks.Manifest())), testTile)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return table
}

func TestNewFromProblem_SevenPlusThree(t *testing.T) {
	table := newTestTable(t)
	p := problem.Problem{LHS: 7, RHS: 3, Operator: problem.Add, Answer: 10}

	v, err := NewFromProblem(table, p, "")
	if err != nil {
		t.Fatalf("Failed to build problem: %v", err)
	}
	if v.ID == "" {
		t.Error("Expected a generated id")
	}
	if v.Answer.String() != "10" {
		t.Errorf("Expected answer blocks [1,0], got %q", v.Answer.String())
	}
	answer := v.Answer.Blocks()
	if answer[0].GroupPosition() != blocks.Left || answer[1].GroupPosition() != blocks.Right {
		t.Errorf("Expected [left right], got [%s %s]", answer[0].GroupPosition(), answer[1].GroupPosition())
	}
}

func TestNewFromProblem_Classifications(t *testing.T) {
	table := newTestTable(t)
	v, err := NewFromProblem(table, problem.Problem{LHS: 12, RHS: 4, Operator: problem.Divide, Answer: 3}, "p1")
	if err != nil {
		t.Fatalf("Failed to build problem: %v", err)
	}

	want := map[*blocks.Group]blocks.Classification{
		v.LHS:      blocks.Immovable,
		v.RHS:      blocks.Immovable,
		v.Operator: blocks.Operator,
		v.Equals:   blocks.Operator,
		v.Answer:   blocks.Movable,
	}
	for g, class := range want {
		for _, b := range g.Blocks() {
			if b.Classification() != class {
				t.Errorf("Group %q: expected %s, got %s", g.String(), class, b.Classification())
			}
		}
	}
	if sym, _ := v.Operator.Symbol(); sym != blocks.Divide {
		t.Errorf("Expected / operator, got %q", v.Operator.String())
	}
}

func TestNewFromProblem_RejectsWrongAnswer(t *testing.T) {
	table := newTestTable(t)
	_, err := NewFromProblem(table, problem.Problem{LHS: 2, RHS: 2, Operator: problem.Add, Answer: 5}, "")
	if !errors.Is(err, ErrUnsolvable) {
		t.Errorf("Expected ErrUnsolvable, got %v", err)
	}
	if _, err := NewFromProblem(nil, problem.Problem{LHS: 1, RHS: 1, Operator: problem.Add, Answer: 2}, ""); !errors.Is(err, ErrNilTable) {
		t.Errorf("Expected ErrNilTable, got %v", err)
	}
}

func TestLayout_Spacing(t *testing.T) {
	table := newTestTable(t)
	// 12 * 5 = 60: sizes 2,1,1,1,2
	v, err := NewFromProblem(table, problem.Problem{LHS: 12, RHS: 5, Operator: problem.Multiply, Answer: 60}, "")
	if err != nil {
		t.Fatalf("Failed to build problem: %v", err)
	}
	v.Layout(100, 300)

	wantX := []float64{
		100,
		100 + testTile*(2*2+2),
		100 + testTile*(2*2+2) + testTile*(2*1+2),
		100 + testTile*(2*2+2) + 2*testTile*(2*1+2),
		100 + testTile*(2*2+2) + 3*testTile*(2*1+2),
	}
	for i, p := range v.DrawOrder() {
		x, y := p.Position()
		if x != wantX[i] || y != 300 {
			t.Errorf("Group %d: expected (%v,300), got (%v,%v)", i, wantX[i], x, y)
		}
	}

	// members sit at the group pitch
	lhs := v.LHS.Blocks()
	if x, _ := lhs[1].Position(); x != 100+2*testTile {
		t.Errorf("Expected second lhs digit at %v, got %v", 100+2*testTile, x)
	}

	if v.Width() != testTile*float64(6+4+4+4+6) {
		t.Errorf("Unexpected width %v", v.Width())
	}

	// relayout is fully re-derived from the anchor
	v.Layout(0, 0)
	v.Layout(100, 300)
	if x, _ := v.Answer.Position(); x != wantX[4] {
		t.Errorf("Expected answer at %v after relayout, got %v", wantX[4], x)
	}
}

func TestSlotsAndScatter(t *testing.T) {
	table := newTestTable(t)
	v, err := NewFromProblem(table, problem.Problem{LHS: 7, RHS: 3, Operator: problem.Add, Answer: 10}, "")
	if err != nil {
		t.Fatalf("Failed to build problem: %v", err)
	}
	v.Layout(0, 0)

	slots := v.Slots()
	if len(slots) != 2 || slots[0].Expected != '1' || slots[1].Expected != '0' {
		t.Fatalf("Unexpected slots %+v", slots)
	}
	ax, _ := v.Answer.Position()
	if slots[0].X != ax || slots[1].X != ax+2*testTile {
		t.Errorf("Expected slots at answer digits, got %+v", slots)
	}
	if i, ok := v.SlotAt(slots[1].X+5, slots[1].Y-5); !ok || i != 1 {
		t.Errorf("Expected point near slot 1 to resolve, got %d %v", i, ok)
	}
	if _, ok := v.SlotAt(slots[1].X+100, slots[1].Y); ok {
		t.Error("Expected far point to match no slot")
	}

	loose, err := v.Scatter()
	if err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}
	if len(loose) != 2 || !v.Scattered() {
		t.Fatalf("Expected 2 loose groups, got %d", len(loose))
	}
	for _, g := range loose {
		if g.Size() != 1 || g.Blocks()[0].GroupPosition() != blocks.Standalone {
			t.Errorf("Expected standalone loose group, got %q", g.String())
		}
	}
	if v.Answer != nil {
		t.Error("Expected answer group dropped after scatter")
	}

	// slots survive relayout after scattering
	v.Layout(0, 0)
	if got := v.Slots(); got[0] != slots[0] || got[1] != slots[1] {
		t.Errorf("Expected stable slots, got %+v", got)
	}
}

func TestNew_UsesGenerator(t *testing.T) {
	table := newTestTable(t)
	gen := problem.NewGenerator(5)
	for i := 0; i < 20; i++ {
		v, err := New(table, gen, 1, 10)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		n, ok := v.Answer.Number()
		if !ok || n != v.Problem.Answer {
			t.Errorf("Expected answer group %d, got %d", v.Problem.Answer, n)
		}
	}

	if _, err := New(table, nil, 1, 10); !errors.Is(err, ErrNilGenerator) {
		t.Errorf("Expected ErrNilGenerator, got %v", err)
	}
}

func TestNew_NeverNegative(t *testing.T) {
	table := newTestTable(t)
	gen := problem.NewGenerator(8)
	gen.Operators = []problem.Operator{problem.Subtract}
	for i := 0; i < 50; i++ {
		v, err := New(table, gen, 1, 10)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if v.Problem.Answer < 0 {
			t.Fatalf("Expected a non-negative answer, got %s", v.Problem)
		}
	}
	if !gen.AllowNegative {
		t.Error("Expected the caller's generator to be left unchanged")
	}
}

func TestRestore(t *testing.T) {
	table := newTestTable(t)
	p := problem.Problem{LHS: 9, RHS: 3, Operator: problem.Subtract, Answer: 6}
	orig, err := NewFromProblem(table, p, "keep-me")
	if err != nil {
		t.Fatalf("Failed to build problem: %v", err)
	}
	orig.Layout(64, 128)
	if _, err := orig.Scatter(); err != nil {
		t.Fatalf("Scatter failed: %v", err)
	}

	restored, err := Restore(table, orig.ID, p, orig.LHS, orig.Operator, orig.RHS, orig.Equals, nil, 64, 128, true)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.ID != "keep-me" || !restored.Scattered() {
		t.Errorf("Expected id and scatter flag preserved, got %s %v", restored.ID, restored.Scattered())
	}
	if got, want := restored.Slots(), orig.Slots(); len(got) != 1 || got[0] != want[0] {
		t.Errorf("Expected slots %+v, got %+v", want, got)
	}
	if len(restored.DrawOrder()) != 4 {
		t.Errorf("Expected 4 drawable groups, got %d", len(restored.DrawOrder()))
	}

	if _, err := Restore(table, "x", p, nil, nil, nil, nil, nil, 0, 0, false); err == nil {
		t.Error("Expected error for missing groups")
	}
}
