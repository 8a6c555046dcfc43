// Package assembly lays out an arithmetic problem as five block groups:
// left operand, operator, right operand, equals sign and answer.
package assembly

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/problem"
)

const answerIndex = 4

var (
	ErrNilTable     = errors.New("block table is required")
	ErrNilGenerator = errors.New("problem generator is required")
	ErrUnsolvable   = errors.New("problem answer cannot be shown with blocks")
)

// Slot is where one answer digit belongs once the problem is laid out
type Slot struct {
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Expected blocks.Value `json:"expected"`
}

// VisualProblem is one laid-out problem. Groups keep the classification the
// problem gives them: operands Immovable, operator and equals Operator, answer Movable.
type VisualProblem struct {
	ID      string
	Problem problem.Problem

	LHS      *blocks.Group
	Operator *blocks.Group
	RHS      *blocks.Group
	Equals   *blocks.Group
	Answer   *blocks.Group

	table   *blocks.Table
	x, y    float64
	sizes   [5]int
	digits  []blocks.Value
	slots   []Slot
	scatter []*blocks.Group
}

// New draws a clean, non-negative problem from gen and builds its groups. gen
// keeps its own AllowNegative setting.
func New(table *blocks.Table, gen *problem.Generator, min, max int) (*VisualProblem, error) {
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if table == nil {
		return nil, ErrNilTable
	}
	spellable := *gen
	spellable.AllowNegative = false
	p, err := spellable.Clean(min, max)
	if err != nil {
		return nil, fmt.Errorf("generate problem: %w", err)
	}
	return NewFromProblem(table, p, uuid.NewString())
}

// NewFromProblem builds the groups for a known problem
func NewFromProblem(table *blocks.Table, p problem.Problem, id string) (*VisualProblem, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	if !p.Check() || p.Answer < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsolvable, p)
	}
	if id == "" {
		id = uuid.NewString()
	}

	v := &VisualProblem{ID: id, Problem: p, table: table}
	var err error
	if v.LHS, err = table.NewGroupFromNumber(p.LHS); err != nil {
		return nil, fmt.Errorf("lhs: %w", err)
	}
	if v.Operator, err = table.NewGroupFromSymbol(blocks.Value(p.Operator)); err != nil {
		return nil, fmt.Errorf("operator: %w", err)
	}
	if v.RHS, err = table.NewGroupFromNumber(p.RHS); err != nil {
		return nil, fmt.Errorf("rhs: %w", err)
	}
	if v.Equals, err = table.NewGroupFromSymbol(blocks.Equals); err != nil {
		return nil, fmt.Errorf("equals: %w", err)
	}
	if v.Answer, err = table.NewGroupFromNumber(p.Answer); err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	v.LHS.SetClassification(blocks.Immovable)
	v.RHS.SetClassification(blocks.Immovable)
	v.Operator.SetClassification(blocks.Operator)
	v.Equals.SetClassification(blocks.Operator)
	v.Answer.SetClassification(blocks.Movable)
	v.measure()
	return v, nil
}

// Restore rebuilds a laid-out problem around groups that already exist, as
// when loading a saved world. answer may be nil once the answer was scattered.
// Nothing is moved; slots are re-derived from the anchor.
func Restore(table *blocks.Table, id string, p problem.Problem, lhs, op, rhs, eq, answer *blocks.Group, anchorX, anchorY float64, scattered bool) (*VisualProblem, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	if !p.Check() || p.Answer < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsolvable, p)
	}
	if lhs == nil || op == nil || rhs == nil || eq == nil {
		return nil, fmt.Errorf("restore %s: operand, operator and equals groups are required", id)
	}

	v := &VisualProblem{
		ID:       id,
		Problem:  p,
		LHS:      lhs,
		Operator: op,
		RHS:      rhs,
		Equals:   eq,
		Answer:   answer,
		table:    table,
		x:        anchorX,
		y:        anchorY,
	}
	v.measure()
	v.computeSlots()
	if scattered {
		v.scatter = []*blocks.Group{}
	}
	return v, nil
}

// measure fixes each group's width from the problem itself, so the layout
// does not shift when answer blocks are carried away
func (v *VisualProblem) measure() {
	v.sizes = [5]int{digitCount(v.Problem.LHS), 1, digitCount(v.Problem.RHS), 1, digitCount(v.Problem.Answer)}
	v.digits = v.digits[:0]
	for _, r := range strconv.Itoa(v.Problem.Answer) {
		v.digits = append(v.digits, blocks.Value(r))
	}
}

func digitCount(n int) int {
	return len(strconv.Itoa(n))
}

func (v *VisualProblem) groups() []*blocks.Group {
	return []*blocks.Group{v.LHS, v.Operator, v.RHS, v.Equals, v.Answer}
}

// DrawOrder returns the groups left to right, skipping an emptied answer
func (v *VisualProblem) DrawOrder() []blocks.Placeable {
	out := make([]blocks.Placeable, 0, 5)
	for _, g := range v.groups() {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}

// Groups returns the groups left to right; the answer entry is nil once dropped
func (v *VisualProblem) Groups() []*blocks.Group {
	return v.groups()
}

// Layout places each group at a running cursor starting at the anchor. The
// cursor advances two tile units per digit plus a two unit gap, so the layout
// is fully determined by the anchor.
func (v *VisualProblem) Layout(anchorX, anchorY float64) {
	v.x, v.y = anchorX, anchorY
	for i, g := range v.groups() {
		if g != nil && g.Size() > 0 {
			g.MoveTo(v.cursor(i), anchorY)
		}
	}
	v.computeSlots()
}

// cursor returns the x coordinate of the i-th group in draw order
func (v *VisualProblem) cursor(i int) float64 {
	tile := v.table.TileSize()
	x := v.x
	for _, size := range v.sizes[:i] {
		x += tile * float64(2*size+2)
	}
	return x
}

func (v *VisualProblem) computeSlots() {
	pitch := v.table.Pitch()
	start := v.cursor(answerIndex)
	v.slots = v.slots[:0]
	for d, digit := range v.digits {
		v.slots = append(v.slots, Slot{X: start + float64(d)*pitch, Y: v.y, Expected: digit})
	}
}

// Anchor returns the position passed to the last Layout
func (v *VisualProblem) Anchor() (float64, float64) {
	return v.x, v.y
}

// Width is the horizontal extent Layout covers, gaps included
func (v *VisualProblem) Width() float64 {
	total := 0
	for _, s := range v.sizes {
		total += 2*s + 2
	}
	return v.table.TileSize() * float64(total)
}

// Slots returns where the answer digits belong, valid after Layout
func (v *VisualProblem) Slots() []Slot {
	out := make([]Slot, len(v.slots))
	copy(out, v.slots)
	return out
}

// SlotAt returns the index of the slot whose cell contains (x, y)
func (v *VisualProblem) SlotAt(x, y float64) (int, bool) {
	half := v.table.Pitch() / 2
	for i, s := range v.slots {
		if math.Abs(s.X-x) < half && math.Abs(s.Y-y) < half {
			return i, true
		}
	}
	return -1, false
}

// Scatter breaks the answer group apart so each answer digit becomes its own
// standalone, movable group. The answer slots stay where Layout put them.
func (v *VisualProblem) Scatter() ([]*blocks.Group, error) {
	if v.Answer == nil {
		return nil, nil
	}
	members := v.Answer.Blocks()
	out := make([]*blocks.Group, 0, len(members))
	for _, b := range members {
		g, err := v.table.NewGroup(b)
		if err != nil {
			return nil, fmt.Errorf("scatter block %d: %w", b.ID(), err)
		}
		g.SetClassification(blocks.Movable)
		out = append(out, g)
	}
	v.scatter = out
	v.Answer = nil
	return out, nil
}

// Scattered reports whether Scatter has run
func (v *VisualProblem) Scattered() bool {
	return v.scatter != nil
}

// Contains reports whether the block is one of the problem's fixed blocks:
// operands, operator or equals.
func (v *VisualProblem) Contains(b *blocks.DigitBlock) bool {
	for _, g := range []*blocks.Group{v.LHS, v.Operator, v.RHS, v.Equals} {
		if g.Contains(b) {
			return true
		}
	}
	return false
}
