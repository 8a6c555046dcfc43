package blocks

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupID identifies a group within its Table
type GroupID uint64

// Group is an ordered run of blocks read as one number, or a single symbol
// block read as that symbol.
type Group struct {
	id     GroupID
	table  *Table
	blocks []*DigitBlock
	x, y   float64
	value  int
}

// NewGroup wraps existing blocks, leftmost most significant. Blocks are taken
// out of any group they were in. The anchor is the first block's position.
func (t *Table) NewGroup(members ...*DigitBlock) (*Group, error) {
	if len(members) == 0 {
		return nil, ErrEmptyGroup
	}
	seen := make(map[BlockID]bool, len(members))
	for _, b := range members {
		if err := t.checkOwned(b); err != nil {
			return nil, err
		}
		if seen[b.id] {
			return nil, fmt.Errorf("%w: block %d listed twice", ErrInvalidValue, b.id)
		}
		seen[b.id] = true
		if b.value.IsSymbol() && len(members) > 1 {
			return nil, fmt.Errorf("%w: %s", ErrMixedGroup, b.value)
		}
	}

	t.nextGroup++
	g := &Group{id: t.nextGroup, table: t}
	for _, b := range members {
		t.detach(b)
		g.blocks = append(g.blocks, b)
		t.member[b.id] = g.id
	}
	t.groups[g.id] = g
	g.x, g.y = members[0].Position()
	g.recompute()
	return g, nil
}

// NewGroupFromNumber synthesizes one block per decimal digit of n, most
// significant first.
func (t *Table) NewGroupFromNumber(n int) (*Group, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeValue, n)
	}

	var digits []int
	for mult := 1; ; mult *= 10 {
		// k-th digit: (n mod 10^(k+1) - n mod 10^k) / 10^k
		digits = append([]int{(n / mult) % 10}, digits...)
		if n/mult < 10 {
			break
		}
	}

	members := make([]*DigitBlock, 0, len(digits))
	for _, d := range digits {
		v, err := DigitValue(d)
		if err != nil {
			return nil, err
		}
		b, err := t.NewBlock(v)
		if err != nil {
			return nil, err
		}
		members = append(members, b)
	}
	return t.NewGroup(members...)
}

// NewGroupFromSymbol creates a one-block symbol group
func (t *Table) NewGroupFromSymbol(v Value) (*Group, error) {
	if !v.IsSymbol() {
		return nil, fmt.Errorf("%w: %q is not a symbol", ErrInvalidValue, rune(v))
	}
	b, err := t.NewBlock(v)
	if err != nil {
		return nil, err
	}
	return t.NewGroup(b)
}

// NewGroupFromToken builds a group from a decimal number or a single symbol
func (t *Table) NewGroupFromToken(token string) (*Group, error) {
	token = strings.TrimSpace(token)
	if n, err := strconv.Atoi(token); err == nil {
		return t.NewGroupFromNumber(n)
	}
	r := []rune(token)
	if len(r) != 1 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidValue, token)
	}
	return t.NewGroupFromSymbol(Value(r[0]))
}

func (g *Group) ID() GroupID { return g.id }
func (g *Group) Size() int   { return len(g.blocks) }

// Position returns the group anchor, the center of its first block after MoveTo
func (g *Group) Position() (float64, float64) {
	return g.x, g.y
}

// Blocks returns the members in order
func (g *Group) Blocks() []*DigitBlock {
	out := make([]*DigitBlock, len(g.blocks))
	copy(out, g.blocks)
	return out
}

func (g *Group) Contains(b *DigitBlock) bool {
	return g.indexOf(b) >= 0
}

// Symbol returns the symbol of a symbol group
func (g *Group) Symbol() (Value, bool) {
	if len(g.blocks) == 1 && g.blocks[0].value.IsSymbol() {
		return g.blocks[0].value, true
	}
	return 0, false
}

// Number returns the numeric value of a digit group
func (g *Group) Number() (int, bool) {
	if _, ok := g.Symbol(); ok || len(g.blocks) == 0 {
		return 0, false
	}
	return g.value, true
}

func (g *Group) String() string {
	var sb strings.Builder
	for _, b := range g.blocks {
		sb.WriteString(b.value.String())
	}
	return sb.String()
}

// PlaceLeft inserts b as the new most significant block
func (g *Group) PlaceLeft(b *DigitBlock) error {
	return g.insert(0, b)
}

// PlaceRight appends b as the new least significant block
func (g *Group) PlaceRight(b *DigitBlock) error {
	return g.insert(len(g.blocks), b)
}

// Remove takes b out of the group. An emptied group is dropped from its table.
func (g *Group) Remove(b *DigitBlock) error {
	i := g.indexOf(b)
	if i < 0 {
		return fmt.Errorf("%w: block %d group %d", ErrBlockNotInGroup, b.id, g.id)
	}
	g.removeAt(i)
	b.SetGroupPosition(Standalone)
	return nil
}

// MoveTo anchors the group at (x, y) and lays members out at a fixed pitch
func (g *Group) MoveTo(x, y float64) {
	g.x, g.y = x, y
	pitch := g.table.Pitch()
	for i, b := range g.blocks {
		b.MoveTo(x+float64(i)*pitch, y)
	}
	g.refreshPositions()
}

// SetClassification applies c to every member
func (g *Group) SetClassification(c Classification) {
	for _, b := range g.blocks {
		b.SetClassification(c)
	}
}

func (g *Group) insert(at int, b *DigitBlock) error {
	if err := g.table.checkOwned(b); err != nil {
		return err
	}
	if g.Contains(b) {
		return nil
	}
	if _, ok := g.Symbol(); ok || b.value.IsSymbol() {
		return fmt.Errorf("%w: %s into %q", ErrMixedGroup, b.value, g.String())
	}

	g.table.detach(b)
	g.blocks = append(g.blocks, nil)
	copy(g.blocks[at+1:], g.blocks[at:])
	g.blocks[at] = b
	g.table.member[b.id] = g.id
	g.recompute()
	return nil
}

func (g *Group) removeAt(i int) {
	b := g.blocks[i]
	g.blocks = append(g.blocks[:i], g.blocks[i+1:]...)
	delete(g.table.member, b.id)
	if len(g.blocks) == 0 {
		g.table.dropGroup(g)
		return
	}
	g.recompute()
}

func (g *Group) indexOf(b *DigitBlock) int {
	for i, m := range g.blocks {
		if m == b {
			return i
		}
	}
	return -1
}

func (g *Group) recompute() {
	g.value = 0
	if _, ok := g.Symbol(); !ok {
		mult := 1
		for i := len(g.blocks) - 1; i >= 0; i-- {
			g.value += g.blocks[i].value.Digit() * mult
			mult *= 10
		}
	}
	g.refreshPositions()
}

func (g *Group) refreshPositions() {
	for i, b := range g.blocks {
		b.SetGroupPosition(DerivePosition(i, len(g.blocks)))
	}
}
