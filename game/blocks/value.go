package blocks

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidValue       = errors.New("invalid block value")
	ErrInvalidClass       = errors.New("invalid classification")
	ErrInvalidPosition    = errors.New("invalid group position")
	ErrNegativeValue      = errors.New("negative values cannot be shown as blocks")
	ErrMixedGroup         = errors.New("symbol blocks cannot join other blocks")
	ErrBlockNotInGroup    = errors.New("block is not a member of this group")
	ErrBlockRemoved       = errors.New("block was removed from its table")
	ErrEmptyGroup         = errors.New("group needs at least one block")
	ErrNilScene           = errors.New("scene is required")
	ErrInvalidTileSize    = errors.New("tile size must be positive")
	ErrForeignBlock       = errors.New("block belongs to a different table")
	ErrManifestIncomplete = errors.New("asset manifest is missing block textures")
)

// Value is the glyph a block shows: a digit '0'..'9' or one of the symbols below
type Value rune

const (
	Add      Value = '+'
	Subtract Value = '-'
	Multiply Value = '*'
	Divide   Value = '/'
	Equals   Value = '='
)

// Symbols lists every non-digit value
var Symbols = []Value{Add, Subtract, Multiply, Divide, Equals}

// DigitValue returns the value for a single decimal digit
func DigitValue(d int) (Value, error) {
	if d < 0 || d > 9 {
		return 0, fmt.Errorf("%w: digit %d", ErrInvalidValue, d)
	}
	return Value('0' + d), nil
}

// ParseValue validates a rune as a block value
func ParseValue(r rune) (Value, error) {
	v := Value(r)
	if !v.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, r)
	}
	return v, nil
}

// Valid reports whether v is a digit or a known symbol
func (v Value) Valid() bool {
	return v.IsDigit() || v.IsSymbol()
}

func (v Value) IsDigit() bool {
	return v >= '0' && v <= '9'
}

func (v Value) IsSymbol() bool {
	for _, s := range Symbols {
		if v == s {
			return true
		}
	}
	return false
}

// Digit returns the numeric value of a digit block, or -1 for symbols
func (v Value) Digit() int {
	if !v.IsDigit() {
		return -1
	}
	return int(v - '0')
}

func (v Value) String() string {
	return string(rune(v))
}

func (v Value) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidValue, rune(v))
	}
	return []byte(v.String()), nil
}

func (v *Value) UnmarshalText(text []byte) error {
	r := []rune(string(text))
	if len(r) != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidValue, string(text))
	}
	parsed, err := ParseValue(r[0])
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Classification is a block's interaction status
type Classification int

const (
	Movable Classification = iota
	Immovable
	Correct
	Incorrect
	Operator
)

var classificationNames = map[Classification]string{
	Movable:   "movable",
	Immovable: "immovable",
	Correct:   "correct",
	Incorrect: "incorrect",
	Operator:  "operator",
}

func (c Classification) String() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Classification(%d)", int(c))
}

// Grabbable reports whether an actor may pick up a block with this classification
func (c Classification) Grabbable() bool {
	return c == Movable || c == Incorrect
}

// ParseClassification converts a classification name back to its value
func ParseClassification(name string) (Classification, error) {
	for c, n := range classificationNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidClass, name)
}

func (c Classification) MarshalText() ([]byte, error) {
	if _, ok := classificationNames[c]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidClass, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Classification) UnmarshalText(text []byte) error {
	parsed, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// GroupPosition is a block's role inside its group
type GroupPosition int

const (
	Standalone GroupPosition = iota
	Left
	Middle
	Right
)

var positionNames = map[GroupPosition]string{
	Standalone: "standalone",
	Left:       "left",
	Middle:     "middle",
	Right:      "right",
}

func (p GroupPosition) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("GroupPosition(%d)", int(p))
}

func (p GroupPosition) MarshalText() ([]byte, error) {
	if _, ok := positionNames[p]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, int(p))
	}
	return []byte(p.String()), nil
}

func (p *GroupPosition) UnmarshalText(text []byte) error {
	for pos, name := range positionNames {
		if name == string(text) {
			*p = pos
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidPosition, string(text))
}

// DerivePosition returns the position a member at index takes in a group of size
func DerivePosition(index, size int) GroupPosition {
	switch {
	case size == 1:
		return Standalone
	case index == 0:
		return Left
	case index == size-1:
		return Right
	default:
		return Middle
	}
}
