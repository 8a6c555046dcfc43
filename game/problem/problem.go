// Package problem generates two-operand arithmetic problems whose answers are
// clean integers. A generator accepts negative answers unless AllowNegative is
// cleared; digit blocks can only spell non-negative ones.
//
// Draws are uniform: both operands come from an inclusive range and the
// operator from the allowed set. Answers are computed exactly with big.Rat, so
// division is real division and a fractional quotient is detected without
// floating point error. Clean redraws until the answer is integral.
package problem

import (
	"errors"
	"fmt"
	"math/big"
	"math/rand"
)

var (
	ErrInvalidRange    = errors.New("invalid operand range")
	ErrInvalidOperator = errors.New("invalid operator")
	ErrNoCleanProblem  = errors.New("no clean problem found within draw limit")
)

const (
	DefaultMin      = 1
	DefaultMax      = 10
	DefaultMaxDraws = 1000000
)

// Operator is one of + - * /
type Operator rune

const (
	Add      Operator = '+'
	Subtract Operator = '-'
	Multiply Operator = '*'
	Divide   Operator = '/'
)

// AllOperators is the default operator set
var AllOperators = []Operator{Add, Subtract, Multiply, Divide}

func (o Operator) String() string { return string(rune(o)) }

func (o Operator) Valid() bool {
	switch o {
	case Add, Subtract, Multiply, Divide:
		return true
	}
	return false
}

func (o Operator) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, rune(o))
	}
	return []byte(o.String()), nil
}

func (o *Operator) UnmarshalText(text []byte) error {
	op, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// ParseOperator converts a one-character string to an operator
func ParseOperator(s string) (Operator, error) {
	r := []rune(s)
	if len(r) != 1 || !Operator(r[0]).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperator, s)
	}
	return Operator(r[0]), nil
}

// Apply computes lhs op rhs exactly. It returns nil when dividing by zero.
func (o Operator) Apply(lhs, rhs int) *big.Rat {
	l := new(big.Rat).SetInt64(int64(lhs))
	r := new(big.Rat).SetInt64(int64(rhs))
	switch o {
	case Add:
		return l.Add(l, r)
	case Subtract:
		return l.Sub(l, r)
	case Multiply:
		return l.Mul(l, r)
	case Divide:
		if r.Sign() == 0 {
			return nil
		}
		return l.Quo(l, r)
	}
	return nil
}

// Draw is one raw generation: operands, operator and exact answer
type Draw struct {
	LHS      int
	RHS      int
	Operator Operator
	Answer   *big.Rat // nil when undefined
}

// Integral reports whether the answer is defined and has no fractional part
func (d Draw) Integral() bool {
	return d.Answer != nil && d.Answer.IsInt()
}

// Problem is a clean arithmetic problem
type Problem struct {
	LHS      int      `json:"lhs"`
	RHS      int      `json:"rhs"`
	Operator Operator `json:"operator"`
	Answer   int      `json:"answer"`
}

// Check reports whether applying the operator to the operands reproduces the answer
func (p Problem) Check() bool {
	got := p.Operator.Apply(p.LHS, p.RHS)
	return got != nil && got.IsInt() && got.Num().IsInt64() && got.Num().Int64() == int64(p.Answer)
}

func (p Problem) String() string {
	return fmt.Sprintf("%d %s %d = %d", p.LHS, p.Operator, p.RHS, p.Answer)
}

// Generator draws problems from a seeded source. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand

	Operators     []Operator
	MaxDraws      int
	AllowNegative bool
}

// NewGenerator creates a generator over all four operators that accepts
// negative answers
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:           rand.New(rand.NewSource(seed)),
		Operators:     AllOperators,
		MaxDraws:      DefaultMaxDraws,
		AllowNegative: true,
	}
}

func (g *Generator) validate(min, max int) error {
	if min > max {
		return fmt.Errorf("%w: min %d > max %d", ErrInvalidRange, min, max)
	}
	if len(g.Operators) == 0 {
		return fmt.Errorf("%w: empty operator set", ErrInvalidOperator)
	}
	for _, op := range g.Operators {
		if !op.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidOperator, rune(op))
		}
	}
	return nil
}

// Generate makes one uniform draw from [min, max]
func (g *Generator) Generate(min, max int) (Draw, error) {
	if err := g.validate(min, max); err != nil {
		return Draw{}, err
	}
	return g.draw(min, max), nil
}

func (g *Generator) draw(min, max int) Draw {
	span := max - min + 1
	d := Draw{
		LHS:      min + g.rng.Intn(span),
		RHS:      min + g.rng.Intn(span),
		Operator: g.Operators[g.rng.Intn(len(g.Operators))],
	}
	d.Answer = d.Operator.Apply(d.LHS, d.RHS)
	return d
}

// Clean redraws until the answer is a clean integer and returns it normalized.
// It gives up with ErrNoCleanProblem after MaxDraws attempts, which only
// happens for operator sets and ranges where no draw is ever clean.
func (g *Generator) Clean(min, max int) (Problem, error) {
	if err := g.validate(min, max); err != nil {
		return Problem{}, err
	}
	limit := g.MaxDraws
	if limit <= 0 {
		limit = DefaultMaxDraws
	}

	for i := 0; i < limit; i++ {
		d := g.draw(min, max)
		if p, ok := g.accept(d); ok {
			return p, nil
		}
	}
	return Problem{}, fmt.Errorf("%w: %d draws in [%d,%d]", ErrNoCleanProblem, limit, min, max)
}

func (g *Generator) accept(d Draw) (Problem, bool) {
	return accept(d, g.AllowNegative)
}

func accept(d Draw, allowNegative bool) (Problem, bool) {
	if !d.Integral() || !d.Answer.Num().IsInt64() {
		return Problem{}, false
	}
	answer := d.Answer.Num().Int64()
	if answer < 0 && !allowNegative {
		return Problem{}, false
	}
	return Problem{LHS: d.LHS, RHS: d.RHS, Operator: d.Operator, Answer: int(answer)}, true
}
