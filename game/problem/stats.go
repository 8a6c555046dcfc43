package problem

import "math"

// OperatorStats counts clean outcomes for one operator over a range
type OperatorStats struct {
	Operator Operator `json:"operator"`
	Total    int      `json:"total"`
	Clean    int      `json:"clean"`
}

// Stats summarizes every possible draw over a range and operator set
type Stats struct {
	Min         int             `json:"min"`
	Max         int             `json:"max"`
	Total       int             `json:"total"`
	Clean       int             `json:"clean"`
	MaxAnswer   int             `json:"max_answer"`
	ByOperator  []OperatorStats `json:"by_operator"`
	Probability float64         `json:"probability"`
}

// ExpectedDraws is the mean number of draws Clean needs, or +Inf when no draw is clean
func (s Stats) ExpectedDraws() float64 {
	if s.Clean == 0 {
		return math.Inf(1)
	}
	return float64(s.Total) / float64(s.Clean)
}

// Enumerate counts every (lhs, op, rhs) combination Clean could draw. Each
// combination is equally likely, so Clean/Total is the per-draw success rate.
// Non-negative ranges are counted in closed form, so the cost is at most
// linear in the range width.
func Enumerate(min, max int, ops []Operator, allowNegative bool) (Stats, error) {
	g := &Generator{Operators: ops}
	if err := g.validate(min, max); err != nil {
		return Stats{}, err
	}
	if min < 0 {
		return enumerateAll(min, max, ops, allowNegative), nil
	}

	s := Stats{Min: min, Max: max}
	n := max - min + 1
	for _, op := range ops {
		os := OperatorStats{Operator: op, Total: n * n}
		answer := -1
		switch op {
		case Add:
			os.Clean, answer = n*n, max+max
		case Multiply:
			os.Clean, answer = n*n, max*max
		case Subtract:
			os.Clean, answer = n*n, max-min
			if !allowNegative {
				// lhs >= rhs
				os.Clean = n * (n + 1) / 2
			}
		case Divide:
			os.Clean, answer = countDivisions(min, max)
		}
		if os.Clean > 0 && answer > s.MaxAnswer {
			s.MaxAnswer = answer
		}
		s.Total += os.Total
		s.Clean += os.Clean
		s.ByOperator = append(s.ByOperator, os)
	}
	if s.Total > 0 {
		s.Probability = float64(s.Clean) / float64(s.Total)
	}
	return s, nil
}

// countDivisions counts pairs in [min, max] where rhs divides lhs exactly,
// along with the largest quotient. min must be at least 0.
func countDivisions(min, max int) (clean, maxQuotient int) {
	maxQuotient = -1
	for rhs := min; rhs <= max; rhs++ {
		if rhs == 0 {
			continue
		}
		// multiples of rhs in [min, max]
		multiples := max/rhs - (min+rhs-1)/rhs + 1
		if multiples <= 0 {
			continue
		}
		clean += multiples
		if q := max / rhs; q > maxQuotient {
			maxQuotient = q
		}
	}
	return clean, maxQuotient
}

// enumerateAll walks every combination one by one
func enumerateAll(min, max int, ops []Operator, allowNegative bool) Stats {
	s := Stats{Min: min, Max: max}
	for _, op := range ops {
		os := OperatorStats{Operator: op}
		for lhs := min; lhs <= max; lhs++ {
			for rhs := min; rhs <= max; rhs++ {
				os.Total++
				d := Draw{LHS: lhs, RHS: rhs, Operator: op, Answer: op.Apply(lhs, rhs)}
				p, ok := accept(d, allowNegative)
				if !ok {
					continue
				}
				os.Clean++
				if p.Answer > s.MaxAnswer {
					s.MaxAnswer = p.Answer
				}
			}
		}
		s.Total += os.Total
		s.Clean += os.Clean
		s.ByOperator = append(s.ByOperator, os)
	}
	if s.Total > 0 {
		s.Probability = float64(s.Clean) / float64(s.Total)
	}
	return s
}
