package grounding

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/xkilldash9x/gridpoint/api/schemas"
	"github.com/xkilldash9x/gridpoint/internal/grid"
)

// Policy selects how a cell number is extracted from a model answer.
type Policy int

const (
	// PolicyTolerant concatenates every decimal digit in the answer, in order.
	// "Grid #6" yields 6, but "option 2 of 5" yields 25.
	PolicyTolerant Policy = iota
	// PolicyStrict requires the first whitespace-delimited token, stripped of
	// surrounding punctuation, to be purely numeric.
	PolicyStrict
)

func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "tolerant"
}

// Resolver maps a free-text model answer onto a cell of a layout.
// It performs no I/O and is safe for concurrent use.
type Resolver struct {
	policy Policy
}

// NewResolver returns a resolver using the given extraction policy.
func NewResolver(policy Policy) *Resolver {
	return &Resolver{policy: policy}
}

// Policy reports the extraction policy in use.
func (r *Resolver) Policy() Policy { return r.policy }

// Resolve extracts the cell index from answer and returns the action that
// would click that cell's center. The returned coordinates are exactly the
// layout's precomputed center for the index.
func (r *Resolver) Resolve(answer string, layout *grid.Layout, goal string) (schemas.ResolvedAction, error) {
	index, err := ParseCellIndex(answer, layout.Len(), r.policy)
	if err != nil {
		return schemas.ResolvedAction{}, err
	}
	cell, _ := layout.Cell(index)
	return schemas.ResolvedAction{
		CellIndex:   cell.Index,
		Coordinates: cell.Center,
		Goal:        goal,
	}, nil
}

// ParseCellIndex extracts a 1-based index in 1..max from answer.
func ParseCellIndex(answer string, max int, policy Policy) (int, error) {
	var digits string
	if policy == PolicyStrict {
		digits = firstNumericToken(answer)
	} else {
		digits = extractDigits(answer)
	}
	if digits == "" {
		return 0, &ParseError{Kind: NoDigitsFound, Answer: answer, Max: max}
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > max {
		// Atoi only fails here on overflow, which is out of range by definition.
		return 0, &ParseError{Kind: IndexOutOfRange, Answer: answer, Digits: digits, Max: max}
	}
	return n, nil
}

// extractDigits concatenates every Unicode decimal digit in s as ASCII.
func extractDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if d, ok := digitValue(r); ok {
			b.WriteByte(byte('0' + d))
		}
	}
	return b.String()
}

func firstNumericToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	token := strings.TrimFunc(fields[0], func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if token == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range token {
		d, ok := digitValue(r)
		if !ok {
			return ""
		}
		b.WriteByte(byte('0' + d))
	}
	return b.String()
}

// digitValue returns the numeric value of a decimal digit (Unicode category Nd).
// Every Nd block is laid out as consecutive runs of 0..9, so the value is the
// rune's offset from the start of its run, modulo ten.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	if !unicode.IsDigit(r) {
		return 0, false
	}
	start := r
	for unicode.IsDigit(start - 1) {
		start--
	}
	return int(r-start) % 10, true
}
