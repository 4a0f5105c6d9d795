package spreadsheet

import (
	"math"
	"strings"

	"golang.org/x/exp/slices"
)

// Lookup resolves a referenced position to its current evaluated value.
// absent cells resolve to nil; a non-nil error marks the position itself
// as unresolvable and surfaces as a #REF! error.
type Lookup func(Position) (Value, error)

// Formula is a parsed formula expression. it is immutable after parsing:
// evaluation state (caching, dependency bookkeeping) lives in the owning
// cell, not here.
type Formula struct {
	root astNode
	refs []Position
}

// ParseFormula parses an expression (without the leading FormulaSign) into
// a Formula. returns an error wrapping ErrFormulaParse on malformed input.
func ParseFormula(expression string) (*Formula, error) {
	tokens, err := NewLexer(expression).Tokenize()
	if err != nil {
		return nil, err
	}
	root, err := NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}
	return &Formula{
		root: root,
		refs: collectReferences(root),
	}, nil
}

// collectReferences walks the tree and returns the referenced positions,
// deduplicated and sorted row-major for deterministic ordering
func collectReferences(node astNode) []Position {
	var refs []Position
	var walk func(astNode)
	walk = func(n astNode) {
		switch n := n.(type) {
		case *cellNode:
			refs = append(refs, n.pos)
		case *unaryNode:
			walk(n.operand)
		case *binaryNode:
			walk(n.left)
			walk(n.right)
		}
	}
	walk(node)
	slices.SortFunc(refs, func(a, b Position) bool {
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return slices.Compact(refs)
}

// Expression returns the canonical reprint of the formula, without the
// leading FormulaSign and with only the parentheses the structure requires.
func (f *Formula) Expression() string {
	var sb strings.Builder
	f.root.writeExpr(&sb)
	return sb.String()
}

// ReferencedPositions returns the unique positions the formula reads, in
// row-major order.
func (f *Formula) ReferencedPositions() []Position {
	return f.refs
}

// Evaluate computes the formula against the given lookup. the result is
// either a float64 or a FormulaError; evaluation never panics and never
// returns a control-flow error.
func (f *Formula) Evaluate(lookup Lookup) Value {
	result, err := f.root.eval(lookup)
	if err != nil {
		if fe, ok := err.(FormulaError); ok {
			return fe
		}
		return FormulaError{Code: ErrorCodeValue}
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		// overflow to non-finite renders as a division error
		return FormulaError{Code: ErrorCodeDiv0}
	}
	return result
}
