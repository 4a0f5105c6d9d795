package spreadsheet

import "errors"

// structural errors. these abort the operation that raised them and leave
// the sheet unchanged.
var (
	// ErrParsePosition is returned when input cannot be parsed as a valid
	// position label.
	ErrParsePosition = errors.New("could not parse input as a valid position label")

	// ErrInvalidPosition is returned by sheet entry points when the caller
	// supplies a position outside the grid limits.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrFormulaParse is returned when the text after FormulaSign is not a
	// valid formula.
	ErrFormulaParse = errors.New("formula parse error")

	// ErrCircularDependency is returned when an edit would create a cycle in
	// the dependency graph.
	ErrCircularDependency = errors.New("circular dependency detected")
)
