package spreadsheet

import (
	"golang.org/x/exp/maps"
)

// CellKind represents the internal representation of a cell
type CellKind uint8

const (
	CellKindEmpty CellKind = iota
	CellKindText
	CellKindFormula
)

// Cell is the unit at one position of a sheet: empty, plain text, or a
// formula. a cell memoizes its evaluated value and records both directions
// of the dependency graph as position sets, so edge bookkeeping survives
// cell deletion and re-creation. the sheet back reference is non-owning;
// a cell never outlives or changes its sheet.
type Cell struct {
	sheet *Sheet
	pos   Position

	kind    CellKind
	text    string   // raw source text, only for CellKindText
	formula *Formula // parsed formula, only for CellKindFormula

	cached    Value
	hasCached bool

	// referenced holds the positions this cell's formula reads, dependents
	// the positions of cells whose formulas read this one. the two stay
	// symmetric across all cells of the sheet.
	referenced map[Position]struct{}
	dependents map[Position]struct{}
}

func newCell(sheet *Sheet, pos Position) *Cell {
	return &Cell{
		sheet:      sheet,
		pos:        pos,
		referenced: make(map[Position]struct{}),
		dependents: make(map[Position]struct{}),
	}
}

// Kind returns the cell's current representation tag
func (c *Cell) Kind() CellKind {
	return c.kind
}

// Position returns the cell's location in its sheet
func (c *Cell) Position() Position {
	return c.pos
}

// GetText returns the cell's textual source: the empty string for empty
// cells, the raw text for text cells (any leading escape sign included),
// and FormulaSign plus the canonical expression for formula cells.
func (c *Cell) GetText() string {
	switch c.kind {
	case CellKindText:
		return c.text
	case CellKindFormula:
		return string(FormulaSign) + c.formula.Expression()
	}
	return ""
}

// GetValue returns the memoized evaluated value, computing it on demand.
// formula evaluation resolves references through the owning sheet, so every
// upstream cell is memoized the same way on the first read.
func (c *Cell) GetValue() Value {
	if !c.hasCached {
		c.cached = c.computeValue()
		c.hasCached = true
	}
	return c.cached
}

func (c *Cell) computeValue() Value {
	switch c.kind {
	case CellKindText:
		if len(c.text) > 0 && c.text[0] == EscapeSign {
			return c.text[1:]
		}
		return c.text
	case CellKindFormula:
		return c.formula.Evaluate(c.sheet.lookupValue)
	}
	return ""
}

// GetReferencedCells returns the positions the cell's current kind declares
func (c *Cell) GetReferencedCells() []Position {
	if c.kind == CellKindFormula {
		return c.formula.ReferencedPositions()
	}
	return nil
}

// InvalidateCache clears the cached value and recursively invalidates every
// dependent. the already-absent check is the termination guarantee: it
// short-circuits recursion even when the graph is mid-edit.
func (c *Cell) InvalidateCache() {
	if !c.hasCached {
		return
	}
	c.hasCached = false
	c.cached = nil
	for pos := range c.dependents {
		if dependent := c.sheet.cellAt(pos); dependent != nil {
			dependent.InvalidateCache()
		}
	}
}

// set mutates the cell to reflect text. the operation is failure-atomic:
// parse errors and circular dependency errors leave the cell and all graph
// state unchanged. effects commit in a fixed order: cycle check,
// invalidation, edge detach, edge attach, kind swap.
func (c *Cell) set(text string) error {
	if text == c.GetText() {
		return nil
	}

	// build the prospective kind before touching any state
	var (
		kind    CellKind
		formula *Formula
	)
	switch {
	case text == "":
		kind = CellKindEmpty
	case len(text) > 1 && text[0] == FormulaSign:
		parsed, err := ParseFormula(text[1:])
		if err != nil {
			return err
		}
		kind = CellKindFormula
		formula = parsed
	default:
		kind = CellKindText
	}

	var refs []Position
	if formula != nil {
		refs = formula.ReferencedPositions()
	}
	if err := c.checkCircular(refs, make(map[Position]struct{})); err != nil {
		return err
	}

	c.InvalidateCache()

	// detach from the current referenced cells
	for pos := range c.referenced {
		if target := c.sheet.cellAt(pos); target != nil {
			delete(target.dependents, c.pos)
		}
	}
	maps.Clear(c.referenced)

	// attach to the new referenced cells, materializing absent ones as
	// empty cells. empty cells reference nothing, so this cannot recurse.
	for _, pos := range refs {
		target := c.sheet.cellAt(pos)
		if target == nil {
			if err := c.sheet.SetCell(pos, ""); err != nil {
				return err
			}
			target = c.sheet.cellAt(pos)
		}
		target.dependents[c.pos] = struct{}{}
		c.referenced[pos] = struct{}{}
	}

	c.kind = kind
	c.formula = formula
	c.text = ""
	if kind == CellKindText {
		c.text = text
	}
	return nil
}

// checkCircular walks the prospective reference set depth-first and reports
// ErrCircularDependency if any path leads back to this cell. visited
// positions are memoized per invocation, bounding the walk to the reachable
// cells. positions without a cell are leaves: they materialize as empty.
func (c *Cell) checkCircular(refs []Position, visited map[Position]struct{}) error {
	for _, pos := range refs {
		if _, ok := visited[pos]; ok {
			continue
		}
		visited[pos] = struct{}{}
		target := c.sheet.cellAt(pos)
		if target == c {
			return ErrCircularDependency
		}
		if target == nil {
			continue
		}
		if err := c.checkCircular(target.GetReferencedCells(), visited); err != nil {
			return err
		}
	}
	return nil
}
