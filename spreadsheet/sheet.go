package spreadsheet

import (
	"fmt"
	"io"
)

// Sheet owns all cells of one spreadsheet, keyed by position, and maintains
// the printable bounding box. cells reference each other only by position
// through the sheet, never by direct ownership.
type Sheet struct {
	cells map[Position]*Cell
	size  Size
}

// NewSheet creates an empty sheet
func NewSheet() *Sheet {
	return &Sheet{
		cells: make(map[Position]*Cell),
	}
}

// SetCell sets the text of the cell at pos, creating the cell if absent.
// on success the printable size grows to cover pos. structural errors
// (invalid position, parse error, circular dependency) leave the sheet
// unchanged.
func (s *Sheet) SetCell(pos Position, text string) error {
	if !pos.IsValid() {
		return fmt.Errorf("%w: set cell at %v", ErrInvalidPosition, pos)
	}
	cell, exists := s.cells[pos]
	if !exists {
		cell = newCell(s, pos)
		s.cells[pos] = cell
	}
	if err := cell.set(text); err != nil {
		if !exists {
			// keep the failed edit atomic: the cell did not exist before
			delete(s.cells, pos)
		}
		return err
	}
	if pos.Row+1 > s.size.Rows {
		s.size.Rows = pos.Row + 1
	}
	if pos.Col+1 > s.size.Cols {
		s.size.Cols = pos.Col + 1
	}
	return nil
}

// GetCell returns the cell at pos, or nil when the position lies outside
// the printable size or has never been populated. an invalid position is
// an error.
func (s *Sheet) GetCell(pos Position) (*Cell, error) {
	if !pos.IsValid() {
		return nil, fmt.Errorf("%w: get cell at %v", ErrInvalidPosition, pos)
	}
	if pos.Row >= s.size.Rows || pos.Col >= s.size.Cols {
		return nil, nil
	}
	return s.cells[pos], nil
}

// cellAt reads the cell map directly, without the printable-size gate.
// graph traversal (cycle checks, edge bookkeeping, invalidation, formula
// lookups) goes through here so that a freshly created cell is visible to
// its own cycle check before the size has grown.
func (s *Sheet) cellAt(pos Position) *Cell {
	return s.cells[pos]
}

// lookupValue is the Lookup handed to formulas. evaluation funnels through
// Cell.GetValue so memoization applies uniformly along the chain.
func (s *Sheet) lookupValue(pos Position) (Value, error) {
	if !pos.IsValid() {
		return nil, ErrInvalidPosition
	}
	cell := s.cellAt(pos)
	if cell == nil {
		return nil, nil
	}
	return cell.GetValue(), nil
}

// ClearCell removes the cell at pos. the cell is first set to empty so that
// its dependents are invalidated and its outgoing edges detach while the
// entry still exists, then the entry is erased and the printable size
// shrinks if the cell lay on its edge.
func (s *Sheet) ClearCell(pos Position) error {
	if !pos.IsValid() {
		return fmt.Errorf("%w: clear cell at %v", ErrInvalidPosition, pos)
	}
	cell, exists := s.cells[pos]
	if !exists {
		return nil
	}
	if err := cell.set(""); err != nil {
		return err
	}
	delete(s.cells, pos)

	if pos.Row == s.size.Rows-1 {
		maxRow := -1
		for p := range s.cells {
			if p.Row > maxRow {
				maxRow = p.Row
			}
		}
		s.size.Rows = maxRow + 1
	}
	if pos.Col == s.size.Cols-1 {
		maxCol := -1
		for p := range s.cells {
			if p.Col > maxCol {
				maxCol = p.Col
			}
		}
		s.size.Cols = maxCol + 1
	}
	return nil
}

// PrintableSize returns the minimal bounding box covering every populated
// cell.
func (s *Sheet) PrintableSize() Size {
	return s.size
}

// PrintValues emits the evaluated values of the printable region as a
// rectangular tab-separated grid, one newline-terminated line per row.
// absent cells render as empty fields.
func (s *Sheet) PrintValues(out io.Writer) {
	s.print(out, func(c *Cell) string {
		return FormatValue(c.GetValue())
	})
}

// PrintTexts emits the textual sources of the printable region in the same
// grid format as PrintValues.
func (s *Sheet) PrintTexts(out io.Writer) {
	s.print(out, (*Cell).GetText)
}

func (s *Sheet) print(out io.Writer, render func(*Cell) string) {
	for row := 0; row < s.size.Rows; row++ {
		for col := 0; col < s.size.Cols; col++ {
			if col > 0 {
				io.WriteString(out, "\t")
			}
			if cell, ok := s.cells[Position{Row: row, Col: col}]; ok {
				io.WriteString(out, render(cell))
			}
		}
		io.WriteString(out, "\n")
	}
}
