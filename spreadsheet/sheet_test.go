package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// test helpers shared by the sheet and engine tests. cells are addressed by
// label to keep scenarios readable.

func position(t testing.TB, label string) Position {
	t.Helper()
	pos, err := PositionFromLabel(label)
	require.NoError(t, err)
	return pos
}

func setCell(t testing.TB, s *Sheet, label, text string) {
	t.Helper()
	require.NoError(t, s.SetCell(position(t, label), text))
}

func getCell(t testing.TB, s *Sheet, label string) *Cell {
	t.Helper()
	cell, err := s.GetCell(position(t, label))
	require.NoError(t, err)
	return cell
}

func cellValue(t testing.TB, s *Sheet, label string) Value {
	t.Helper()
	cell := getCell(t, s, label)
	require.NotNil(t, cell, "no cell at %s", label)
	return cell.GetValue()
}

func TestSimpleArithmetic(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "=1+2")

	assert.Equal(t, 3.0, cellValue(t, s, "A1"))
	assert.Equal(t, "=1+2", getCell(t, s, "A1").GetText())
}

func TestChainedReference(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "10")
	setCell(t, s, "B1", "=A1*2")
	setCell(t, s, "C1", "=B1+A1")

	assert.Equal(t, 30.0, cellValue(t, s, "C1"))

	setCell(t, s, "A1", "5")
	assert.Equal(t, 15.0, cellValue(t, s, "C1"))
}

func TestImplicitMaterialization(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "=B2+1")

	materialized := getCell(t, s, "B2")
	require.NotNil(t, materialized)
	assert.Equal(t, CellKindEmpty, materialized.Kind())
	assert.Equal(t, "", materialized.GetText())

	assert.Equal(t, 1.0, cellValue(t, s, "A1"))
	assert.Equal(t, Size{Rows: 2, Cols: 2}, s.PrintableSize())
}

func TestErrorPropagation(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "hello")
	setCell(t, s, "B1", "=A1+1")

	assert.Equal(t, FormulaError{Code: ErrorCodeValue}, cellValue(t, s, "B1"))

	setCell(t, s, "A1", "7")
	assert.Equal(t, 8.0, cellValue(t, s, "B1"))
}

func TestPrintableBoundsShrink(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "x")
	setCell(t, s, "C3", "y")
	assert.Equal(t, Size{Rows: 3, Cols: 3}, s.PrintableSize())

	require.NoError(t, s.ClearCell(position(t, "C3")))
	assert.Equal(t, Size{Rows: 1, Cols: 1}, s.PrintableSize())

	require.NoError(t, s.ClearCell(position(t, "A1")))
	assert.Equal(t, Size{Rows: 0, Cols: 0}, s.PrintableSize())
}

func TestGetTextForms(t *testing.T) {
	s := NewSheet()

	setCell(t, s, "A1", "")
	assert.Equal(t, "", getCell(t, s, "A1").GetText())
	assert.Equal(t, "", getCell(t, s, "A1").GetValue())

	setCell(t, s, "A2", "plain text")
	assert.Equal(t, "plain text", getCell(t, s, "A2").GetText())
	assert.Equal(t, "plain text", getCell(t, s, "A2").GetValue())

	// escaped formula stays text; the escape sign strips on evaluation only
	setCell(t, s, "A3", "'=1+2")
	assert.Equal(t, "'=1+2", getCell(t, s, "A3").GetText())
	assert.Equal(t, "=1+2", getCell(t, s, "A3").GetValue())

	// a formula reprints canonically behind the sigil
	setCell(t, s, "A4", "= 1 +  2")
	assert.Equal(t, "=1+2", getCell(t, s, "A4").GetText())

	// a lone sigil is text, not a formula
	setCell(t, s, "A5", "=")
	assert.Equal(t, CellKindText, getCell(t, s, "A5").Kind())
	assert.Equal(t, "=", getCell(t, s, "A5").GetText())
	assert.Equal(t, "=", getCell(t, s, "A5").GetValue())
}

func TestSetCellParseErrorLeavesSheetUnchanged(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "5")

	err := s.SetCell(position(t, "A1"), "=1+")
	assert.ErrorIs(t, err, ErrFormulaParse)
	assert.Equal(t, "5", getCell(t, s, "A1").GetText())
	assert.Equal(t, 5.0, cellValue(t, s, "A1"))

	// a failed set on a fresh position leaves no cell behind
	err = s.SetCell(position(t, "B7"), "=((")
	assert.ErrorIs(t, err, ErrFormulaParse)
	cell, err := s.GetCell(position(t, "B7"))
	require.NoError(t, err)
	assert.Nil(t, cell)
	assert.Equal(t, Size{Rows: 1, Cols: 1}, s.PrintableSize())
}

func TestInvalidPositionErrors(t *testing.T) {
	s := NewSheet()

	assert.ErrorIs(t, s.SetCell(None, "x"), ErrInvalidPosition)
	assert.ErrorIs(t, s.ClearCell(Position{Row: -1, Col: 0}), ErrInvalidPosition)

	_, err := s.GetCell(Position{Row: 0, Col: MaxCols})
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestGetCellAbsent(t *testing.T) {
	s := NewSheet()

	// outside the printable size
	cell, err := s.GetCell(position(t, "A1"))
	require.NoError(t, err)
	assert.Nil(t, cell)

	// inside the printable size but never populated
	setCell(t, s, "B2", "1")
	cell, err = s.GetCell(position(t, "A1"))
	require.NoError(t, err)
	assert.Nil(t, cell)
}

func TestClearAbsentCell(t *testing.T) {
	s := NewSheet()
	require.NoError(t, s.ClearCell(position(t, "D4")))
	assert.Equal(t, Size{Rows: 0, Cols: 0}, s.PrintableSize())
}

func TestInteriorDeletionKeepsSize(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "1")
	setCell(t, s, "B2", "2")
	setCell(t, s, "C3", "3")

	require.NoError(t, s.ClearCell(position(t, "B2")))
	assert.Equal(t, Size{Rows: 3, Cols: 3}, s.PrintableSize())
}

func TestPrintValues(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "1")
	setCell(t, s, "B1", "=A1+1")
	setCell(t, s, "A2", "'=esc")
	setCell(t, s, "B3", "=1/0")

	var out bytes.Buffer
	s.PrintValues(&out)
	assert.Equal(t, "1\t2\n=esc\t\n\t#DIV/0!\n", out.String())
}

func TestPrintTexts(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "1")
	setCell(t, s, "B1", "= A1 + 1")
	setCell(t, s, "A2", "'=esc")

	var out bytes.Buffer
	s.PrintTexts(&out)
	assert.Equal(t, "1\t=A1+1\n'=esc\t\n", out.String())
}

func TestNumberRendering(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "=10/4")
	setCell(t, s, "B1", "=2*3.5")
	setCell(t, s, "C1", "=1-1")

	var out bytes.Buffer
	s.PrintValues(&out)
	assert.Equal(t, "2.5\t7\t0\n", out.String())
}

func TestSetSameTextIsNoOp(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "10")
	setCell(t, s, "B1", "=A1*2")
	assert.Equal(t, 20.0, cellValue(t, s, "B1"))

	// re-setting identical text must not cascade invalidation
	setCell(t, s, "A1", "10")
	assert.True(t, getCell(t, s, "B1").hasCached)

	// same for a formula re-set with its own canonical text
	setCell(t, s, "B1", "=A1*2")
	assert.True(t, getCell(t, s, "B1").hasCached)
}

func TestClearThenRestore(t *testing.T) {
	s := NewSheet()
	setCell(t, s, "A1", "5")
	setCell(t, s, "B1", "=A1+1")
	assert.Equal(t, 6.0, cellValue(t, s, "B1"))

	require.NoError(t, s.ClearCell(position(t, "B1")))
	setCell(t, s, "B1", "=A1+1")
	assert.Equal(t, 6.0, cellValue(t, s, "B1"))
}
