package spreadsheet

import (
	"fmt"
	"iter"
	"math"
	"strconv"
)

// CellAddress is a zero-based (row, column) coordinate
type CellAddress struct {
	Row    uint32
	Column uint32
}

// ParseCellAddress parses a label like "AA12" into a zero-based address.
// labels must be uppercase letters followed by a row number without
// leading zeros.
func ParseCellAddress(label string) (CellAddress, error) {
	letterEnd := 0
	for letterEnd < len(label) && label[letterEnd] >= 'A' && label[letterEnd] <= 'Z' {
		letterEnd++
	}

	if letterEnd == 0 || letterEnd == len(label) {
		return CellAddress{}, NewFormulaError(KindInvalidReference, fmt.Sprintf("invalid cell reference: %q", label))
	}

	rowStr := label[letterEnd:]
	if rowStr[0] < '1' || rowStr[0] > '9' {
		return CellAddress{}, NewFormulaError(KindInvalidReference, fmt.Sprintf("invalid row number: %q", label))
	}
	for i := 1; i < len(rowStr); i++ {
		if rowStr[i] < '0' || rowStr[i] > '9' {
			return CellAddress{}, NewFormulaError(KindInvalidReference, fmt.Sprintf("invalid row number: %q", label))
		}
	}

	rowNum, err := strconv.ParseUint(rowStr, 10, 32)
	if err != nil {
		return CellAddress{}, NewFormulaError(KindInvalidReference, fmt.Sprintf("row number out of range: %q", label))
	}

	// bijective base-26, A=1 ... Z=26
	var col uint64
	for i := 0; i < letterEnd; i++ {
		col = col*26 + uint64(label[i]-'A'+1)
		if col > math.MaxUint32 {
			return CellAddress{}, NewFormulaError(KindInvalidReference, fmt.Sprintf("column out of range: %q", label))
		}
	}

	return CellAddress{Row: uint32(rowNum - 1), Column: uint32(col - 1)}, nil
}

// ColumnLabel encodes a zero-based column index: 0 -> A, 25 -> Z, 26 -> AA
func ColumnLabel(col uint32) string {
	var buf [8]byte
	i := len(buf)
	n := uint64(col) + 1
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}

// String formats the address as a label, e.g. {Row: 11, Column: 26} -> "AA12"
func (a CellAddress) String() string {
	return ColumnLabel(a.Column) + strconv.FormatUint(uint64(a.Row)+1, 10)
}

// less orders addresses row-major
func (a CellAddress) less(b CellAddress) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Column < b.Column
}

// compareAddresses is a row-major comparison for slices.SortFunc
func compareAddresses(a, b CellAddress) int {
	switch {
	case a.less(b):
		return -1
	case b.less(a):
		return 1
	default:
		return 0
	}
}

// RangeAddress represents an inclusive rectangular range of cells
type RangeAddress struct {
	StartRow    uint32
	StartColumn uint32
	EndRow      uint32
	EndColumn   uint32
}

// NewRangeAddress builds a range from any two opposite corners
func NewRangeAddress(a, b CellAddress) RangeAddress {
	return RangeAddress{
		StartRow:    min(a.Row, b.Row),
		StartColumn: min(a.Column, b.Column),
		EndRow:      max(a.Row, b.Row),
		EndColumn:   max(a.Column, b.Column),
	}
}

// ParseRangeAddress parses "A1:B2" style bounds given as two labels
func ParseRangeAddress(start, end string) (RangeAddress, error) {
	a, err := ParseCellAddress(start)
	if err != nil {
		return RangeAddress{}, NewFormulaError(KindInvalidRange, err.Error())
	}
	b, err := ParseCellAddress(end)
	if err != nil {
		return RangeAddress{}, NewFormulaError(KindInvalidRange, err.Error())
	}
	return NewRangeAddress(a, b), nil
}

// Clip restricts the range to a rows x cols grid. ok is false when nothing
// of the range lies inside the grid.
func (r RangeAddress) Clip(rows, cols uint32) (RangeAddress, bool) {
	if rows == 0 || cols == 0 || r.StartRow >= rows || r.StartColumn >= cols {
		return RangeAddress{}, false
	}
	r.EndRow = min(r.EndRow, rows-1)
	r.EndColumn = min(r.EndColumn, cols-1)
	return r, true
}

func (r RangeAddress) String() string {
	start := CellAddress{Row: r.StartRow, Column: r.StartColumn}
	end := CellAddress{Row: r.EndRow, Column: r.EndColumn}
	return start.String() + ":" + end.String()
}

// Cells iterates the range in row-major order
func (r RangeAddress) Cells() iter.Seq[CellAddress] {
	return func(yield func(CellAddress) bool) {
		for row := uint64(r.StartRow); row <= uint64(r.EndRow); row++ {
			for col := uint64(r.StartColumn); col <= uint64(r.EndColumn); col++ {
				if !yield(CellAddress{Row: uint32(row), Column: uint32(col)}) {
					return
				}
			}
		}
	}
}
