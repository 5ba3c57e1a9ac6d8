package spreadsheet

import (
	"fmt"
	"iter"
	"math"
)

// Grid holds the raw and evaluated matrices. both always have identical
// dimensions.
type Grid struct {
	rows      uint32
	cols      uint32
	raw       [][]Primitive
	evaluated [][]CellValue
}

// NewGrid creates a blank rows x cols grid
func NewGrid(rows, cols int) (*Grid, error) {
	if rows < 0 || cols < 0 || int64(rows) > math.MaxUint32 || int64(cols) > math.MaxUint32 {
		return nil, NewApplicationError(InvalidArgument, fmt.Sprintf("invalid grid dimensions %dx%d", rows, cols))
	}
	if rows == 0 || cols == 0 {
		rows, cols = 0, 0
	}

	g := &Grid{
		rows:      uint32(rows),
		cols:      uint32(cols),
		raw:       make([][]Primitive, rows),
		evaluated: make([][]CellValue, rows),
	}
	for r := range rows {
		g.raw[r] = make([]Primitive, cols)
		g.evaluated[r] = make([]CellValue, cols)
	}
	return g, nil
}

// NewGridFromData creates a grid from row-major raw values. rows shorter
// than the widest row are padded with blank cells.
func NewGridFromData(data [][]Primitive) (*Grid, error) {
	cols := 0
	for _, row := range data {
		cols = max(cols, len(row))
	}

	g, err := NewGrid(len(data), cols)
	if err != nil {
		return nil, err
	}

	for r, row := range data {
		for c, value := range row {
			raw, err := normalizePrimitive(value)
			if err != nil {
				addr := CellAddress{Row: uint32(r), Column: uint32(c)}
				return nil, NewApplicationError(InvalidArgument, fmt.Sprintf("cell %s: %v", addr, err))
			}
			g.raw[r][c] = raw
		}
	}
	return g, nil
}

// Rows returns the number of rows
func (g *Grid) Rows() uint32 {
	return g.rows
}

// Cols returns the number of columns
func (g *Grid) Cols() uint32 {
	return g.cols
}

// InBounds checks if an address lies inside the grid
func (g *Grid) InBounds(addr CellAddress) bool {
	return addr.Row < g.rows && addr.Column < g.cols
}

// GetRaw returns the raw value of an in-bounds cell
func (g *Grid) GetRaw(addr CellAddress) Primitive {
	return g.raw[addr.Row][addr.Column]
}

// SetRaw replaces the raw value of an in-bounds cell
func (g *Grid) SetRaw(addr CellAddress, value Primitive) {
	g.raw[addr.Row][addr.Column] = value
}

// GetValue returns the evaluated value of an in-bounds cell
func (g *Grid) GetValue(addr CellAddress) CellValue {
	return g.evaluated[addr.Row][addr.Column]
}

// SetValue stores the evaluated value of an in-bounds cell
func (g *Grid) SetValue(addr CellAddress, value CellValue) {
	g.evaluated[addr.Row][addr.Column] = value
}

// Addresses iterates every cell address in row-major order
func (g *Grid) Addresses() iter.Seq[CellAddress] {
	if g.rows == 0 {
		return func(func(CellAddress) bool) {}
	}
	return RangeAddress{EndRow: g.rows - 1, EndColumn: g.cols - 1}.Cells()
}

// RawSnapshot returns a copy of the raw matrix
func (g *Grid) RawSnapshot() [][]Primitive {
	out := make([][]Primitive, len(g.raw))
	for r, row := range g.raw {
		out[r] = append([]Primitive(nil), row...)
	}
	return out
}

// ValueSnapshot returns a copy of the evaluated matrix
func (g *Grid) ValueSnapshot() [][]CellValue {
	out := make([][]CellValue, len(g.evaluated))
	for r, row := range g.evaluated {
		out[r] = append([]CellValue(nil), row...)
	}
	return out
}
