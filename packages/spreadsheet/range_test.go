package spreadsheet

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellAddressRoundTrip(t *testing.T) {
	for _, row := range []uint32{0, 1, 9, 99, 12345} {
		for col := uint32(0); col < 702; col++ {
			addr := CellAddress{Row: row, Column: col}
			parsed, err := ParseCellAddress(addr.String())
			require.NoError(t, err, addr.String())
			require.Equal(t, addr, parsed, addr.String())
		}
	}
}

func TestCellAddressLabels(t *testing.T) {
	tests := []struct {
		label string
		addr  CellAddress
	}{
		{"A1", CellAddress{Row: 0, Column: 0}},
		{"Z1", CellAddress{Row: 0, Column: 25}},
		{"AA1", CellAddress{Row: 0, Column: 26}},
		{"AZ3", CellAddress{Row: 2, Column: 51}},
		{"BA10", CellAddress{Row: 9, Column: 52}},
		{"ZZ12", CellAddress{Row: 11, Column: 701}},
		{"AAA1", CellAddress{Row: 0, Column: 702}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			addr, err := ParseCellAddress(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.addr, addr)
			assert.Equal(t, tt.label, tt.addr.String())
		})
	}
}

func TestParseCellAddressInvalid(t *testing.T) {
	invalid := []string{
		"",
		"A",
		"1",
		"A0",
		"A01",
		"a1",
		"1A",
		"A1B",
		"A-1",
		"A99999999999",
	}

	for _, label := range invalid {
		t.Run(label, func(t *testing.T) {
			_, err := ParseCellAddress(label)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidReference)
		})
	}
}

func TestColumnLabel(t *testing.T) {
	assert.Equal(t, "A", ColumnLabel(0))
	assert.Equal(t, "Z", ColumnLabel(25))
	assert.Equal(t, "AA", ColumnLabel(26))
	assert.Equal(t, "ZZ", ColumnLabel(701))
	assert.Equal(t, "AAA", ColumnLabel(702))
}

func TestRangeAddressNormalizesCorners(t *testing.T) {
	forward, err := ParseRangeAddress("B2", "D4")
	require.NoError(t, err)
	backward, err := ParseRangeAddress("D4", "B2")
	require.NoError(t, err)
	mixed, err := ParseRangeAddress("D2", "B4")
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
	assert.Equal(t, forward, mixed)
	assert.Equal(t, "B2:D4", forward.String())
}

func TestParseRangeAddressInvalid(t *testing.T) {
	_, err := ParseRangeAddress("A0", "B2")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ParseRangeAddress("A1", "b2")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRangeAddressCellsRowMajor(t *testing.T) {
	r, err := ParseRangeAddress("A1", "B2")
	require.NoError(t, err)

	var labels []string
	for addr := range r.Cells() {
		labels = append(labels, addr.String())
	}
	assert.Equal(t, []string{"A1", "B1", "A2", "B2"}, labels)
	assert.Len(t, slices.Collect(r.Cells()), 4)
}

func TestRangeAddressClip(t *testing.T) {
	r, err := ParseRangeAddress("B2", "Z100")
	require.NoError(t, err)

	clipped, ok := r.Clip(10, 10)
	require.True(t, ok)
	assert.Equal(t, "B2:J10", clipped.String())

	_, ok = r.Clip(1, 10)
	assert.False(t, ok)

	_, ok = r.Clip(0, 0)
	assert.False(t, ok)
}
