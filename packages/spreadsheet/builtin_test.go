package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSumRange(t *testing.T) {
	tests := []struct {
		body       string
		start, end string
		ok         bool
	}{
		{"SUM(D2:D4)", "D2", "D4", true},
		{" SUM( A1 : B10 ) ", "A1", "B10", true},
		{"SUM(A0:B2)", "A0", "B2", true},
		{"SUM(D2:D4)+1", "", "", false},
		{"1+SUM(D2:D4)", "", "", false},
		{"sum(D2:D4)", "", "", false},
		{"SUM(D2)", "", "", false},
		{"SUM(D2,D4)", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			start, end, ok := MatchSumRange(tt.body)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestSumRangeLookup(t *testing.T) {
	values := map[CellAddress]CellValue{
		{Row: 1, Column: 3}: NumberValue(10),
		{Row: 2, Column: 3}: NumberValue(20),
		{Row: 3, Column: 3}: NumberValue(30),
		{Row: 4, Column: 3}: TextValue("note"),
		{Row: 5, Column: 3}: EmptyValue(),
	}
	lookup := func(addr CellAddress) (CellValue, bool) {
		v, ok := values[addr]
		return v, ok
	}

	r, err := ParseRangeAddress("D2", "D4")
	require.NoError(t, err)
	sum, err := SumRange(r, lookup)
	require.NoError(t, err)
	assert.Equal(t, 60.0, sum)

	// text, blank and missing cells count as zero
	r, err = ParseRangeAddress("D8", "D1")
	require.NoError(t, err)
	sum, err = SumRange(r, lookup)
	require.NoError(t, err)
	assert.Equal(t, 60.0, sum)

	values[CellAddress{Row: 2, Column: 3}] = ErrorValue(ErrorCodeGeneric)
	_, err = SumRange(r, lookup)
	assert.ErrorIs(t, err, ErrEvaluation)
}
