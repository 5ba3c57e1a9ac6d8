package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFormula(t *testing.T) {
	f := CompileFormula("A1*(B2+3)")
	require.NoError(t, f.Err)
	assert.Nil(t, f.Sum)
	assert.Equal(t, []string{"A1", "B2"}, f.Refs)
	assert.Equal(t, []string{"A1", "B2", "3", "+", "*"}, tokenValues(f.Postfix))

	f = CompileFormula("SUM(C3:A1)")
	require.NoError(t, f.Err)
	require.NotNil(t, f.Sum)
	assert.Equal(t, "A1:C3", f.Sum.String())

	f = CompileFormula("SUM(A0:A3)")
	assert.ErrorIs(t, f.Err, ErrInvalidRange)

	// lexes fine, fails conversion: references are still known
	f = CompileFormula("(A1+B1")
	assert.ErrorIs(t, f.Err, ErrSyntax)
	assert.Equal(t, []string{"A1", "B1"}, f.Refs)

	f = CompileFormula("A1+b1")
	assert.ErrorIs(t, f.Err, ErrSyntax)
	assert.Nil(t, f.Refs)
}

func TestFormulaTable(t *testing.T) {
	ft := NewFormulaTable()

	first := ft.Intern("A1+1")
	assert.Same(t, first, ft.Intern("A1+1"))
	ft.Intern("B1*2")
	assert.Equal(t, 2, ft.Count())

	ft.Retain(map[string]struct{}{"B1*2": {}})
	assert.Equal(t, 1, ft.Count())
	assert.NotSame(t, first, ft.Intern("A1+1"))

	ft.Clear()
	assert.Equal(t, 0, ft.Count())
}
