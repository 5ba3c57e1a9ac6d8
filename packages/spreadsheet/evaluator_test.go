package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapResolver(values map[string]CellValue) Resolver {
	return func(label string) (CellValue, bool) {
		v, ok := values[label]
		return v, ok
	}
}

func evaluate(body string, resolve Resolver) (float64, error) {
	postfix, err := ParseFormula(body)
	if err != nil {
		return 0, err
	}
	return EvaluatePostfix(postfix, resolve)
}

func TestEvaluatePostfixArithmetic(t *testing.T) {
	tests := []struct {
		body string
		want float64
	}{
		{"2+2", 4},
		{"10-5", 5},
		{"3*4", 12},
		{"15/3", 5},
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10-4-3", 3},
		{"1.5*2", 3},
		{"7", 7},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, err := evaluate(tt.body, mapResolver(nil))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluatePostfixReferences(t *testing.T) {
	resolve := mapResolver(map[string]CellValue{
		"A1": NumberValue(2),
		"B1": NumberValue(5),
		"C1": TextValue("hello"),
		"D1": ErrorValue(ErrorCodeGeneric),
		"E1": ErrorValue(ErrorCodeCircular),
		"F1": EmptyValue(),
	})

	got, err := evaluate("A1*B1+1", resolve)
	require.NoError(t, err)
	assert.Equal(t, 11.0, got)

	failing := []string{
		"C1+1",  // text operand
		"C1",    // text result
		"D1+1",  // error operand
		"E1",    // circular operand
		"F1+1",  // blank operand
		"Z99+1", // unresolved
	}
	for _, body := range failing {
		t.Run(body, func(t *testing.T) {
			_, err := evaluate(body, resolve)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEvaluation)
		})
	}
}

func TestEvaluatePostfixMalformed(t *testing.T) {
	for _, body := range []string{"", "1+", "*2", "1 2", "()"} {
		t.Run(body, func(t *testing.T) {
			_, err := evaluate(body, mapResolver(nil))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEvaluation)
		})
	}
}

func TestEvaluatePostfixDivisionByZero(t *testing.T) {
	_, err := evaluate("15/0", mapResolver(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEvaluation)
	assert.Contains(t, err.Error(), "division by zero")
}
