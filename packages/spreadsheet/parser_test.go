package spreadsheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postfixString(t *testing.T, body string) string {
	t.Helper()
	postfix, err := ParseFormula(body)
	require.NoError(t, err)
	return strings.Join(tokenValues(postfix), " ")
}

func TestToPostfix(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"2+3", "2 3 +"},
		{"2+3*4", "2 3 4 * +"},
		{"(2+3)*4", "2 3 + 4 *"},
		{"10-5-2", "10 5 - 2 -"},
		{"8/4/2", "8 4 / 2 /"},
		{"A1*B2+C3/D4", "A1 B2 * C3 D4 / +"},
		{"((1))", "1"},
		{"1+(2-(3*4))", "1 2 3 4 * - +"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, postfixString(t, tt.body))
		})
	}
}

func TestToPostfixMismatchedParentheses(t *testing.T) {
	for _, body := range []string{"(1+2", "1+2)", ")(", "((1)"} {
		t.Run(body, func(t *testing.T) {
			_, err := ParseFormula(body)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
			assert.Contains(t, err.Error(), "mismatched parentheses")
		})
	}
}

func TestToPostfixPropagatesLexerErrors(t *testing.T) {
	_, err := ParseFormula("1+x")
	assert.ErrorIs(t, err, ErrSyntax)
}
