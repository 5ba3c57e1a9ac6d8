package spreadsheet

import (
	"iter"
	"slices"
)

// operatorPrecedence maps binary operators to their binding strength. all
// operators are left-associative.
var operatorPrecedence = map[string]int{
	"+": 1,
	"-": 1,
	"*": 2,
	"/": 2,
}

// ToPostfix converts an infix token stream into postfix (RPN) order using
// the shunting-yard algorithm
func ToPostfix(tokens iter.Seq2[Token, error]) ([]Token, error) {
	var output []Token
	var stack []Token

	for tok, err := range tokens {
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case TokenNumber, TokenCell:
			output = append(output, tok)

		case TokenOperator:
			prec := operatorPrecedence[tok.Value]
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Type != TokenOperator || operatorPrecedence[top.Value] < prec {
					break
				}
				output = append(output, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)

		case TokenLeftParen:
			stack = append(stack, tok)

		case TokenRightParen:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Type == TokenLeftParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, NewFormulaError(KindSyntax, "mismatched parentheses")
			}
		}
	}

	// drain remaining operators
	for _, top := range slices.Backward(stack) {
		if top.Type == TokenLeftParen {
			return nil, NewFormulaError(KindSyntax, "mismatched parentheses")
		}
		output = append(output, top)
	}

	return output, nil
}

// ParseFormula tokenizes and converts a formula body to postfix order
func ParseFormula(body string) ([]Token, error) {
	return ToPostfix(NewLexer(body).Tokens())
}
