package spreadsheet

import (
	"fmt"
)

// Resolver returns the evaluated value behind a cell label. ok is false when
// the label does not name a cell of the current grid.
type Resolver func(label string) (value CellValue, ok bool)

// EvaluatePostfix runs a postfix token sequence on a value stack
func EvaluatePostfix(postfix []Token, resolve Resolver) (float64, error) {
	stack := make([]CellValue, 0, len(postfix))

	for _, tok := range postfix {
		switch tok.Type {
		case TokenNumber:
			stack = append(stack, NumberValue(tok.Number))

		case TokenCell:
			value, ok := resolve(tok.Value)
			if !ok {
				return 0, NewFormulaError(KindEvaluation, fmt.Sprintf("unresolved reference %s", tok.Value))
			}
			if value.IsError() {
				return 0, NewFormulaError(KindEvaluation, fmt.Sprintf("%s holds %s", tok.Value, value))
			}
			stack = append(stack, value)

		case TokenOperator:
			if len(stack) < 2 {
				return 0, NewFormulaError(KindEvaluation, fmt.Sprintf("missing operand for %s", tok.Value))
			}
			left, right := stack[len(stack)-2], stack[len(stack)-1]
			stack = stack[:len(stack)-2]

			result, err := applyOperator(tok.Value, left, right)
			if err != nil {
				return 0, err
			}
			stack = append(stack, NumberValue(result))

		default:
			return 0, NewFormulaError(KindEvaluation, fmt.Sprintf("unexpected %s token", tok.Type))
		}
	}

	if len(stack) != 1 {
		return 0, NewFormulaError(KindEvaluation, fmt.Sprintf("malformed expression: %d values left", len(stack)))
	}
	if !stack[0].IsNumber() {
		return 0, NewFormulaError(KindEvaluation, "result is not a number")
	}
	return stack[0].Number, nil
}

func applyOperator(op string, left, right CellValue) (float64, error) {
	if !left.IsNumber() || !right.IsNumber() {
		return 0, NewFormulaError(KindEvaluation, fmt.Sprintf("non-numeric operand for %s", op))
	}

	a, b := left.Number, right.Number
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, NewFormulaError(KindEvaluation, "division by zero")
		}
		return a / b, nil
	default:
		return 0, NewFormulaError(KindEvaluation, fmt.Sprintf("unknown operator %s", op))
	}
}
