package spreadsheet

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Primitive represents a raw cell value as supplied by the host.
// types:
//   - float64: numeric values (other numeric kinds are converted to float64)
//   - string: text values, or formula text when prefixed with "="
//   - nil: empty cells
type Primitive any

// formulaPrefix marks raw text as a formula
const formulaPrefix = "="

// numericText is the decimal form literal text must take to count as a
// number. words like NaN or Infinity and hex floats stay text.
var numericText = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ErrorCode identifies the sentinel stored in an errored cell
type ErrorCode uint8

const (
	ErrorCodeGeneric  ErrorCode = 1 // #ERROR - syntax, type, division, reference failures
	ErrorCodeCircular ErrorCode = 2 // #CIRC - circular dependency
)

// ErrorMapper maps error codes to the sentinel text a host displays
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeGeneric:  "#ERROR",
	ErrorCodeCircular: "#CIRC",
}

// CellType represents numeric constants for evaluated value types
type CellType uint8

const (
	CellValueTypeEmpty  CellType = 0
	CellValueTypeNumber CellType = 1
	CellValueTypeString CellType = 2
	CellValueTypeError  CellType = 3
)

// CellValue is an evaluated cell value. only the field matching Type is
// meaningful.
type CellValue struct {
	Type   CellType
	Number float64
	Text   string
	Error  ErrorCode
}

func EmptyValue() CellValue {
	return CellValue{Type: CellValueTypeEmpty}
}

func NumberValue(n float64) CellValue {
	return CellValue{Type: CellValueTypeNumber, Number: n}
}

func TextValue(s string) CellValue {
	return CellValue{Type: CellValueTypeString, Text: s}
}

func ErrorValue(code ErrorCode) CellValue {
	return CellValue{Type: CellValueTypeError, Error: code}
}

// IsError reports whether the value is an error sentinel
func (v CellValue) IsError() bool {
	return v.Type == CellValueTypeError
}

// IsNumber reports whether the value is numeric
func (v CellValue) IsNumber() bool {
	return v.Type == CellValueTypeNumber
}

// String renders the value the way a host displays it. error sentinels
// render as "#ERROR" or "#CIRC".
func (v CellValue) String() string {
	switch v.Type {
	case CellValueTypeNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case CellValueTypeString:
		return v.Text
	case CellValueTypeError:
		return ErrorMapper[v.Error]
	default:
		return ""
	}
}

// Primitive converts the value back into a host primitive. sentinels are
// returned as their display string.
func (v CellValue) Primitive() Primitive {
	switch v.Type {
	case CellValueTypeNumber:
		return v.Number
	case CellValueTypeString:
		return v.Text
	case CellValueTypeError:
		return ErrorMapper[v.Error]
	default:
		return nil
	}
}

// literalValue converts a non-formula raw value to its evaluated form.
// numeric text evaluates as a number since editors deliver text.
func literalValue(raw Primitive) CellValue {
	switch v := raw.(type) {
	case nil:
		return EmptyValue()
	case float64:
		return NumberValue(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return EmptyValue()
		}
		if numericText.MatchString(trimmed) {
			// out of range exponents fail with ErrRange and stay text
			if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
				return NumberValue(num)
			}
		}
		return TextValue(v)
	default:
		return TextValue(fmt.Sprint(v))
	}
}

// formulaBody returns the formula text without its prefix, and whether the
// raw value is a formula at all
func formulaBody(raw Primitive) (string, bool) {
	s, ok := raw.(string)
	if !ok || !strings.HasPrefix(s, formulaPrefix) {
		return "", false
	}
	return s[len(formulaPrefix):], true
}

// normalizePrimitive converts supported Go kinds into the canonical raw
// representation
func normalizePrimitive(value any) (Primitive, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return nil, NewApplicationError(InvalidArgument, fmt.Sprintf("unsupported cell value type %T", value))
	}
}

func finite(v float64) (Primitive, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, NewApplicationError(InvalidArgument, fmt.Sprintf("non-finite cell value %v", v))
	}
	return v, nil
}

// FormulaErrorKind classifies failures raised while parsing or evaluating a
// single formula
type FormulaErrorKind uint8

const (
	KindSyntax FormulaErrorKind = iota + 1
	KindInvalidReference
	KindInvalidRange
	KindEvaluation
)

var formulaErrorKindNames = map[FormulaErrorKind]string{
	KindSyntax:           "syntax error",
	KindInvalidReference: "invalid reference",
	KindInvalidRange:     "invalid range",
	KindEvaluation:       "evaluation error",
}

func (k FormulaErrorKind) String() string {
	return formulaErrorKindNames[k]
}

// FormulaError is raised inside one cell's evaluation. it never escapes
// evaluateCell; the cell stores #ERROR instead.
type FormulaError struct {
	Kind    FormulaErrorKind
	Message string
}

func (e *FormulaError) Error() string {
	if e.Message != "" {
		return e.Kind.String() + ": " + e.Message
	}
	return e.Kind.String()
}

// Is matches any FormulaError of the same kind, so errors.Is works against
// the package sentinels
func (e *FormulaError) Is(target error) bool {
	t, ok := target.(*FormulaError)
	return ok && t.Kind == e.Kind
}

func NewFormulaError(kind FormulaErrorKind, message string) *FormulaError {
	return &FormulaError{
		Kind:    kind,
		Message: message,
	}
}

var (
	ErrSyntax           = &FormulaError{Kind: KindSyntax}
	ErrInvalidReference = &FormulaError{Kind: KindInvalidReference}
	ErrInvalidRange     = &FormulaError{Kind: KindInvalidRange}
	ErrEvaluation       = &FormulaError{Kind: KindEvaluation}
)
