package spreadsheet

import (
	"fmt"
	"regexp"
	"strings"
)

// sumPattern matches a formula body that is exactly one SUM over a range.
// SUM cannot be composed inside a larger expression.
var sumPattern = regexp.MustCompile(`^SUM\(\s*([A-Z]+[0-9]+)\s*:\s*([A-Z]+[0-9]+)\s*\)$`)

// MatchSumRange reports whether body is a SUM call and returns its bound
// labels as written
func MatchSumRange(body string) (start, end string, ok bool) {
	m := sumPattern.FindStringSubmatch(strings.TrimSpace(body))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// CellLookup reads an evaluated value. ok is false outside the grid.
type CellLookup func(addr CellAddress) (CellValue, bool)

// SumRange adds every numeric cell of the range. blank and text cells
// count as zero, cells outside the grid count as blank, and an error
// sentinel anywhere in the range fails the sum.
func SumRange(r RangeAddress, lookup CellLookup) (float64, error) {
	sum := 0.0
	for addr := range r.Cells() {
		value, ok := lookup(addr)
		if !ok {
			continue
		}
		if value.IsError() {
			return 0, NewFormulaError(KindEvaluation, fmt.Sprintf("%s holds %s", addr, value))
		}
		if value.IsNumber() {
			sum += value.Number
		}
	}
	return sum, nil
}
