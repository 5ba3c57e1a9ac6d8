package spreadsheet

// Formula is a compiled formula body. exactly one of Sum or Postfix is used;
// Err records a compile failure, which is reported again at every
// evaluation of a cell holding this body.
type Formula struct {
	Body    string
	Sum     *RangeAddress // set for whole-body SUM(a:b) formulas
	Postfix []Token
	Refs    []string // cell labels in source order, nil if lexing failed
	Err     error
}

// CompileFormula classifies and parses a formula body (without "=")
func CompileFormula(body string) *Formula {
	f := &Formula{Body: body}

	if start, end, ok := MatchSumRange(body); ok {
		r, err := ParseRangeAddress(start, end)
		if err != nil {
			f.Err = err
			return f
		}
		f.Sum = &r
		return f
	}

	// references come from the token stream alone, so a formula that lexes
	// but fails conversion still contributes dependency edges
	tokens, err := Tokenize(body)
	if err != nil {
		f.Err = err
		return f
	}
	for _, tok := range tokens {
		if tok.Type == TokenCell {
			f.Refs = append(f.Refs, tok.Value)
		}
	}

	f.Postfix, f.Err = ToPostfix(func(yield func(Token, error) bool) {
		for _, tok := range tokens {
			if !yield(tok, nil) {
				return
			}
		}
	})
	return f
}

// FormulaTable interns compiled formulas by body text
type FormulaTable struct {
	formulas map[string]*Formula
}

// NewFormulaTable creates a new formula table
func NewFormulaTable() *FormulaTable {
	return &FormulaTable{
		formulas: make(map[string]*Formula),
	}
}

// Intern returns the compiled formula for body, compiling it on first use
func (ft *FormulaTable) Intern(body string) *Formula {
	if f, exists := ft.formulas[body]; exists {
		return f
	}
	f := CompileFormula(body)
	ft.formulas[body] = f
	return f
}

// Count returns the number of distinct formulas
func (ft *FormulaTable) Count() int {
	return len(ft.formulas)
}

// Retain drops every formula whose body is not in live
func (ft *FormulaTable) Retain(live map[string]struct{}) {
	for body := range ft.formulas {
		if _, ok := live[body]; !ok {
			delete(ft.formulas, body)
		}
	}
}

// Clear removes all formulas from the table
func (ft *FormulaTable) Clear() {
	ft.formulas = make(map[string]*Formula)
}
