package spreadsheet

import (
	"fmt"
	"iter"
	"strconv"
)

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenCell
	TokenOperator
	TokenLeftParen
	TokenRightParen
)

var tokenTypeNames = map[TokenType]string{
	TokenNumber:     "number",
	TokenCell:       "cell",
	TokenOperator:   "operator",
	TokenLeftParen:  "(",
	TokenRightParen: ")",
}

func (t TokenType) String() string {
	return tokenTypeNames[t]
}

// character classification constants. slightly easier to read.
const (
	charTab      = '\t'
	charNewline  = '\n'
	charReturn   = '\r'
	charSpace    = ' '
	charLParen   = '('
	charRParen   = ')'
	charAsterisk = '*'
	charPlus     = '+'
	charMinus    = '-'
	charPeriod   = '.'
	charSlash    = '/'
)

// Token represents a lexical token with position information
type Token struct {
	Type   TokenType
	Value  string
	Number float64 // parsed value for TokenNumber
	Pos    int     // byte position in input
}

// Lexer tokenizes a formula body (the text after "=")
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given formula body
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokens lazily yields tokens. iteration stops after the first error.
func (l *Lexer) Tokens() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, ok, err := l.Next()
			if err != nil {
				yield(Token{}, err)
				return
			}
			if !ok {
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

// Tokenize lexes the whole body eagerly
func Tokenize(body string) ([]Token, error) {
	var tokens []Token
	for tok, err := range NewLexer(body).Tokens() {
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// Next returns the next token. ok is false at end of input.
func (l *Lexer) Next() (tok Token, ok bool, err error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{}, false, nil
	}

	startPos := l.pos
	ch := l.current()

	if isDigit(ch) || (ch == charPeriod && isDigit(l.peek(1))) {
		tok, err := l.scanNumber()
		return tok, err == nil, err
	}

	switch ch {
	case charLParen:
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}, true, nil
	case charRParen:
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}, true, nil
	case charPlus, charMinus, charAsterisk, charSlash:
		l.pos++
		return Token{Type: TokenOperator, Value: string(ch), Pos: startPos}, true, nil
	}

	if isUpper(ch) {
		tok, err := l.scanCell()
		return tok, err == nil, err
	}

	return Token{}, false, NewFormulaError(KindSyntax, fmt.Sprintf("unexpected character %q at %d", ch, startPos))
}

func (l *Lexer) current() byte {
	return l.peek(0)
}

func (l *Lexer) peek(offset int) byte {
	pos := l.pos + offset
	if pos >= len(l.input) || pos < 0 {
		return 0
	}
	return l.input[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.current() {
		case charSpace, charTab, charNewline, charReturn:
			l.pos++
		default:
			return
		}
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isUpper(ch byte) bool {
	return ch >= 'A' && ch <= 'Z'
}

// scanNumber scans digits with at most one decimal point
func (l *Lexer) scanNumber() (Token, error) {
	startPos := l.pos

	for l.pos < len(l.input) && isDigit(l.current()) {
		l.pos++
	}

	if l.current() == charPeriod {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.current()) {
			l.pos++
		}
	}

	value := l.input[startPos:l.pos]
	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Token{}, NewFormulaError(KindSyntax, fmt.Sprintf("invalid number %q at %d", value, startPos))
	}
	return Token{Type: TokenNumber, Value: value, Number: num, Pos: startPos}, nil
}

// scanCell scans a run of uppercase letters followed by a run of digits
func (l *Lexer) scanCell() (Token, error) {
	startPos := l.pos

	for l.pos < len(l.input) && isUpper(l.current()) {
		l.pos++
	}
	lettersEnd := l.pos
	for l.pos < len(l.input) && isDigit(l.current()) {
		l.pos++
	}

	if l.pos == lettersEnd {
		return Token{}, NewFormulaError(KindSyntax, fmt.Sprintf("unexpected identifier %q at %d", l.input[startPos:l.pos], startPos))
	}
	return Token{Type: TokenCell, Value: l.input[startPos:l.pos], Pos: startPos}, nil
}
