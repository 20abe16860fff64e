package filter

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// MaxStatementLength bounds the input accepted by the lexer.
const MaxStatementLength = 1024

// Lexer tokenizes statement text.
type Lexer struct {
	input string
	pos   int // current byte position
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the entire input and returns all tokens, the last one being
// TokenEOF. Scanning stops at the first malformed token.
func (l *Lexer) Tokenize() ([]Token, error) {
	if len(l.input) > MaxStatementLength {
		return nil, &LexError{
			Pos:    MaxStatementLength,
			Reason: fmt.Sprintf("statement too long: %d bytes (max %d)", len(l.input), MaxStatementLength),
		}
	}

	l.pos = 0
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Tokenize is shorthand for NewLexer(input).Tokenize().
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}

// peek returns the current byte without advancing.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// peekAt returns the byte at offset from current position.
func (l *Lexer) peekAt(offset int) byte {
	p := l.pos + offset
	if p >= len(l.input) {
		return 0
	}
	return l.input[p]
}

// skipWhitespace advances past spaces, tabs, and newlines.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		default:
			return
		}
	}
}

// next scans and returns the next token.
func (l *Lexer) next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	c := l.peek()

	if isDigit(c) {
		return l.scanNumber(start)
	}
	if isIdentPart(c) {
		return l.scanIdent(start), nil
	}

	// Two-character comparators first so "<=" and "<>" are never split.
	switch {
	case c == '<' && l.peekAt(1) == '=':
		l.pos += 2
		return Token{Type: TokenLTE, Literal: "<=", Pos: start}, nil
	case c == '<' && l.peekAt(1) == '>':
		l.pos += 2
		return Token{Type: TokenNEQ, Literal: "<>", Pos: start}, nil
	case c == '>' && l.peekAt(1) == '=':
		l.pos += 2
		return Token{Type: TokenGTE, Literal: ">=", Pos: start}, nil
	}

	l.pos++
	switch c {
	case '<':
		return Token{Type: TokenLT, Literal: "<", Pos: start}, nil
	case '>':
		return Token{Type: TokenGT, Literal: ">", Pos: start}, nil
	case '=':
		return Token{Type: TokenEQ, Literal: "=", Pos: start}, nil
	case '(':
		return Token{Type: TokenLParen, Literal: "(", Pos: start}, nil
	case ')':
		return Token{Type: TokenRParen, Literal: ")", Pos: start}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[start:])
	return Token{}, &LexError{Pos: start, Reason: fmt.Sprintf("unexpected character %q", r)}
}

// scanNumber reads "0" or a digit run without a leading zero.
func (l *Lexer) scanNumber(start int) (Token, error) {
	for l.pos < len(l.input) && isDigit(l.peek()) {
		l.pos++
	}
	lit := l.input[start:l.pos]
	if len(lit) > 1 && lit[0] == '0' {
		return Token{}, &LexError{Pos: start, Reason: fmt.Sprintf("number %s has a leading zero", lit)}
	}
	if _, err := strconv.ParseInt(lit, 10, 64); err != nil {
		return Token{}, &LexError{Pos: start, Reason: fmt.Sprintf("number %s is out of range", lit)}
	}
	return Token{Type: TokenNumber, Literal: lit, Pos: start}, nil
}

// scanIdent reads an identifier or logical keyword.
func (l *Lexer) scanIdent(start int) Token {
	for l.pos < len(l.input) && isIdentPart(l.peek()) {
		l.pos++
	}
	lit := l.input[start:l.pos]
	return Token{Type: LookupKeyword(lit), Literal: lit, Pos: start}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentPart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-'
}
