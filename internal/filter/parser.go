package filter

import (
	"strconv"
)

// genresKeyword introduces a genre condition.
const genresKeyword = "genres"

// Parser implements a recursive descent parser for filter statements.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser from a token slice (typically from Lexer.Tokenize).
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes and parses a statement.
func Parse(input string) (*Statement, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	expr, err := NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}
	return &Statement{Source: input, Expr: expr}, nil
}

// Parse parses the token stream into a single expression. The whole
// statement may be wrapped in one pair of parentheses.
func (p *Parser) Parse() (Expr, error) {
	wrapped := false
	if p.check(TokenLParen) {
		p.advance()
		wrapped = true
	}

	expr, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if wrapped {
		if _, err := p.expect(TokenRParen, "'and', 'or' or ')'"); err != nil {
			return nil, err
		}
	}

	if !p.atEnd() {
		if wrapped {
			return nil, newParseError(p.peek(), "end of input")
		}
		return nil, newParseError(p.peek(), "'and', 'or' or end of input")
	}
	return expr, nil
}

// ── Token navigation ────────────────────────────────────────────────────────

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		if n := len(p.tokens); n > 0 {
			return Token{Type: TokenEOF, Pos: p.tokens[n-1].Pos + len(p.tokens[n-1].Literal)}
		}
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == TokenEOF
}

func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) expect(t TokenType, expected string) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return Token{}, newParseError(p.peek(), expected)
}

// ── Statement ───────────────────────────────────────────────────────────────

// parseStatement folds conditions left to right. "and" and "or" bind
// equally: a or b and c parses as (a or b) and c.
func (p *Parser) parseStatement() (Expr, error) {
	left, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	for p.peek().Type.IsLogical() {
		opTok := p.advance()
		right, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		op := LogicAnd
		if opTok.Type == TokenOr {
			op = LogicOr
		}
		left = &Logical{
			TokenPos: opTok.Pos,
			Op:       op,
			Left:     left,
			Right:    right,
		}
	}
	return left, nil
}

// ── Conditions ──────────────────────────────────────────────────────────────

func (p *Parser) parseCondition() (Expr, error) {
	tok := p.peek()
	if tok.Type != TokenIdent {
		return nil, newParseError(tok, "parameter or 'genres'")
	}
	p.advance()

	if tok.Literal == genresKeyword {
		return p.parseGenre(tok)
	}

	opTok := p.peek()
	op, ok := comparatorOf(opTok.Type)
	if !ok {
		return nil, newParseError(opTok, "comparator (<=, <, >=, >, =, <>)")
	}
	p.advance()

	numTok := p.peek()
	if numTok.Type != TokenNumber {
		perr := newParseError(numTok, "number")
		if numTok.Type == TokenIdent {
			perr.Suggestion = SuggestFrom(tok.Literal, []string{genresKeyword}, 2)
		}
		return nil, perr
	}
	p.advance()

	value, err := strconv.ParseInt(numTok.Literal, 10, 64)
	if err != nil {
		return nil, &LexError{Pos: numTok.Pos, Reason: "number " + numTok.Literal + " is out of range"}
	}

	return &Comparison{
		TokenPos: tok.Pos,
		Param:    Ident{Name: tok.Literal, Pos: tok.Pos},
		Op:       op,
		Value:    Number{Raw: numTok.Literal, Value: value, Pos: numTok.Pos},
	}, nil
}

// parseGenre parses the remainder of "genres = <genre>".
func (p *Parser) parseGenre(kw Token) (Expr, error) {
	if _, err := p.expect(TokenEQ, "'=' after 'genres'"); err != nil {
		return nil, err
	}
	genreTok, err := p.expect(TokenIdent, "genre")
	if err != nil {
		return nil, err
	}
	return &GenreEquals{
		TokenPos: kw.Pos,
		Op:       CompEQ,
		Genre:    Ident{Name: genreTok.Literal, Pos: genreTok.Pos},
	}, nil
}

func comparatorOf(t TokenType) (Comparator, bool) {
	switch t {
	case TokenLTE:
		return CompLTE, true
	case TokenLT:
		return CompLT, true
	case TokenGTE:
		return CompGTE, true
	case TokenGT:
		return CompGT, true
	case TokenEQ:
		return CompEQ, true
	case TokenNEQ:
		return CompNEQ, true
	default:
		return 0, false
	}
}
