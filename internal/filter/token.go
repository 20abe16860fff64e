// Package filter implements the lexer, parser, AST and semantic validator
// for movie filter statements such as "rating > 7 and genres = Comedy".
package filter

// TokenType identifies the kind of lexical token.
type TokenType int

const (
	TokenEOF    TokenType = iota
	TokenIdent            // parameter name, "genres" or a genre literal
	TokenNumber           // 0 | [1-9][0-9]*

	// Comparators
	TokenLTE // <=
	TokenLT  // <
	TokenGTE // >=
	TokenGT  // >
	TokenEQ  // =
	TokenNEQ // <>

	// Logical words
	TokenAnd
	TokenOr

	// Grouping
	TokenLParen // (
	TokenRParen // )
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenLTE:
		return "<="
	case TokenLT:
		return "<"
	case TokenGTE:
		return ">="
	case TokenGT:
		return ">"
	case TokenEQ:
		return "="
	case TokenNEQ:
		return "<>"
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	default:
		return "unknown"
	}
}

// IsComparator returns true if the token type is one of the six comparators.
func (t TokenType) IsComparator() bool {
	switch t {
	case TokenLTE, TokenLT, TokenGTE, TokenGT, TokenEQ, TokenNEQ:
		return true
	}
	return false
}

// IsLogical returns true for "and" and "or".
func (t TokenType) IsLogical() bool {
	return t == TokenAnd || t == TokenOr
}

// Token is a single lexical token of a statement.
type Token struct {
	Type    TokenType
	Literal string // raw text of the token
	Pos     int    // byte offset in source
}

// keywords maps the logical words to their token types. Lookup is
// case-sensitive: "AND" is an identifier.
var keywords = map[string]TokenType{
	"and": TokenAnd,
	"or":  TokenOr,
}

// LookupKeyword returns the keyword token type for an identifier, or
// TokenIdent if the identifier is not a keyword.
func LookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
