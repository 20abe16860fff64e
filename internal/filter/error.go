package filter

import (
	"errors"
	"fmt"
)

// Error codes returned by Classify. They are stable and shown to clients.
const (
	CodeLex        = "lex_error"
	CodeParse      = "parse_error"
	CodeValidation = "validation_error"
)

// LexError reports a malformed token.
type LexError struct {
	Pos    int
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Pos, e.Reason)
}

// ParseError reports a grammar violation. Expected describes what the parser
// was looking for and Found the token it got instead.
type ParseError struct {
	Pos        int
	Expected   string
	Found      string
	Suggestion string // "did you mean 'rating'?" or ""
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("offset %d: expected %s, got %s", e.Pos, e.Expected, e.Found)
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

// newParseError creates a ParseError at tok.
func newParseError(tok Token, expected string) *ParseError {
	return &ParseError{
		Pos:      tok.Pos,
		Expected: expected,
		Found:    describe(tok),
	}
}

// describe renders a token for error messages.
func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenIdent, TokenNumber:
		return fmt.Sprintf("%s '%s'", tok.Type, tok.Literal)
	default:
		return fmt.Sprintf("'%s'", tok.Literal)
	}
}

// ValidationError reports a statement that parses but names an unknown
// parameter or genre, or pairs a genre with an illegal comparator.
type ValidationError struct {
	Pos        int
	Node       Expr
	Reason     string
	Suggestion string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("offset %d: %s", e.Pos, e.Reason)
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

// Classify returns the error code for a pipeline error, or "" if err was not
// produced by this package.
func Classify(err error) string {
	var lexErr *LexError
	var parseErr *ParseError
	var valErr *ValidationError
	switch {
	case errors.As(err, &lexErr):
		return CodeLex
	case errors.As(err, &parseErr):
		return CodeParse
	case errors.As(err, &valErr):
		return CodeValidation
	default:
		return ""
	}
}

// Levenshtein computes the edit distance between two strings.
func Levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev = curr
	}
	return prev[lb]
}

// SuggestFrom finds the closest match from candidates within a maximum
// edit distance. Returns "" if no good match is found.
func SuggestFrom(input string, candidates []string, maxDist int) string {
	best := ""
	bestDist := maxDist + 1
	for _, c := range candidates {
		d := Levenshtein(input, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist <= maxDist {
		return fmt.Sprintf("did you mean '%s'?", best)
	}
	return ""
}
