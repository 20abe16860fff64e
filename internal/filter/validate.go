package filter

import (
	"fmt"

	"github.com/matthewbaird/djinn/internal/movie"
)

// Validate checks that every parameter and genre in the statement belongs to
// its closed set and that genre conditions only use "=". It returns the first
// violation found in left-to-right order.
func Validate(stmt *Statement) error {
	if stmt == nil || stmt.Expr == nil {
		return &ValidationError{Reason: "empty statement"}
	}
	return validateExpr(stmt.Expr)
}

func validateExpr(e Expr) error {
	switch n := e.(type) {
	case *Comparison:
		_, err := ResolveParameter(n)
		return err
	case *GenreEquals:
		_, err := ResolveGenre(n)
		return err
	case *Logical:
		if n.Left == nil || n.Right == nil {
			return &ValidationError{Pos: n.TokenPos, Node: n, Reason: fmt.Sprintf("'%s' is missing an operand", n.Op)}
		}
		if err := validateExpr(n.Left); err != nil {
			return err
		}
		return validateExpr(n.Right)
	default:
		return &ValidationError{Reason: fmt.Sprintf("unsupported expression type: %T", e)}
	}
}

// ResolveParameter maps a comparison onto its search parameter.
func ResolveParameter(c *Comparison) (movie.Parameter, error) {
	if p, ok := movie.ParseParameter(c.Param.Name); ok {
		return p, nil
	}
	return 0, &ValidationError{
		Pos:        c.Param.Pos,
		Node:       c,
		Reason:     fmt.Sprintf("unknown parameter '%s'", c.Param.Name),
		Suggestion: SuggestFrom(c.Param.Name, movie.ParameterNames(), 3),
	}
}

// ResolveGenre maps a genre condition onto its genre.
func ResolveGenre(g *GenreEquals) (movie.Genre, error) {
	if g.Op != CompEQ {
		return 0, &ValidationError{
			Pos:    g.TokenPos,
			Node:   g,
			Reason: fmt.Sprintf("genres only supports '=', got '%s'", g.Op),
		}
	}
	if genre, ok := movie.ParseGenre(g.Genre.Name); ok {
		return genre, nil
	}
	return 0, &ValidationError{
		Pos:        g.Genre.Pos,
		Node:       g,
		Reason:     fmt.Sprintf("unknown genre '%s'", g.Genre.Name),
		Suggestion: SuggestFrom(g.Genre.Name, movie.GenreNames(), 3),
	}
}
