// Package compile lowers validated filter statements into executable forms:
// an in-memory predicate over movie records, and a parameterised SQL
// condition for corpora that can evaluate filters themselves.
package compile

import (
	"fmt"

	"github.com/matthewbaird/djinn/internal/filter"
	"github.com/matthewbaird/djinn/internal/movie"
)

// Predicate reports whether a record satisfies a statement. Predicates hold
// no references to the statement they were compiled from and are safe for
// concurrent use.
type Predicate func(movie.Record) bool

// Always matches every record. It stands in for an omitted statement.
func Always(movie.Record) bool { return true }

// Compile validates stmt and lowers it into a Predicate.
func Compile(stmt *filter.Statement) (Predicate, error) {
	if err := filter.Validate(stmt); err != nil {
		return nil, err
	}
	return lowerPredicate(stmt.Expr)
}

func lowerPredicate(e filter.Expr) (Predicate, error) {
	switch n := e.(type) {
	case *filter.Comparison:
		param, err := filter.ResolveParameter(n)
		if err != nil {
			return nil, err
		}
		op, value := n.Op, n.Value.Value
		return func(r movie.Record) bool {
			return op.Holds(r.Compare(param, value))
		}, nil

	case *filter.GenreEquals:
		genre, err := filter.ResolveGenre(n)
		if err != nil {
			return nil, err
		}
		return func(r movie.Record) bool {
			return r.Genres.Has(genre)
		}, nil

	case *filter.Logical:
		left, err := lowerPredicate(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := lowerPredicate(n.Right)
		if err != nil {
			return nil, err
		}
		return combine(n.Op, left, right), nil

	default:
		return nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

// combine joins two predicates; right is evaluated only when left does not
// already decide the result.
func combine(op filter.LogicOp, left, right Predicate) Predicate {
	if op == filter.LogicOr {
		return func(r movie.Record) bool { return left(r) || right(r) }
	}
	return func(r movie.Record) bool { return left(r) && right(r) }
}
