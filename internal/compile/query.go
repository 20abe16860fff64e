package compile

import (
	"fmt"
	"strings"

	"github.com/matthewbaird/djinn/internal/filter"
	"github.com/matthewbaird/djinn/internal/movie"
)

// GenresColumn holds a record's genres as a comma separated list, the way
// the IMDb datasets store them.
const GenresColumn = "genres"

// Query is a filter lowered to a SQL boolean expression over the corpus
// columns rating, votes, runtime, year and genres. Where never embeds
// literals; every value is bound through Args.
type Query struct {
	Where string
	Args  []any
}

// String returns the condition with its arguments, for logs.
func (q *Query) String() string {
	return fmt.Sprintf("%s %v", q.Where, q.Args)
}

// MatchAll is the query equivalent of Always.
var MatchAll = &Query{Where: "1 = 1"}

// Lower validates stmt and lowers it into a Query.
func Lower(stmt *filter.Statement) (*Query, error) {
	if err := filter.Validate(stmt); err != nil {
		return nil, err
	}
	q := &Query{}
	var b strings.Builder
	if err := writeCondition(&b, q, stmt.Expr); err != nil {
		return nil, err
	}
	q.Where = b.String()
	return q, nil
}

func writeCondition(b *strings.Builder, q *Query, e filter.Expr) error {
	switch n := e.(type) {
	case *filter.Comparison:
		param, err := filter.ResolveParameter(n)
		if err != nil {
			return err
		}
		// Statement comparators are spelled the same in SQL.
		fmt.Fprintf(b, "%s %s ?", param.Column(), n.Op)
		q.Args = append(q.Args, n.Value.Value)
		return nil

	case *filter.GenreEquals:
		genre, err := filter.ResolveGenre(n)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "instr(',' || %s || ',', ?) > 0", GenresColumn)
		q.Args = append(q.Args, genreNeedle(genre))
		return nil

	case *filter.Logical:
		b.WriteByte('(')
		if err := writeCondition(b, q, n.Left); err != nil {
			return err
		}
		if n.Op == filter.LogicOr {
			b.WriteString(" OR ")
		} else {
			b.WriteString(" AND ")
		}
		if err := writeCondition(b, q, n.Right); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil

	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
}

// genreNeedle is the delimited form searched for in ",<genres>,".
func genreNeedle(g movie.Genre) string {
	return "," + g.String() + ","
}
