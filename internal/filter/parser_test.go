package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, input string) Expr {
	t.Helper()
	stmt, err := Parse(input)
	require.NoError(t, err, "parse %q", input)
	return stmt.Expr
}

func TestParser_Comparison(t *testing.T) {
	expr := parse(t, "rating > 3")

	comp, ok := expr.(*Comparison)
	require.True(t, ok)
	assert.Equal(t, "rating", comp.Param.Name)
	assert.Equal(t, CompGT, comp.Op)
	assert.Equal(t, int64(3), comp.Value.Value)
	assert.Equal(t, 0, comp.Pos())
	assert.Equal(t, 9, comp.Value.Pos)
}

func TestParser_Genre(t *testing.T) {
	expr := parse(t, "genres = Comedy")

	g, ok := expr.(*GenreEquals)
	require.True(t, ok)
	assert.Equal(t, "Comedy", g.Genre.Name)
	assert.Equal(t, CompEQ, g.Op)
}

func TestParser_And(t *testing.T) {
	expr := parse(t, "rating > 3 and votes > 1000")

	logic, ok := expr.(*Logical)
	require.True(t, ok)
	assert.Equal(t, LogicAnd, logic.Op)
	assert.Equal(t, 11, logic.Pos())

	left := logic.Left.(*Comparison)
	assert.Equal(t, "rating", left.Param.Name)
	right := logic.Right.(*Comparison)
	assert.Equal(t, "votes", right.Param.Name)
	assert.Equal(t, int64(1000), right.Value.Value)
}

func TestParser_LeftAssociativeSamePrecedence(t *testing.T) {
	// a and b or c => (a and b) or c
	expr := parse(t, "rating > 1 and votes > 2 or year > 3")
	top := expr.(*Logical)
	assert.Equal(t, LogicOr, top.Op)
	inner := top.Left.(*Logical)
	assert.Equal(t, LogicAnd, inner.Op)
	assert.Equal(t, "year", top.Right.(*Comparison).Param.Name)

	// a or b and c => (a or b) and c, "and" does not bind tighter
	expr = parse(t, "rating > 1 or votes > 2 and year > 3")
	top = expr.(*Logical)
	assert.Equal(t, LogicAnd, top.Op)
	inner = top.Left.(*Logical)
	assert.Equal(t, LogicOr, inner.Op)
	assert.Equal(t, "rating", inner.Left.(*Comparison).Param.Name)
}

func TestParser_WrappedInParentheses(t *testing.T) {
	a := parse(t, "(rating > 3 and genres = Drama)")
	b := parse(t, "rating > 3 and genres = Drama")
	assert.True(t, Equal(a, b))
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pos      int
		expected string
	}{
		{"empty", "", 0, "parameter or 'genres'"},
		{"double comparator", "rating >> 3", 8, "number"},
		{"missing number", "rating >", 8, "number"},
		{"missing comparator", "rating 3", 7, "comparator"},
		{"genre comparator", "genres <> Comedy", 7, "'=' after 'genres'"},
		{"genre greater", "genres > Comedy", 7, "'=' after 'genres'"},
		{"genre number", "genres = 3", 9, "genre"},
		{"dangling and", "rating > 3 and", 14, "parameter or 'genres'"},
		{"missing operator", "rating > 3 votes > 2", 11, "'and', 'or' or end of input"},
		{"leading operator", "and rating > 3", 0, "parameter or 'genres'"},
		{"unmatched open", "(rating > 3", 11, "'and', 'or' or ')'"},
		{"unmatched close", "rating > 3)", 10, "'and', 'or' or end of input"},
		{"inner group", "rating > 3 and (votes > 2)", 15, "parameter or 'genres'"},
		{"trailing after group", "(rating > 3) or votes > 1", 13, "end of input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.pos, parseErr.Pos)
			assert.Equal(t, tt.expected, parseErr.Expected[:min(len(parseErr.Expected), len(tt.expected))])
			assert.Equal(t, CodeParse, Classify(err))
		})
	}
}

func TestParser_GenreTypoSuggestion(t *testing.T) {
	_, err := Parse("genre = Comedy")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "did you mean 'genres'?", parseErr.Suggestion)
	assert.Contains(t, parseErr.Error(), "identifier 'Comedy'")
}

func TestParser_LeadingZeroIsLexError(t *testing.T) {
	_, err := Parse("rating > 03")
	assert.Equal(t, CodeLex, Classify(err))
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		"rating > 3",
		"genres = Comedy",
		"rating>3 and votes>1000",
		"  year >= 1990 or   year <= 1960 and genres = Film-Noir ",
		"(runtime < 90 or runtime <> 120)",
		"duration = 0 and genres = Sci-Fi or votes < 50",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			original := parse(t, in)
			printed := Format(original)
			reparsed := parse(t, printed)
			assert.True(t, Equal(original, reparsed), "%q -> %q", in, printed)
			assert.Equal(t, printed, Format(reparsed))
		})
	}
}

func TestFormat_Canonical(t *testing.T) {
	stmt, err := Parse("rating>3   and genres=Comedy")
	require.NoError(t, err)
	assert.Equal(t, "rating > 3 and genres = Comedy", stmt.String())
}
