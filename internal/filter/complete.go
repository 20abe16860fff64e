package filter

import (
	"strings"

	"github.com/matthewbaird/djinn/internal/movie"
)

// CompletionItem is a single autocomplete suggestion.
type CompletionItem struct {
	Label string `json:"label"`
	Kind  string `json:"kind"` // "parameter", "keyword", "operator", "genre"
}

var comparators = []string{"<=", "<", ">=", ">", "=", "<>"}

// completion states, advanced token by token
const (
	stateCondition = iota // expecting a parameter or "genres"
	stateParam            // after a parameter, expecting a comparator
	stateGenres           // after "genres", expecting "="
	stateNumber           // after a comparator, expecting a number
	stateGenre            // after "genres =", expecting a genre
	stateAfter            // after a full condition, expecting and/or
	stateInvalid
)

// Complete returns suggestions for the statement text up to cursor.
func Complete(text string, cursor int) []CompletionItem {
	if cursor > len(text) || cursor < 0 {
		cursor = len(text)
	}
	prefix := text[:cursor]

	tokens, err := Tokenize(prefix)
	if err != nil {
		return nil
	}
	tokens = tokens[:len(tokens)-1] // drop EOF

	// A word touching the cursor is still being typed.
	partial := ""
	if n := len(tokens); n > 0 {
		last := tokens[n-1]
		if cursor <= last.Pos+len(last.Literal) && (last.Type == TokenIdent || last.Type.IsLogical()) {
			partial = last.Literal
			tokens = tokens[:n-1]
		}
	}

	switch walk(tokens) {
	case stateCondition:
		items := filterItems(movie.ParameterNames(), "parameter", partial)
		return append(items, filterItems([]string{genresKeyword}, "keyword", partial)...)
	case stateParam:
		return filterItems(comparators, "operator", partial)
	case stateGenres:
		return filterItems([]string{"="}, "operator", partial)
	case stateGenre:
		return filterItems(movie.GenreNames(), "genre", partial)
	case stateAfter:
		return filterItems([]string{"and", "or"}, "keyword", partial)
	default:
		return nil
	}
}

func walk(tokens []Token) int {
	state := stateCondition
	for i, tok := range tokens {
		if i == 0 && tok.Type == TokenLParen {
			continue
		}
		switch {
		case state == stateCondition && tok.Type == TokenIdent && tok.Literal == genresKeyword:
			state = stateGenres
		case state == stateCondition && tok.Type == TokenIdent:
			state = stateParam
		case state == stateParam && tok.Type.IsComparator():
			state = stateNumber
		case state == stateGenres && tok.Type == TokenEQ:
			state = stateGenre
		case state == stateNumber && tok.Type == TokenNumber,
			state == stateGenre && tok.Type == TokenIdent:
			state = stateAfter
		case state == stateAfter && tok.Type.IsLogical():
			state = stateCondition
		default:
			return stateInvalid
		}
	}
	return state
}

func filterItems(labels []string, kind, partial string) []CompletionItem {
	var items []CompletionItem
	for _, l := range labels {
		if strings.HasPrefix(l, partial) {
			items = append(items, CompletionItem{Label: l, Kind: kind})
		}
	}
	return items
}
