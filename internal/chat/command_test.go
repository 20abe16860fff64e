package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limits = Limits{DefaultCount: 3, MaxCount: 10}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{"fetch with count and statement", "@djinn fetch 5 (rating > 3 and genres = Comedy)",
			Command{Op: OpFetch, Count: 5, Statement: "(rating > 3 and genres = Comedy)"}},
		{"discord mention", "<@1234> poll 2 (year >= 1990)",
			Command{Op: OpPoll, Count: 2, Statement: "(year >= 1990)"}},
		{"default count", "@djinn fetch (votes > 1000)",
			Command{Op: OpFetch, Count: 3, Statement: "(votes > 1000)"}},
		{"no statement", "@djinn poll",
			Command{Op: OpPoll, Count: 3}},
		{"count only", "@djinn fetch 1",
			Command{Op: OpFetch, Count: 1}},
		{"count capped", "@djinn fetch 50 (rating > 3)",
			Command{Op: OpFetch, Count: 10, Statement: "(rating > 3)"}},
		{"bare statement", "fetch rating > 3",
			Command{Op: OpFetch, Count: 3, Statement: "rating > 3"}},
		{"keyword case", "@djinn FETCH 2",
			Command{Op: OpFetch, Count: 2}},
		{"no space before paren", "@djinn fetch(rating > 3)",
			Command{Op: OpFetch, Count: 3, Statement: "(rating > 3)"}},
		{"trailing words after statement", "@djinn fetch 3 (rating > 3) please",
			Command{Op: OpFetch, Count: 3, Statement: "(rating > 3)"}},
		{"nested parens then trailing words", "@djinn poll ((rating > 3) or (year < 1950)) thanks!",
			Command{Op: OpPoll, Count: 3, Statement: "((rating > 3) or (year < 1950))"}},
		{"unbalanced statement kept verbatim", "@djinn fetch (rating > 3",
			Command{Op: OpFetch, Count: 3, Statement: "(rating > 3"}},
		{"legacy phrase", "@djinn Give me movies please",
			Command{Op: OpPoll, Count: 3}},
		{"help", "@djinn help", Command{Op: OpHelp}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.input, limits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"@djinn dance", ErrUnknownCommand},
		{"@djinn", ErrUnknownCommand},
		{"", ErrUnknownCommand},
		{"@djinn fetch 0 (rating > 3)", ErrInvalidCount},
		{"@djinn fetch 99999999999999999999999", ErrInvalidCount},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseCommand(tt.input, limits)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "fetch", OpFetch.String())
	assert.Equal(t, "poll", OpPoll.String())
	assert.Equal(t, "unknown", Op(42).String())
}
