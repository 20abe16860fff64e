// Package chat turns chat messages addressed to the bot into commands.
//
//	@djinn fetch 3 (rating > 7 and genres = Comedy)
//	@djinn poll (year >= 1990)
//	@djinn give me movies
package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidCount   = errors.New("invalid count")
)

// Op is the action a command asks for.
type Op int

const (
	OpFetch Op = iota
	OpPoll
	OpHelp
)

func (o Op) String() string {
	switch o {
	case OpFetch:
		return "fetch"
	case OpPoll:
		return "poll"
	case OpHelp:
		return "help"
	default:
		return "unknown"
	}
}

// legacyPoll is the phrase the first version of the bot answered to.
const legacyPoll = "give me movies"

// Usage is the reply to a help command.
const Usage = "usage: @djinn fetch|poll [count] [(statement)], e.g. @djinn poll 3 (rating > 7 and genres = Comedy)"

// Limits bounds the movie count of a command.
type Limits struct {
	DefaultCount int
	MaxCount     int
}

// Command is a parsed chat command. An empty Statement matches every movie.
type Command struct {
	Op        Op
	Count     int
	Statement string
}

// ParseCommand parses text of the form
//
//	[@mention...] fetch|poll|help [count] [statement]
//
// Counts above lim.MaxCount are capped; an omitted count is lim.DefaultCount.
// A statement opening with "(" ends at its matching ")" and any trailing
// chatter is dropped; otherwise the remainder is returned verbatim for the
// filter parser.
func ParseCommand(text string, lim Limits) (Command, error) {
	rest := stripMentions(text)

	if strings.Contains(strings.ToLower(rest), legacyPoll) {
		return Command{Op: OpPoll, Count: lim.DefaultCount}, nil
	}

	word, rest := nextWord(rest)
	var cmd Command
	switch strings.ToLower(word) {
	case "fetch":
		cmd.Op = OpFetch
	case "poll":
		cmd.Op = OpPoll
	case "help":
		return Command{Op: OpHelp}, nil
	case "":
		return Command{}, fmt.Errorf("%w: empty message", ErrUnknownCommand)
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, word)
	}

	cmd.Count = lim.DefaultCount
	if word, after := nextWord(rest); word != "" && isDigits(word) {
		n, err := strconv.Atoi(word)
		if err != nil || n <= 0 {
			return Command{}, fmt.Errorf("%w: %s", ErrInvalidCount, word)
		}
		cmd.Count = min(n, lim.MaxCount)
		rest = after
	}

	cmd.Statement = statement(rest)
	return cmd, nil
}

// statement returns the balanced parenthesised span at the start of s, or
// all of s when it has none.
func statement(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") {
		return s
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return s
}

// stripMentions drops leading "@name" and "<@id>" tokens.
func stripMentions(text string) string {
	rest := strings.TrimSpace(text)
	for {
		word, after := nextWord(rest)
		if !strings.HasPrefix(word, "@") && !strings.HasPrefix(word, "<@") {
			return rest
		}
		rest = after
	}
}

// nextWord splits off the first whitespace separated word. A word never
// extends into an opening parenthesis, so "fetch(rating > 3)" yields "fetch".
func nextWord(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '('
	})
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimLeftFunc(s[end:], unicode.IsSpace)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
