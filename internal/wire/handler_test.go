package wire

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/djinn/internal/chat"
	"github.com/matthewbaird/djinn/internal/corpus"
	"github.com/matthewbaird/djinn/internal/eventbus"
	"github.com/matthewbaird/djinn/internal/movie"
	"github.com/matthewbaird/djinn/internal/poll"
	"github.com/matthewbaird/djinn/internal/ratelimit"
	"github.com/matthewbaird/djinn/internal/service"
)

// received mirrors ServerMessage with the payload left raw.
type received struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

type client struct {
	t    *testing.T
	ctx  context.Context
	conn *websocket.Conn
}

func (c *client) send(typ, id string, data any) {
	c.t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(c.t, err)
	require.NoError(c.t, wsjson.Write(c.ctx, c.conn, ClientMessage{Type: typ, ID: id, Data: raw}))
}

func (c *client) recv(v any) received {
	c.t.Helper()
	var msg received
	require.NoError(c.t, wsjson.Read(c.ctx, c.conn, &msg))
	if v != nil {
		require.NoError(c.t, json.Unmarshal(msg.Data, v))
	}
	return msg
}

func newTestHandler(limiter *ratelimit.Limiter) (*Handler, *Manager) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := corpus.NewMemoryStore(
		movie.Record{ID: "tt1", Rating: decimal.NewFromInt(5), Genres: movie.NewGenreSet(movie.Comedy)},
		movie.Record{ID: "tt2", Rating: decimal.NewFromInt(8), Genres: movie.NewGenreSet(movie.Comedy, movie.Drama)},
		movie.Record{ID: "tt3", Rating: decimal.NewFromInt(2), Genres: movie.NewGenreSet(movie.Horror)},
	)
	svc := service.New(c, poll.NewStore(time.Minute, time.Hour), service.Options{
		Limits: chat.Limits{DefaultCount: 2, MaxCount: 3},
		Logger: logger,
	})
	sessions := NewManager()
	return NewHandler(sessions, svc, limiter, logger), sessions
}

func dial(t *testing.T, h *Handler, query string) *client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return &client{t: t, ctx: ctx, conn: conn}
}

func TestHandler_Session(t *testing.T) {
	h, sessions := newTestHandler(ratelimit.New(100, 100))
	c := dial(t, h, "?name=alice")

	var sess SessionData
	msg := c.recv(&sess)
	assert.Equal(t, "session", msg.Type)
	assert.Equal(t, "alice", sess.Name)
	assert.NotEmpty(t, sess.SessionID)
	assert.Equal(t, 1, sessions.Count())

	c.send("ping", "p1", nil)
	msg = c.recv(nil)
	assert.Equal(t, "pong", msg.Type)
	assert.Equal(t, "p1", msg.RequestID)
}

func TestHandler_FetchMessage(t *testing.T) {
	h, _ := newTestHandler(ratelimit.New(100, 100))
	c := dial(t, h, "")
	c.recv(nil)

	c.send("message", "m1", MessageData{Text: "@djinn fetch 5 (genres = Comedy)"})
	var out service.Outcome
	msg := c.recv(&out)
	require.Equal(t, "movies", msg.Type)
	assert.Equal(t, "m1", msg.RequestID)
	assert.Equal(t, "genres = Comedy", out.Statement)
	assert.Equal(t, 2, out.Matched)
	assert.True(t, out.Shortage)
	assert.Len(t, out.Movies, 2)
}

func TestHandler_Errors(t *testing.T) {
	h, _ := newTestHandler(ratelimit.New(100, 100))
	c := dial(t, h, "")
	c.recv(nil)

	tests := []struct {
		typ  string
		data any
		code string
	}{
		{"message", MessageData{Text: "@djinn fetch (rating > 03)"}, "lex_error"},
		{"message", MessageData{Text: "@djinn fetch (rating >> 3)"}, "parse_error"},
		{"message", MessageData{Text: "@djinn fetch (genres = Comdy)"}, "validation_error"},
		{"message", MessageData{Text: "@djinn dance"}, "unknown_command"},
		{"message", MessageData{Text: "@djinn poll (rating > 9)"}, "no_matches"},
		{"vote", VoteData{PollID: "nope"}, "not_found"},
		{"launch", nil, "unknown_type"},
	}
	for _, tt := range tests {
		c.send(tt.typ, "e", tt.data)
		var data ErrorData
		msg := c.recv(&data)
		assert.Equal(t, "error", msg.Type)
		assert.Equal(t, tt.code, data.Code, "%s %v", tt.typ, tt.data)
	}
}

func TestHandler_PollFlow(t *testing.T) {
	h, _ := newTestHandler(ratelimit.New(100, 100))
	c := dial(t, h, "")
	c.recv(nil)

	c.send("message", "m1", MessageData{Text: "@djinn give me movies"})
	var opened PollData
	msg := c.recv(&opened)
	require.Equal(t, "poll", msg.Type)
	require.NotNil(t, opened.Poll)
	require.Len(t, opened.Poll.Candidates, 2)

	c.send("vote", "v1", VoteData{PollID: opened.Poll.ID, Candidate: 1})
	var voted PollData
	msg = c.recv(&voted)
	require.Equal(t, "poll", msg.Type)
	assert.Equal(t, []int{0, 1}, voted.Poll.Tally)

	c.send("vote", "v2", VoteData{PollID: opened.Poll.ID, Candidate: 0})
	msg = c.recv(&voted)
	assert.Equal(t, []int{1, 0}, voted.Poll.Tally, "a session holds one vote")

	c.send("close", "c1", CloseData{PollID: opened.Poll.ID})
	var result PollData
	msg = c.recv(&result)
	require.Equal(t, "result", msg.Type)
	assert.True(t, result.Poll.Closed)
	require.NotNil(t, result.Poll.Winner)
	assert.Equal(t, 0, *result.Poll.Winner)
}

func TestHandler_CompleteAndHelp(t *testing.T) {
	h, _ := newTestHandler(ratelimit.New(100, 100))
	c := dial(t, h, "")
	c.recv(nil)

	c.send("complete", "a1", CompleteData{Text: "rating > 3 a", Cursor: 12})
	var items CompletionsData
	msg := c.recv(&items)
	require.Equal(t, "completions", msg.Type)
	require.Len(t, items.Items, 1)
	assert.Equal(t, "and", items.Items[0].Label)

	c.send("message", "h1", MessageData{Text: "@djinn help"})
	var help HelpData
	msg = c.recv(&help)
	assert.Equal(t, "help", msg.Type)
	assert.Equal(t, chat.Usage, help.Usage)
}

func TestHandler_RateLimited(t *testing.T) {
	h, _ := newTestHandler(ratelimit.New(0.001, 1))
	c := dial(t, h, "")
	c.recv(nil)

	c.send("message", "m1", MessageData{Text: "@djinn fetch 1"})
	assert.Equal(t, "movies", c.recv(nil).Type)

	c.send("message", "m2", MessageData{Text: "@djinn fetch 1"})
	var data ErrorData
	msg := c.recv(&data)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "rate_limited", data.Code)

	c.send("ping", "p", nil)
	assert.Equal(t, "pong", c.recv(nil).Type, "pings are not limited")
}

func TestHandler_AnnouncesClosedPolls(t *testing.T) {
	h, sessions := newTestHandler(ratelimit.New(100, 100))
	alice := dial(t, h, "?name=alice")
	alice.recv(nil)
	bob := dial(t, h, "?name=bob")
	bob.recv(nil)
	require.Equal(t, 2, sessions.Count())

	alice.send("message", "m1", MessageData{Text: "@djinn poll 2 (genres = Comedy)"})
	var opened PollData
	require.Equal(t, "poll", alice.recv(&opened).Type)

	ctx := context.Background()
	require.NoError(t, h.HandleEvent(ctx, eventbus.NewEvent(eventbus.PollOpened, opened.Poll)))

	closed, err := h.svc.ClosePoll(ctx, opened.Poll.ID)
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(ctx, eventbus.NewEvent(eventbus.PollClosed, closed)))

	for _, c := range []*client{alice, bob} {
		var result PollData
		msg := c.recv(&result)
		require.Equal(t, "result", msg.Type)
		assert.Empty(t, msg.RequestID)
		assert.Equal(t, opened.Poll.ID, result.Poll.ID)
		assert.True(t, result.Poll.Closed)
	}

	bob.send("ping", "p", nil)
	assert.Equal(t, "pong", bob.recv(nil).Type, "only closed polls are announced")
}
