// Package wire defines the WebSocket protocol of the chat front-end and
// serves it.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/djinn/internal/filter"
	"github.com/matthewbaird/djinn/internal/poll"
	"github.com/matthewbaird/djinn/internal/service"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "message", "vote", "close", "complete", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// MessageData is the payload for "message": a chat line such as
// "@djinn poll 3 (rating > 7)".
type MessageData struct {
	Text string `json:"text"`
}

// VoteData is the payload for "vote". The session is the voter.
type VoteData struct {
	PollID    string `json:"poll_id"`
	Candidate int    `json:"candidate"`
}

// CloseData is the payload for "close".
type CloseData struct {
	PollID string `json:"poll_id"`
}

// CompleteData is the payload for "complete".
type CompleteData struct {
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "movies", "poll", "result", "completions", "help", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// PollData carries a poll snapshot, and the draw that opened it.
type PollData struct {
	Poll    *poll.Poll       `json:"poll"`
	Outcome *service.Outcome `json:"outcome,omitempty"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CompletionsData carries autocomplete suggestions.
type CompletionsData struct {
	Items []filter.CompletionItem `json:"items"`
}

// HelpData carries the command usage.
type HelpData struct {
	Usage string `json:"usage"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}
