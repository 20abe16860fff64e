package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/djinn/internal/chat"
	"github.com/matthewbaird/djinn/internal/eventbus"
	"github.com/matthewbaird/djinn/internal/filter"
	"github.com/matthewbaird/djinn/internal/poll"
	"github.com/matthewbaird/djinn/internal/ratelimit"
	"github.com/matthewbaird/djinn/internal/sample"
	"github.com/matthewbaird/djinn/internal/service"
)

// broadcastTimeout bounds one announcement to all sessions.
const broadcastTimeout = 5 * time.Second

// Handler manages WebSocket connections for the chat front-end.
type Handler struct {
	sessions *Manager
	svc      *service.Service
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler. Commands that draw movies or
// change polls are limited per session by limiter.
func NewHandler(sessions *Manager, svc *service.Service, limiter *ratelimit.Limiter, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		svc:      svc,
		limiter:  limiter,
		logger:   logger,
	}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. The optional
// "name" query parameter names the voter.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept", "error", err)
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Create(r.URL.Query().Get("name"), conn)
	defer func() {
		h.sessions.Remove(sess.ID)
		h.limiter.Forget(sess.ID)
	}()
	ctx := r.Context()
	h.logger.Info("session opened", "session", sess.ID, "name", sess.Name)

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{SessionID: sess.ID, Name: sess.Name},
	})

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Info("session closed", "session", sess.ID, "status", websocket.CloseStatus(err))
			}
			return
		}
		sess.Touch()

		switch msg.Type {
		case "message", "vote", "close":
			if !h.limiter.Allow(sess.ID) {
				h.sendError(ctx, conn, msg.ID, "rate_limited", "slow down")
				continue
			}
		}

		switch msg.Type {
		case "message":
			h.handleMessage(ctx, conn, msg)
		case "vote":
			h.handleVote(ctx, conn, sess, msg)
		case "close":
			h.handleClose(ctx, conn, msg)
		case "complete":
			h.handleComplete(ctx, conn, msg)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	var data MessageData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid message data")
		return
	}

	reply, err := h.svc.Handle(ctx, data.Text)
	if err != nil {
		h.sendServiceError(ctx, conn, msg.ID, err)
		return
	}

	switch reply.Command.Op {
	case chat.OpHelp:
		h.send(ctx, conn, ServerMessage{Type: "help", RequestID: msg.ID, Data: HelpData{Usage: chat.Usage}})
	case chat.OpFetch:
		h.send(ctx, conn, ServerMessage{Type: "movies", RequestID: msg.ID, Data: reply.Outcome})
	case chat.OpPoll:
		h.send(ctx, conn, ServerMessage{
			Type:      "poll",
			RequestID: msg.ID,
			Data:      PollData{Poll: reply.Poll, Outcome: reply.Outcome},
		})
	}
}

func (h *Handler) handleVote(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data VoteData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid vote data")
		return
	}
	p, err := h.svc.Vote(ctx, data.PollID, sess.ID, data.Candidate)
	if err != nil {
		h.sendServiceError(ctx, conn, msg.ID, err)
		return
	}
	h.send(ctx, conn, ServerMessage{Type: "poll", RequestID: msg.ID, Data: PollData{Poll: p}})
}

func (h *Handler) handleClose(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	var data CloseData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid close data")
		return
	}
	p, err := h.svc.ClosePoll(ctx, data.PollID)
	if err != nil {
		h.sendServiceError(ctx, conn, msg.ID, err)
		return
	}
	h.send(ctx, conn, ServerMessage{Type: "result", RequestID: msg.ID, Data: PollData{Poll: p}})
}

func (h *Handler) handleComplete(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	var data CompleteData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid complete data")
		return
	}
	h.send(ctx, conn, ServerMessage{
		Type:      "completions",
		RequestID: msg.ID,
		Data:      CompletionsData{Items: h.svc.Complete(data.Text, data.Cursor)},
	})
}

// HandleEvent announces closed polls to every live session, including
// polls closed by the deadline sweeper.
func (h *Handler) HandleEvent(ctx context.Context, evt eventbus.Event) error {
	if evt.Kind != eventbus.PollClosed {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, broadcastTimeout)
	defer cancel()

	msg := ServerMessage{Type: "result", Data: PollData{Poll: evt.Poll}}
	for _, conn := range h.sessions.Conns() {
		h.send(ctx, conn, msg)
	}
	return nil
}

// errorCode maps service errors to protocol error codes.
func errorCode(err error) string {
	if code := filter.Classify(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, chat.ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, chat.ErrInvalidCount), errors.Is(err, sample.ErrInvalidCount):
		return "invalid_count"
	case errors.Is(err, poll.ErrNotFound):
		return "not_found"
	case errors.Is(err, poll.ErrClosed):
		return "poll_closed"
	case errors.Is(err, poll.ErrInvalidCandidate):
		return "invalid_candidate"
	case errors.Is(err, poll.ErrNoCandidates):
		return "no_matches"
	default:
		return "internal"
	}
}

func (h *Handler) sendServiceError(ctx context.Context, conn *websocket.Conn, requestID string, err error) {
	code := errorCode(err)
	message := err.Error()
	if code == "internal" {
		h.logger.Error("websocket request failed", "error", err)
		message = "internal error"
	}
	h.sendError(ctx, conn, requestID, code, message)
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.logger.Warn("websocket write", "error", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
