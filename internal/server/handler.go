package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/matthewbaird/djinn/internal/poll"
	"github.com/matthewbaird/djinn/internal/service"
)

// Handler serves the JSON API.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type fetchRequest struct {
	Statement string `json:"statement"`
	Count     int    `json:"count"`
}

type voteRequest struct {
	Voter     string `json:"voter"`
	Candidate int    `json:"candidate"`
}

type pollResponse struct {
	Poll    *poll.Poll       `json:"poll"`
	Outcome *service.Outcome `json:"outcome,omitempty"`
}

// Fetch handles POST /v1/fetch.
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	out, err := h.svc.Fetch(r.Context(), req.Statement, req.Count)
	if err != nil {
		serviceErrorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePoll handles POST /v1/polls.
func (h *Handler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	p, out, err := h.svc.Poll(r.Context(), req.Statement, req.Count)
	if err != nil {
		serviceErrorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pollResponse{Poll: p, Outcome: out})
}

// GetPoll handles GET /v1/polls/{id}.
func (h *Handler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetPoll(id)
	if err != nil {
		serviceErrorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pollResponse{Poll: p})
}

// Vote handles POST /v1/polls/{id}/votes.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Voter == "" {
		writeError(w, http.StatusBadRequest, "MISSING_VOTER", "voter is required")
		return
	}
	p, err := h.svc.Vote(r.Context(), id, req.Voter, req.Candidate)
	if err != nil {
		serviceErrorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pollResponse{Poll: p})
}

// ClosePoll handles POST /v1/polls/{id}/close.
func (h *Handler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.ClosePoll(r.Context(), id)
	if err != nil {
		serviceErrorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pollResponse{Poll: p})
}

// Complete handles GET /v1/complete?text=...&cursor=N. The cursor defaults
// to the end of text.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	cursor := len(text)
	if v := r.URL.Query().Get("cursor"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > len(text) {
			writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "cursor out of range: "+v)
			return
		}
		cursor = n
	}
	writeJSON(w, http.StatusOK, h.svc.Complete(text, cursor))
}
