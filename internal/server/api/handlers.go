package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/systemshift/unreplied/internal/server/conversations"
	"github.com/systemshift/unreplied/internal/server/reputation"
)

// Reputation is the orchestrator surface the handlers use.
type Reputation interface {
	Fetch(ctx context.Context, fids []int64) error
	Ranks(fids []int64) map[int64]*float64
	Scores(fids []int64) []*reputation.Score
	Status() map[string]reputation.Status
	Clear()
}

// Server holds the HTTP server dependencies
type Server struct {
	conversations conversations.PageSource
	reputation    Reputation
	logger        *slog.Logger
}

// New creates a new API server
func New(convs conversations.PageSource, rep Reputation, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{conversations: convs, reputation: rep, logger: logger}
}

// ScoreRequest is the request body for POST /reputation/score
type ScoreRequest struct {
	FIDs []int64 `json:"fids"`
}

// ScoreResponse is the response for POST /reputation/score
type ScoreResponse struct {
	Data  []*reputation.Score `json:"data"`
	Count int                 `json:"count"`
}

// GetRanks handles GET /reputation/rank?fids=1,2,3
// Fids whose rank is not resolved yet are omitted; unranked fids are null.
func (s *Server) GetRanks(w http.ResponseWriter, r *http.Request) {
	fids, err := parseFIDList(r.URL.Query().Get("fids"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.reputation.Fetch(r.Context(), fids); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, s.reputation.Ranks(fids))
}

// GetScores handles POST /reputation/score
func (s *Server) GetScores(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.FIDs) == 0 {
		s.writeError(w, &reputation.ValidationError{Field: "fids", Reason: "at least one fid is required"})
		return
	}

	if err := s.reputation.Fetch(r.Context(), req.FIDs); err != nil {
		s.writeError(w, err)
		return
	}

	data := s.reputation.Scores(req.FIDs)
	writeJSON(w, ScoreResponse{Data: data, Count: len(data)})
}

// ReputationStatus handles GET /reputation/status
func (s *Server) ReputationStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.reputation.Status())
}

// ClearReputation handles DELETE /reputation/cache
func (s *Server) ClearReputation(w http.ResponseWriter, r *http.Request) {
	s.reputation.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// GetConversations handles GET /conversations
// Query params: fid (required), cursor, limit, days, sort (newest|oldest)
func (s *Server) GetConversations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	fid, err := parseInt(query.Get("fid"), "fid", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := parseInt(query.Get("limit"), "limit", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	days, err := parseInt(query.Get("days"), "days", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.conversations.Resolve(r.Context(), conversations.Request{
		UserFID:  fid,
		PageSize: int(limit),
		Cursor:   query.Get("cursor"),
		Filter: conversations.Filter{
			Days: int(days),
			Sort: conversations.Sort(query.Get("sort")),
		},
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, result)
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status": "ok",
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var repErr *reputation.ValidationError
	var convErr *conversations.ValidationError
	if errors.As(err, &repErr) || errors.As(err, &convErr) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Error("request failed", "err", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// parseFIDList parses a comma-separated fid list. Blank items are skipped.
func parseFIDList(raw string) ([]int64, error) {
	var fids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fid, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, &reputation.ValidationError{Field: "fids", Reason: fmt.Sprintf("%q is not a number", part)}
		}
		fids = append(fids, fid)
	}
	if len(fids) == 0 {
		return nil, &reputation.ValidationError{Field: "fids", Reason: "at least one fid is required"}
	}
	return fids, nil
}

func parseInt(raw, field string, def int64) (int64, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &conversations.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return n, nil
}
