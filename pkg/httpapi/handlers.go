package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bastiangx/wordsieve/internal/utils"
	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/store"
	"github.com/go-chi/chi/v5/middleware"
)

// AcquaintRequest is the body of POST /api/vocab/acquaint.
type AcquaintRequest struct {
	User  string   `json:"user"`
	Words []string `json:"words"`
}

// RevokeRequest is the body of POST /api/vocab/revoke.
type RevokeRequest struct {
	User string `json:"user"`
	Word string `json:"word"`
}

// SieveRequest is the body of POST /api/sieve.
type SieveRequest struct {
	User      string   `json:"user"`
	Text      string   `json:"text"`
	Texts     []string `json:"texts"`
	Segment   string   `json:"segment"`
	MinLength int      `json:"minLength"`
}

// SieveResult is the result of POST /api/sieve.
type SieveResult struct {
	Entries   []sieve.Entry `json:"entries"`
	Count     int           `json:"count"`
	WordCount int           `json:"wordCount"`
	Sentences int           `json:"sentences"`
	TookMs    int64         `json:"tookMs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleVocab(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	states, err := s.store.Words(r.Context(), user)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if states == nil {
		states = []sieve.VocabState{}
	}
	WriteSuccessWithCount(w, states, len(states))
}

func (s *Server) handleAcquaint(w http.ResponseWriter, r *http.Request) {
	var req AcquaintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	words := utils.UniqueWords(req.Words)
	if len(words) == 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "words is required")
		return
	}
	n, err := s.store.AcquaintAll(r.Context(), req.User, words)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]int{"changed": n})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req RevokeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.store.Revoke(r.Context(), req.User, req.Word); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]string{"revoked": strings.TrimSpace(req.Word)})
}

func (s *Server) handleStems(w http.ResponseWriter, r *http.Request) {
	WriteSuccessWithCount(w, s.table, len(s.table))
}

// handleSieve runs the full pipeline over the posted text. The user's
// stored state is merged in when a user is given.
func (s *Server) handleSieve(w http.ResponseWriter, r *http.Request) {
	var req SieveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	texts := req.Texts
	if req.Text != "" {
		texts = append([]string{req.Text}, texts...)
	}
	if len(texts) == 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}
	seg, err := sieve.ParseSegment(req.Segment)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	minLen := req.MinLength
	if minLen < 1 {
		minLen = s.config.Engine.MinTargetLength
	}

	var states []sieve.VocabState
	if req.User != "" {
		if states, err = s.store.Words(r.Context(), req.User); err != nil {
			s.writeStoreError(w, r, err)
			return
		}
	}

	start := time.Now()
	eng, err := sieve.Build(texts, states, s.table)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "sieve_failed", err.Error())
		return
	}
	entries := sieve.Select(eng.Flatten(), seg, minLen)
	if entries == nil {
		entries = []sieve.Entry{}
	}
	WriteSuccess(w, SieveResult{
		Entries:   entries,
		Count:     len(entries),
		WordCount: eng.WordCount(),
		Sentences: len(eng.Sentences()),
		TookMs:    time.Since(start).Milliseconds(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", err.Error())
			return false
		}
		WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNoUser), errors.Is(err, store.ErrInvalidWord):
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.log.Error("store failure", "id", middleware.GetReqID(r.Context()), "err", err)
		WriteError(w, http.StatusInternalServerError, "store_failed", "internal error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	WriteJSON(w, statusCode, map[string]any{
		"ok":      false,
		"error":   errorType,
		"message": message,
		"code":    statusCode,
	})
}

// WriteSuccess writes a success response
func WriteSuccess(w http.ResponseWriter, result any) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"result": result,
	})
}

// WriteSuccessWithCount writes a success response with count
func WriteSuccessWithCount(w http.ResponseWriter, result any, count int) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"result": result,
		"count":  count,
	})
}
