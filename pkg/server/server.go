package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/wordsieve/internal/logger"
	"github.com/bastiangx/wordsieve/internal/utils"
	"github.com/bastiangx/wordsieve/pkg/config"
	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/store"
	"github.com/bastiangx/wordsieve/pkg/vocab"
	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for one vocabulary session
type Server struct {
	session    *vocab.Session
	config     *config.Config
	configPath string
	dec        *msgpack.Decoder
	enc        *msgpack.Encoder
	log        *log.Logger

	mu           sync.Mutex
	entropy      *ulid.MonotonicEntropy
	requestCount int
}

// NewServer creates a server reading requests from r and writing responses to w.
// configPath is where config actions persist; empty keeps changes in memory.
func NewServer(session *vocab.Session, cfg *config.Config, configPath string, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		session:    session,
		config:     cfg,
		configPath: configPath,
		dec:        msgpack.NewDecoder(r),
		enc:        msgpack.NewEncoder(w),
		log:        logger.New("ipc"),
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Start signals readiness and serves requests until EOF or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting Server.")
	s.sendResponse(StatusResponse{Status: "ready"})

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			s.sendError("", "Invalid msgpack request", 400)
			return err
		}
		s.handleRequest(ctx, req)
	}
}

// handleRequest dispatches a decoded request on its action
func (s *Server) handleRequest(ctx context.Context, req Request) {
	s.requestCount++
	if req.ID == "" {
		req.ID = s.newID()
	}
	s.log.Debug("Processing request", "id", req.ID, "action", req.Action)

	switch req.Action {
	case "add":
		s.handleAdd(req)
	case "reset":
		s.session.Reset()
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	case "list":
		s.handleList(ctx, req)
	case "lookup":
		s.handleLookup(ctx, req)
	case "acquaint":
		s.handleAcquaint(ctx, req)
	case "revoke":
		s.handleRevoke(ctx, req)
	case "stats":
		s.handleStats(ctx, req)
	case "config":
		s.handleConfig(req)
	case "health":
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown action: %s", req.Action), 400)
	}
}

func (s *Server) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

// sendResponse encodes a response onto the output stream
func (s *Server) sendResponse(response any) {
	if err := s.enc.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}

func (s *Server) handleAdd(req Request) {
	if req.Text == "" {
		s.sendError(req.ID, "Missing 'text' parameter", 400)
		return
	}
	s.session.Add(req.Text)
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Count: s.session.Texts()})
}

func (s *Server) snapshot(ctx context.Context, id string) (*vocab.Snapshot, bool) {
	snap, err := s.session.Snapshot(ctx)
	if err != nil {
		s.log.Errorf("Building vocabulary: %v", err)
		code := 500
		if errors.Is(err, sieve.ErrMalformedIrregular) {
			code = 422
		}
		s.sendError(id, err.Error(), code)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleList(ctx context.Context, req Request) {
	start := time.Now()
	seg, err := sieve.ParseSegment(req.Segment)
	if err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}
	snap, ok := s.snapshot(ctx, req.ID)
	if !ok {
		return
	}
	var entries []sieve.Entry
	switch seg {
	case sieve.SegmentTarget:
		entries = snap.Target
	case sieve.SegmentCommon:
		entries = snap.Common
	default:
		entries = sieve.Select(snap.Entries, seg, s.config.Engine.MinTargetLength)
	}
	if entries == nil {
		entries = []sieve.Entry{}
	}
	s.sendResponse(ListResponse{
		ID:        req.ID,
		Status:    "ok",
		Entries:   entries,
		Count:     len(entries),
		TimeTaken: time.Since(start).Microseconds(),
	})
}

// handleLookup validates the prefix against the server limits before
// searching the snapshot index.
func (s *Server) handleLookup(ctx context.Context, req Request) {
	limits := s.config.Server
	prefix := req.Prefix
	n := utf8.RuneCountInString(prefix)

	if prefix == "" {
		s.sendError(req.ID, "Missing 'p' parameter", 400)
		return
	}
	if n < limits.MinPrefix {
		s.sendError(req.ID, fmt.Sprintf("Prefix must be at least %d characters", limits.MinPrefix), 400)
		return
	}
	if limits.MaxPrefix > 0 && n > limits.MaxPrefix {
		s.sendError(req.ID, fmt.Sprintf("Prefix exceeds maximum length of %d characters", limits.MaxPrefix), 400)
		return
	}

	limit := req.Limit
	if limit < 1 || (limits.MaxLimit > 0 && limit > limits.MaxLimit) {
		limit = limits.MaxLimit
	}

	start := time.Now()
	if limits.EnableFilter && !utils.IsValidInput(prefix) {
		s.sendResponse(LookupResponse{ID: req.ID, Status: "ok", Suggestions: []LookupSuggestion{}})
		return
	}
	snap, ok := s.snapshot(ctx, req.ID)
	if !ok {
		return
	}
	found := snap.Index.Lookup(prefix, limit)
	suggestions := make([]LookupSuggestion, len(found))
	for i, en := range found {
		suggestions[i] = LookupSuggestion{
			Word:      en.Word,
			Rank:      uint16(i + 1),
			Frequency: en.Frequency(),
			Phase:     en.Phase().String(),
		}
	}
	s.sendResponse(LookupResponse{
		ID:          req.ID,
		Status:      "ok",
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *Server) handleAcquaint(ctx context.Context, req Request) {
	words := utils.UniqueWords(append(req.Words, req.Word))
	if len(words) == 0 {
		s.sendError(req.ID, "Missing 'words' parameter", 400)
		return
	}
	n, err := s.session.Acquaint(ctx, words...)
	if err != nil {
		s.sendError(req.ID, err.Error(), storeCode(err))
		return
	}
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Count: n})
}

func (s *Server) handleRevoke(ctx context.Context, req Request) {
	if req.Word == "" {
		s.sendError(req.ID, "Missing 'word' parameter", 400)
		return
	}
	if err := s.session.Revoke(ctx, req.Word); err != nil {
		s.sendError(req.ID, err.Error(), storeCode(err))
		return
	}
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Count: 1})
}

func (s *Server) handleStats(ctx context.Context, req Request) {
	snap, ok := s.snapshot(ctx, req.ID)
	if !ok {
		return
	}
	nodes, labels := snap.Engine.Size()
	s.sendResponse(StatsResponse{
		ID:        req.ID,
		Status:    "ok",
		User:      s.session.User(),
		Texts:     s.session.Texts(),
		Words:     snap.WordCount,
		Entries:   len(snap.Entries),
		Target:    len(snap.Target),
		Common:    len(snap.Common),
		Nodes:     nodes,
		Labels:    labels,
		Builds:    s.session.Cache().Builds(),
		BuildTime: snap.Took.Microseconds(),
	})
}

func (s *Server) handleConfig(req Request) {
	if req.MaxLimit != nil && *req.MaxLimit < 1 {
		s.sendError(req.ID, "max_limit must be positive", 400)
		return
	}
	if req.MinPrefix != nil && *req.MinPrefix < 1 {
		s.sendError(req.ID, "min_prefix must be positive", 400)
		return
	}
	if err := s.config.Update(s.configPath, req.MaxLimit, req.MinPrefix, req.MaxPrefix, req.EnableFilter); err != nil {
		s.log.Errorf("Saving config: %v", err)
		s.sendError(req.ID, "Failed to save config", 500)
		return
	}
	limits := s.config.Server
	s.sendResponse(ConfigResponse{
		ID:           req.ID,
		Status:       "ok",
		MaxLimit:     limits.MaxLimit,
		MinPrefix:    limits.MinPrefix,
		MaxPrefix:    limits.MaxPrefix,
		EnableFilter: limits.EnableFilter,
	})
}

// storeCode maps store errors onto response codes
func storeCode(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return 404
	case errors.Is(err, store.ErrInvalidWord), errors.Is(err, store.ErrNoUser):
		return 400
	default:
		return 500
	}
}
