package vocab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bastiangx/wordsieve/pkg/dictionary"
	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/store"
	"github.com/charmbracelet/log"
)

// DefaultRefreshDelay is the quiet period before a deferred refresh.
const DefaultRefreshDelay = 50 * time.Millisecond

// Options tune a session.
type Options struct {
	User            string
	MinTargetLength int
	RefreshDelay    time.Duration
}

// Session is the vocabulary of one user over the texts they added.
type Session struct {
	store store.Store
	table dictionary.Table
	opts  Options
	cache *Cache

	mu    sync.Mutex
	texts []string
}

// NewSession creates a session. The table is validated on every rebuild,
// so a malformed table surfaces as a Snapshot error.
func NewSession(st store.Store, table dictionary.Table, opts Options) *Session {
	if opts.MinTargetLength < 1 {
		opts.MinTargetLength = sieve.DefaultMinTargetLength
	}
	if opts.RefreshDelay <= 0 {
		opts.RefreshDelay = DefaultRefreshDelay
	}
	s := &Session{store: st, table: table.Clone(), opts: opts}
	s.cache = NewCache(s.compute, opts.RefreshDelay)
	return s
}

// User returns the user the session reads and writes state for.
func (s *Session) User() string {
	return s.opts.User
}

// Add appends text. The next Snapshot includes it; a background refresh
// is scheduled as well.
func (s *Session) Add(text string) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()
	s.cache.Invalidate()
	s.cache.Request()
}

// Reset drops every text added so far.
func (s *Session) Reset() {
	s.mu.Lock()
	s.texts = nil
	s.mu.Unlock()
	s.cache.Invalidate()
}

// Texts is the number of texts added.
func (s *Session) Texts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.texts)
}

// Snapshot returns the cached vocabulary, computing it if needed.
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	return s.cache.Get(ctx)
}

// Acquaint marks words as known in the store. The cached snapshot is
// refreshed in the background rather than patched in place.
func (s *Session) Acquaint(ctx context.Context, words ...string) (int, error) {
	n, err := s.store.AcquaintAll(ctx, s.opts.User, words)
	if err != nil {
		return 0, err
	}
	s.cache.Request()
	return n, nil
}

// Revoke forgets that word was acquainted.
func (s *Session) Revoke(ctx context.Context, word string) error {
	if err := s.store.Revoke(ctx, s.opts.User, word); err != nil {
		return err
	}
	s.cache.Request()
	return nil
}

// Refresh schedules a background rebuild.
func (s *Session) Refresh() {
	s.cache.Request()
}

// Cache exposes the session cache.
func (s *Session) Cache() *Cache {
	return s.cache
}

// Close stops background refreshes.
func (s *Session) Close() {
	s.cache.Close()
}

func (s *Session) compute(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	texts := append([]string(nil), s.texts...)
	s.mu.Unlock()

	states, err := s.store.Words(ctx, s.opts.User)
	if err != nil {
		return nil, fmt.Errorf("fetch vocabulary: %w", err)
	}

	start := time.Now()
	eng, err := sieve.Build(texts, states, s.table)
	if err != nil {
		return nil, err
	}
	entries := eng.Flatten()
	target, common := sieve.Partition(entries, s.opts.MinTargetLength)
	snap := &Snapshot{
		Engine:    eng,
		Entries:   entries,
		Target:    target,
		Common:    common,
		Index:     NewIndex(entries),
		WordCount: eng.WordCount(),
		Built:     time.Now(),
	}
	snap.Took = snap.Built.Sub(start)
	log.Debugf("Rebuilt vocabulary for %q: %d entries (%d target, %d common) in %v",
		s.opts.User, len(entries), len(target), len(common), snap.Took)
	return snap, nil
}
