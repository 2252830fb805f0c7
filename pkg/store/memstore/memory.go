package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/store"
)

type record struct {
	acquainted bool
	modified   time.Time
}

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu     sync.RWMutex
	ranked map[string]int
	users  map[string]map[string]record
	maxLen int
	now    func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		ranked: make(map[string]int),
		users:  make(map[string]map[string]record),
		maxLen: store.DefaultMaxWordLength,
		now:    time.Now,
	}
}

// SetMaxWordLength changes the longest word accepted by mutations.
func (s *Store) SetMaxWordLength(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxLen = n
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Words implements store.Store.
func (s *Store) Words(ctx context.Context, user string) ([]sieve.VocabState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	own := s.users[user]
	out := make([]sieve.VocabState, 0, len(s.ranked)+len(own))
	for w, rank := range s.ranked {
		st := sieve.VocabState{Word: w, Rank: sieve.Rank(rank), InStore: true}
		if rec, ok := own[w]; ok {
			st.Acquainted = rec.acquainted
			st.TimeModified = timePtr(rec.modified)
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if *out[i].Rank != *out[j].Rank {
			return *out[i].Rank < *out[j].Rank
		}
		return out[i].Word < out[j].Word
	})

	shared := len(out)
	for w, rec := range own {
		if _, ok := s.ranked[w]; ok {
			continue
		}
		out = append(out, sieve.VocabState{
			Word:         w,
			Acquainted:   rec.acquainted,
			IsUser:       true,
			InStore:      true,
			TimeModified: timePtr(rec.modified),
		})
	}
	userOnly := out[shared:]
	sort.Slice(userOnly, func(i, j int) bool { return userOnly[i].Word < userOnly[j].Word })
	return out, nil
}

// Acquaint implements store.Store.
func (s *Store) Acquaint(ctx context.Context, user, word string) error {
	_, err := s.AcquaintAll(ctx, user, []string{word})
	return err
}

// AcquaintAll implements store.Store. Words are validated before any is
// written.
func (s *Store) AcquaintAll(ctx context.Context, user string, words []string) (int, error) {
	if err := store.ValidateUser(user); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	clean := make([]string, 0, len(words))
	for _, w := range words {
		v, err := store.ValidateWord(w, s.maxLen)
		if err != nil {
			return 0, err
		}
		clean = append(clean, v)
	}

	own := s.users[user]
	if own == nil {
		own = make(map[string]record)
		s.users[user] = own
	}
	changed := 0
	now := s.now()
	for _, w := range clean {
		if rec, ok := own[w]; ok && rec.acquainted {
			continue
		}
		own[w] = record{acquainted: true, modified: now}
		changed++
	}
	return changed, nil
}

// Revoke implements store.Store.
func (s *Store) Revoke(ctx context.Context, user, word string) error {
	if err := store.ValidateUser(user); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := store.ValidateWord(word, s.maxLen)
	if err != nil {
		return err
	}
	if _, ok := s.users[user][w]; !ok {
		return store.ErrNotFound
	}
	delete(s.users[user], w)
	return nil
}

// UpsertRanked implements store.Store.
func (s *Store) UpsertRanked(ctx context.Context, words []store.RankedWord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rw := range words {
		w, err := store.ValidateWord(rw.Word, s.maxLen)
		if err != nil {
			return err
		}
		s.ranked[w] = rw.Rank
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
