// Package storetest holds the behaviour every store.Store must share.
package storetest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/store"
)

// Run exercises s against the store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.UpsertRanked(ctx, []store.RankedWord{{Word: "river", Rank: 120}, {Word: "the", Rank: 1}}); err != nil {
		t.Fatalf("UpsertRanked: %v", err)
	}

	shared := words(t, s, "")
	if got := join(shared); got != "the river" {
		t.Fatalf("shared words = %q", got)
	}
	for _, st := range shared {
		if st.Acquainted || st.IsUser || !st.InStore || st.Rank == nil {
			t.Errorf("unexpected shared state %+v", st)
		}
	}

	if err := s.Acquaint(ctx, "ana", "river"); err != nil {
		t.Fatalf("Acquaint: %v", err)
	}
	n, err := s.AcquaintAll(ctx, "ana", []string{"river", "serendipity"})
	if err != nil {
		t.Fatalf("AcquaintAll: %v", err)
	}
	if n != 1 {
		t.Errorf("AcquaintAll changed %d records, expected 1", n)
	}

	ana := words(t, s, "ana")
	if got := join(ana); got != "the river serendipity" {
		t.Fatalf("ana words = %q", got)
	}
	if ana[0].Acquainted {
		t.Error("the was never acquainted")
	}
	if !ana[1].Acquainted || ana[1].IsUser || ana[1].TimeModified == nil {
		t.Errorf("unexpected river state %+v", ana[1])
	}
	if !ana[2].Acquainted || !ana[2].IsUser || ana[2].Rank != nil {
		t.Errorf("unexpected serendipity state %+v", ana[2])
	}

	for _, st := range words(t, s, "bob") {
		if st.Acquainted {
			t.Errorf("bob sees ana's state for %q", st.Word)
		}
	}

	if err := s.Revoke(ctx, "ana", "serendipity"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if got := join(words(t, s, "ana")); got != "the river" {
		t.Errorf("after revoke ana words = %q", got)
	}
	if err := s.Revoke(ctx, "ana", "serendipity"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second revoke: expected ErrNotFound, got %v", err)
	}

	if err := s.Acquaint(ctx, "", "river"); !errors.Is(err, store.ErrNoUser) {
		t.Errorf("anonymous acquaint: expected ErrNoUser, got %v", err)
	}
	long := strings.Repeat("a", store.DefaultMaxWordLength+1)
	if _, err := s.AcquaintAll(ctx, "ana", []string{"valid", long}); !errors.Is(err, store.ErrInvalidWord) {
		t.Errorf("long word: expected ErrInvalidWord, got %v", err)
	}
	if got := join(words(t, s, "ana")); got != "the river" {
		t.Errorf("a rejected batch must not write anything, got %q", got)
	}
}

func words(t *testing.T, s store.Store, user string) []sieve.VocabState {
	t.Helper()
	out, err := s.Words(context.Background(), user)
	if err != nil {
		t.Fatalf("Words(%q): %v", user, err)
	}
	return out
}

func join(states []sieve.VocabState) string {
	parts := make([]string, len(states))
	for i, st := range states {
		parts[i] = st.Word
	}
	return strings.Join(parts, " ")
}
