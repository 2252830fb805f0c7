package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastiangx/wordsieve/pkg/store"
	"github.com/bastiangx/wordsieve/pkg/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "vocab.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, openTemp(t))
}

func TestContractInMemory(t *testing.T) {
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	storetest.Run(t, s)
}

func TestReopenKeepsState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vocab.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC)
	s.now = func() time.Time { return fixed }
	if err := s.UpsertRanked(ctx, []store.RankedWord{{Word: "harbor", Rank: 7}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Acquaint(ctx, "ana", "harbor"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	states, err := s.Words(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 1 || !states[0].Acquainted || *states[0].Rank != 7 {
		t.Fatalf("unexpected states after reopen: %+v", states)
	}
	if !states[0].TimeModified.Equal(fixed) {
		t.Errorf("TimeModified = %v, expected %v", states[0].TimeModified, fixed)
	}
}

func TestUpsertRankedUpdates(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	if err := s.UpsertRanked(ctx, []store.RankedWord{{Word: "harbor", Rank: 7}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertRanked(ctx, []store.RankedWord{{Word: "harbor", Rank: 3}}); err != nil {
		t.Fatal(err)
	}
	states, _ := s.Words(ctx, "")
	if len(states) != 1 || *states[0].Rank != 3 {
		t.Errorf("expected a single harbor with rank 3, got %+v", states)
	}
}
