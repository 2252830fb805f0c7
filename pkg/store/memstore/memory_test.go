package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/bastiangx/wordsieve/pkg/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, New())
}

func TestAcquaintStampsTime(t *testing.T) {
	s := New()
	fixed := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.Acquaint(context.Background(), "ana", "  lantern "); err != nil {
		t.Fatal(err)
	}
	states, _ := s.Words(context.Background(), "ana")
	if len(states) != 1 || states[0].Word != "lantern" {
		t.Fatalf("expected trimmed word, got %+v", states)
	}
	if !states[0].TimeModified.Equal(fixed) {
		t.Errorf("TimeModified = %v, expected %v", states[0].TimeModified, fixed)
	}
}
