package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/wordsieve/pkg/store/memstore"
	"github.com/bastiangx/wordsieve/pkg/vocab"
)

func TestInputHandler(t *testing.T) {
	st := memstore.New()
	session := vocab.NewSession(st, nil, vocab.Options{User: "ana"})
	defer session.Close()

	input := strings.Join([]string{
		"The cats sat on the mat.",
		"",
		":know cat mat",
		":find ca",
		":list common",
		":list later",
		":stats",
		":bogus",
		"A dog ran.",
		":forget mat",
		":q",
		"never added",
	}, "\n")

	h := NewInputHandler(session, strings.NewReader(input), 5, true)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if session.Texts() != 2 {
		t.Errorf("expected 2 texts added, got %d", session.Texts())
	}
	words, err := st.Words(context.Background(), "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 1 || words[0].Word != "cat" || !words[0].Acquainted {
		t.Errorf("expected only cat acquainted, got %+v", words)
	}
	if h.requestCount != 9 {
		t.Errorf("handled %d lines, expected 9", h.requestCount)
	}
}

func TestInputHandlerReset(t *testing.T) {
	session := vocab.NewSession(memstore.New(), nil, vocab.Options{User: "ana"})
	defer session.Close()

	h := NewInputHandler(session, strings.NewReader("one line\n:reset\n"), 0, false)
	if err := h.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if session.Texts() != 0 {
		t.Errorf("expected no texts after :reset, got %d", session.Texts())
	}
}
