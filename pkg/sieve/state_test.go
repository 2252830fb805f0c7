package sieve

import (
	"reflect"
	"testing"
	"time"
)

func TestMergedVocabularyCaseResolution(t *testing.T) {
	testCases := []struct {
		text        string
		states      []VocabState
		word        string
		rank        int
		vocabWord   string
		description string
	}{
		{
			text:        "Apple pie.",
			states:      []VocabState{{Word: "Apple", Rank: Rank(5)}, {Word: "apple", Rank: Rank(50)}},
			word:        "apple",
			rank:        5,
			description: "lowercase state arrives last",
		},
		{
			text:        "Apple pie.",
			states:      []VocabState{{Word: "apple", Rank: Rank(50)}, {Word: "Apple", Rank: Rank(5)}},
			word:        "apple",
			rank:        5,
			description: "lowercase state arrives first",
		},
		{
			text:        "Apple pie.",
			states:      []VocabState{{Word: "Apple", Rank: Rank(50)}, {Word: "APPLE", Rank: Rank(5)}},
			word:        "Apple",
			rank:        5,
			description: "both uppercase, lower rank wins",
		},
		{
			text:        "Apple pie.",
			states:      []VocabState{{Word: "Apple"}, {Word: "apple", Rank: Rank(7)}},
			word:        "apple",
			rank:        7,
			description: "missing rank never wins",
		},
		{
			text:        "apple pie.",
			states:      []VocabState{{Word: "Apple", Rank: Rank(5)}, {Word: "apple", Rank: Rank(50)}},
			word:        "apple",
			rank:        5,
			vocabWord:   "apple",
			description: "lowercase text keeps its spelling in the state",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			entries := New().Add(tc.text).MergedVocabulary(tc.states).Flatten()
			en, ok := entryFor(entries, tc.word)
			if !ok {
				t.Fatalf("expected entry %q, got %v", tc.word, entryWords(entries))
			}
			if en.Vocab == nil || en.Vocab.Rank == nil || *en.Vocab.Rank != tc.rank {
				t.Errorf("expected rank %d, got %+v", tc.rank, en.Vocab)
			}
			if len(en.WFamily) != 2 {
				t.Errorf("expected both spellings in the family, got %v", en.WFamily)
			}
			if tc.vocabWord != "" && en.Vocab.Word != tc.vocabWord {
				t.Errorf("expected state word %q, got %q", tc.vocabWord, en.Vocab.Word)
			}
		})
	}
}

func TestMergedVocabularyTakesLatestFlags(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	states := []VocabState{
		{Word: "river", Rank: Rank(300), InStore: true},
		{Word: "river", Acquainted: true, IsUser: true, InStore: true, TimeModified: &now},
	}
	en, ok := entryFor(New().Add("the river bends").MergedVocabulary(states).Flatten(), "river")
	if !ok {
		t.Fatal("expected river entry")
	}
	v := en.Vocab
	if !v.Acquainted || !v.IsUser || v.TimeModified == nil || !v.TimeModified.Equal(now) {
		t.Errorf("flags should come from the newest state, got %+v", v)
	}
	if v.Rank == nil || *v.Rank != 300 {
		t.Errorf("rank should survive a state without rank, got %v", v.Rank)
	}
	if len(en.WFamily) != 0 {
		t.Errorf("identical spellings must not form a family, got %v", en.WFamily)
	}
}

func TestMergedVocabularyDoesNotMutateInput(t *testing.T) {
	states := []VocabState{
		{Word: "Paris", Rank: Rank(40)},
		{Word: "paris", Rank: Rank(10), Acquainted: true},
	}
	before := []VocabState{
		{Word: "Paris", Rank: Rank(40)},
		{Word: "paris", Rank: Rank(10), Acquainted: true},
	}
	e := New().Add("Paris in spring").MergedVocabulary(states)
	if !reflect.DeepEqual(states, before) {
		t.Errorf("input states changed: %+v", states)
	}

	l, _ := e.Label("paris")
	*l.Vocab.Rank = 99
	if *states[1].Rank != 10 {
		t.Error("label state must not alias the caller's rank")
	}
}

func TestMergedVocabularyFoldsSuffixes(t *testing.T) {
	e := New().Add("two dogs").MergedVocabulary([]VocabState{{Word: "dog", Acquainted: true}})
	entries := e.Flatten()
	dog, ok := entryFor(entries, "dog")
	if !ok {
		t.Fatalf("expected dog entry, got %v", entryWords(entries))
	}
	if dog.Frequency() != 1 || dog.Phase() != PhaseAcquainted {
		t.Errorf("unexpected dog entry %+v", dog)
	}
}
