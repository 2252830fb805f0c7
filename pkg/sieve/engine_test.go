package sieve

import (
	"reflect"
	"testing"
)

func entryFor(entries []Entry, word string) (Entry, bool) {
	for _, en := range entries {
		if en.Word == word {
			return en, true
		}
	}
	return Entry{}, false
}

func entryWords(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, en := range entries {
		out = append(out, en.Word)
	}
	return out
}

func TestSplitSentences(t *testing.T) {
	testCases := []struct {
		input       string
		expected    []string
		description string
	}{
		{"Hello world. Bye now!", []string{"Hello world.", "Bye now!"}, "two sentences"},
		{"Wait... what happened?", []string{"Wait... what happened?"}, "ellipsis does not split"},
		{"one line\nsecond line", []string{"one line\nsecond line"}, "single line break is joined"},
		{"a", nil, "single letter is not a sentence"},
		{"", nil, "empty input"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := SplitSentences(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("SplitSentences(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSplitWords(t *testing.T) {
	testCases := []struct {
		input       string
		expected    []Token
		description string
	}{
		{"Bye now!", []Token{{"Bye", 0}, {"now", 4}}, "plain words"},
		{"Café au lait", []Token{{"Café", 0}, {"au", 5}, {"lait", 8}}, "offsets count runes"},
		{"the dog's bone", []Token{{"the", 0}, {"dog's", 4}, {"bone", 10}}, "apostrophe stays in word"},
		{"a well-known fact", []Token{{"well-known", 2}, {"fact", 13}}, "hyphenated word, single letters skipped"},
		{"42 is 7", []Token{{"is", 3}}, "digits are not words"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := SplitWords(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("SplitWords(%q) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestCaseOr(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected string
	}{
		{"APPLE", "Apple", "Apple"},
		{"Apple", "aPPLE", "apple"},
		{"ÉTÉ", "été", "été"},
		{"ABC", "a", "aBC"},
	}
	for _, tc := range testCases {
		if got := caseOr(tc.a, tc.b); got != tc.expected {
			t.Errorf("caseOr(%q, %q) = %q, expected %q", tc.a, tc.b, got, tc.expected)
		}
	}
}

func TestAddRecordsOccurrences(t *testing.T) {
	e := New().Add("Hello world. Bye now, world!")

	if got := len(e.Sentences()); got != 2 {
		t.Fatalf("expected 2 sentences, got %d", got)
	}
	if got := e.WordCount(); got != 5 {
		t.Errorf("expected 5 words, got %d", got)
	}

	world, ok := e.Label("world")
	if !ok {
		t.Fatal("expected a label for world")
	}
	expected := []Occurrence{
		{SentenceID: 0, StartIndex: 6, WordLength: 5, Sequence: 2},
		{SentenceID: 1, StartIndex: 9, WordLength: 5, Sequence: 2},
	}
	if !reflect.DeepEqual(world.Src, expected) {
		t.Errorf("world occurrences = %+v, expected %+v", world.Src, expected)
	}

	hello, ok := e.Label("HELLO")
	if !ok || hello.W != "Hello" || !hello.Up {
		t.Errorf("expected upper-flavored label Hello, got %+v", hello)
	}
}

func TestAddResolvesCase(t *testing.T) {
	e := New().Add("APPLE Apple")
	l, _ := e.Label("apple")
	if l.W != "Apple" || !l.Up {
		t.Errorf("after APPLE + Apple: got %q (up=%v), expected Apple", l.W, l.Up)
	}

	e.Add("an apple")
	l, _ = e.Label("apple")
	if l.W != "apple" || l.Up {
		t.Errorf("after lowercase form: got %q (up=%v), expected apple", l.W, l.Up)
	}
	if len(l.Src) != 3 {
		t.Errorf("expected 3 occurrences, got %d", len(l.Src))
	}
}

func TestSequenceStableAcrossAdds(t *testing.T) {
	e := New().Add("dog")
	first, _ := e.Label("dog")
	if first.Src[0].Sequence != 1 {
		t.Fatalf("expected dog to get sequence 1, got %d", first.Src[0].Sequence)
	}

	e.Add("the dog ran")
	dog, _ := e.Label("dog")
	for _, occ := range dog.Src {
		if occ.Sequence != 1 {
			t.Errorf("dog occurrence got sequence %d, expected 1", occ.Sequence)
		}
	}
	ran, _ := e.Label("ran")
	if ran.Src[0].Sequence != 3 {
		t.Errorf("expected ran to get sequence 3, got %d", ran.Src[0].Sequence)
	}

	entries := e.MergeSuffixes().Flatten()
	if got := entryWords(entries); !reflect.DeepEqual(got, []string{"dog", "the", "ran"}) {
		t.Errorf("flatten order = %v", got)
	}
}

func TestLabelAtStateOnlyNodeGetsSequence(t *testing.T) {
	e := New().MergedVocabulary([]VocabState{{Word: "zebra", Rank: Rank(900)}})
	if len(e.Flatten()) != 0 {
		t.Fatal("a state without occurrences must not be listed")
	}

	e.Add("a zebra and two zebras").MergeSuffixes()
	zebra, ok := entryFor(e.Flatten(), "zebra")
	if !ok {
		t.Fatal("expected zebra entry")
	}
	if zebra.Frequency() != 2 || zebra.Vocab == nil || *zebra.Vocab.Rank != 900 {
		t.Errorf("unexpected zebra entry %+v", zebra)
	}
}

func TestClone(t *testing.T) {
	e := New().Add("the cat saw two cats")
	c := e.Clone()
	e.MergeSuffixes()

	if _, ok := entryFor(e.Flatten(), "cats"); ok {
		t.Error("cats should be folded in the merged engine")
	}
	if _, ok := entryFor(c.Flatten(), "cats"); !ok {
		t.Error("clone must not see merges applied after cloning")
	}
}
