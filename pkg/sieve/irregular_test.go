package sieve

import (
	"errors"
	"testing"
)

func TestMergeDerivedWordIntoStem(t *testing.T) {
	e := New().Add("I go. We went. It is gone.").MergeSuffixes()
	if _, err := e.MergeDerivedWordIntoStem([][]string{{"go", "went", "gone"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := e.Flatten()
	goEntry, ok := entryFor(entries, "go")
	if !ok {
		t.Fatalf("expected go entry, got %v", entryWords(entries))
	}
	if goEntry.Frequency() != 3 {
		t.Errorf("go has frequency %d, expected 3", goEntry.Frequency())
	}
	for _, w := range []string{"went", "gone"} {
		if _, ok := entryFor(entries, w); ok {
			t.Errorf("%q must not be listed on its own", w)
		}
	}
}

func TestIrregularStemPlaceholder(t *testing.T) {
	e := New().Add("they went and had gone")
	rows := [][]string{
		{"go", "went", "gone"},
		{"be", "was", "were", "been"},
	}
	if _, err := e.MergeDerivedWordIntoStem(rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := e.Flatten()
	goEntry, ok := entryFor(entries, "go")
	if !ok {
		t.Fatalf("expected a placeholder go entry, got %v", entryWords(entries))
	}
	if goEntry.Sequence != 2 || goEntry.Frequency() != 2 {
		t.Errorf("unexpected go entry %+v", goEntry)
	}
	if goEntry.Vocab == nil || !goEntry.Vocab.Original {
		t.Error("placeholder stem should carry an original state")
	}
	if _, ok := e.Label("be"); ok {
		t.Error("no stem should be created when none of its forms occur")
	}
}

func TestIrregularLookupIgnoresCase(t *testing.T) {
	e := New().Add("Went home, then Children played with the child")
	rows := [][]string{{"Go", "WENT"}, {"child", "children"}}
	if _, err := e.MergeDerivedWordIntoStem(rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := e.Flatten()
	for _, stem := range []string{"Go", "child"} {
		if _, ok := entryFor(entries, stem); !ok {
			t.Errorf("expected entry %q in %v", stem, entryWords(entries))
		}
	}
	child, _ := entryFor(entries, "child")
	if child.Frequency() != 2 {
		t.Errorf("child has frequency %d, expected 2", child.Frequency())
	}
}

func TestIrregularRejectsMalformedRows(t *testing.T) {
	e := New().Add("we went home")
	_, err := e.MergeDerivedWordIntoStem([][]string{{"go", "went"}, {"be"}})
	if !errors.Is(err, ErrMalformedIrregular) {
		t.Fatalf("expected ErrMalformedIrregular, got %v", err)
	}
	went, _ := e.Label("went")
	if went.Variant {
		t.Error("no row may be applied when the table is malformed")
	}
	if _, err := Build([]string{"we went"}, nil, [][]string{{}}); !errors.Is(err, ErrMalformedIrregular) {
		t.Errorf("Build should reject the table, got %v", err)
	}
}

func TestIrregularRejectsBlankEntries(t *testing.T) {
	testCases := []struct {
		rows        [][]string
		description string
	}{
		{[][]string{{"", "went"}}, "blank stem"},
		{[][]string{{"go", "went", ""}}, "blank variant"},
		{[][]string{{"go", "went"}, {" ", "children"}}, "whitespace stem in a later row"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			e := New().Add("we went home with the children")
			if _, err := e.MergeDerivedWordIntoStem(tc.rows); !errors.Is(err, ErrMalformedIrregular) {
				t.Fatalf("expected ErrMalformedIrregular, got %v", err)
			}
			for _, en := range e.Flatten() {
				if en.Word == "" {
					t.Errorf("blank entry emitted: %+v", en)
				}
			}
			if went, _ := e.Label("went"); went.Variant {
				t.Error("no row may be applied when the table is malformed")
			}
		})
	}
}

func TestIrregularSkipsSettledVariants(t *testing.T) {
	e := New().Add("the mice and a mouse, and more mices").MergeSuffixes()
	if _, err := e.MergeDerivedWordIntoStem([][]string{{"mouse", "mice", "mices"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mouse, ok := entryFor(e.Flatten(), "mouse")
	if !ok {
		t.Fatal("expected mouse entry")
	}
	// mices was folded into mice by the suffix pass and travels with it.
	if mouse.Frequency() != 3 {
		t.Errorf("mouse has frequency %d, expected 3", mouse.Frequency())
	}
}
