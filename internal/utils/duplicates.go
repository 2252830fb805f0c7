package utils

import (
	"strings"
)

// WordFilter drops case-insensitive duplicates from word lists
type WordFilter struct {
	seen map[string]bool
}

// NewWordFilter creates a filter that has seen nothing yet
func NewWordFilter() *WordFilter {
	return &WordFilter{seen: make(map[string]bool)}
}

// ShouldInclude reports whether word is new, marking it as seen.
// Blank words are never included.
func (f *WordFilter) ShouldInclude(word string) bool {
	key := strings.ToLower(strings.TrimSpace(word))
	if key == "" || f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}

// UniqueWords returns words trimmed, without blanks and without
// case-insensitive repeats, keeping the first spelling seen.
func UniqueWords(words []string) []string {
	f := NewWordFilter()
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f.ShouldInclude(w) {
			out = append(out, strings.TrimSpace(w))
		}
	}
	return out
}
