package vocab

import (
	"sort"
	"strings"

	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Index answers prefix and exact lookups over flattened entries. Derived
// forms and alternate spellings resolve to their canonical entry.
type Index struct {
	trie    *patricia.Trie
	entries []sieve.Entry
}

// NewIndex builds an index over entries.
func NewIndex(entries []sieve.Entry) *Index {
	ix := &Index{trie: patricia.NewTrie(), entries: entries}
	for i, en := range entries {
		ix.trie.Set(patricia.Prefix(strings.ToLower(en.Word)), i)
	}
	// canonical words are set first so a derived spelling never shadows one
	for i, en := range entries {
		for _, w := range append(append([]string(nil), en.Derived...), en.WFamily...) {
			ix.trie.Insert(patricia.Prefix(strings.ToLower(w)), i)
		}
	}
	return ix
}

// Len is the number of canonical entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Get resolves word, or any form folded into it, to its entry.
func (ix *Index) Get(word string) (sieve.Entry, bool) {
	item := ix.trie.Get(patricia.Prefix(strings.ToLower(word)))
	if item == nil {
		return sieve.Entry{}, false
	}
	return ix.entries[item.(int)], true
}

// Lookup returns up to limit entries having a form that starts with
// prefix, most frequent first. A limit below one returns every match.
func (ix *Index) Lookup(prefix string, limit int) []sieve.Entry {
	seen := make(map[int]bool)
	var hits []int
	err := ix.trie.VisitSubtree(patricia.Prefix(strings.ToLower(prefix)), func(p patricia.Prefix, item patricia.Item) error {
		i := item.(int)
		if !seen[i] {
			seen[i] = true
			hits = append(hits, i)
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error searching vocabulary index: %v", err)
	}

	sort.Slice(hits, func(a, b int) bool {
		ea, eb := ix.entries[hits[a]], ix.entries[hits[b]]
		if ea.Frequency() != eb.Frequency() {
			return ea.Frequency() > eb.Frequency()
		}
		return ea.Sequence < eb.Sequence
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]sieve.Entry, len(hits))
	for k, i := range hits {
		out[k] = ix.entries[i]
	}
	return out
}
