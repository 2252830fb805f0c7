package sieve

import (
	"strings"

	"github.com/charmbracelet/log"
)

// MergedVocabulary overlays stored states onto the trie, then runs the
// suffix pass. States for words absent from the text still get a label so
// later text can pick them up.
func (e *Engine) MergedVocabulary(states []VocabState) *Engine {
	for i := range states {
		e.overlay(&states[i])
	}
	log.Debugf("sieve: overlaid %d vocabulary states", len(states))
	return e.MergeSuffixes()
}

func (e *Engine) overlay(st *VocabState) {
	if st.Word == "" {
		return
	}
	up := hasUppercase(st.Word)
	key := st.Word
	if up {
		key = strings.ToLower(key)
	}
	n := e.GetNode(key)
	incoming := st.clone()

	id := e.trie.nodes[n].label
	if id == 0 {
		e.trie.nodes[n].label = e.newLabel(&Label{W: st.Word, Up: up, Vocab: incoming})
		return
	}

	l := e.labels[id]
	if l.Vocab == nil {
		l.Vocab = incoming
	} else {
		prev := l.Vocab
		if prev.Word != incoming.Word {
			l.WFamily = appendUnique(l.WFamily, prev.Word, incoming.Word)
		}
		merged := prev.clone()
		if l.Up && up && lowerRank(incoming.Rank, prev.Rank) {
			merged = incoming.clone()
		}
		merged.Acquainted = incoming.Acquainted
		merged.IsUser = incoming.IsUser
		merged.InStore = incoming.InStore
		merged.TimeModified = incoming.TimeModified
		merged.Rank = minRank(prev.Rank, incoming.Rank)
		merged.Original = prev.Original || incoming.Original
		if !l.Up {
			merged.Word = l.W
		}
		l.Vocab = merged
	}

	if l.Up && !up {
		l.W = st.Word
		l.Up = false
		l.Vocab.Word = st.Word
	}
}

// lowerRank reports whether a is a better (numerically lower) rank than b.
// A missing rank never wins.
func lowerRank(a, b *int) bool {
	if a == nil {
		return false
	}
	return b == nil || *a < *b
}

func minRank(a, b *int) *int {
	if lowerRank(b, a) {
		a = b
	}
	if a == nil {
		return nil
	}
	r := *a
	return &r
}

func appendUnique(list []string, words ...string) []string {
	for _, w := range words {
		dup := false
		for _, have := range list {
			if have == w {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, w)
		}
	}
	return list
}
