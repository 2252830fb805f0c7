package sieve

import (
	"time"

	"github.com/charmbracelet/log"
)

// MergeSuffixes folds inflected forms into their stems with a post-order
// walk over the trie, so longer words are settled before their prefixes.
// Running it again without new text changes nothing.
func (e *Engine) MergeSuffixes() *Engine {
	start := time.Now()
	before := e.variantCount()
	e.traverseMerge(0, 0)
	e.reindex()
	log.Debugf("sieve: suffix pass folded %d forms in %v", e.variantCount()-before, time.Since(start))
	return e
}

func (e *Engine) traverseMerge(layer NodeID, layerKey rune) {
	for _, c := range e.trie.children(layer) {
		e.traverseMerge(c.child, c.r)
		e.mergeSuffixesAt(c.child, c.r, layer, layerKey)
	}
}

// mergeSuffixesAt handles the word spelled by the path to curr, whose last
// rune is prev and whose second to last rune is beforePrev.
func (e *Engine) mergeSuffixesAt(curr NodeID, prev rune, parent NodeID, beforePrev rune) {
	isPrevS := prev == 's'
	consonant := !isVowel(prev)

	cur := e.labelOf(curr)
	curE := e.at(curr, "e")
	var curS LabelID
	if !isPrevS {
		curS = e.at(curr, "s")
	}
	in := e.trie.find(curr, "in")
	var ing NodeID
	if in != 0 {
		ing = e.trie.child(in, 'g')
	}
	curIng := e.labelOf(ing)
	var curYing LabelID
	if consonant {
		curYing = e.at(curr, "ying")
	}

	suffixes := func() []LabelID {
		ls := []LabelID{e.at(curr, "es"), e.at(curr, "es'"), e.at(curr, "ed")}
		if in != 0 {
			ls = append(ls, e.at(in, "'"), e.at(in, "’"))
			if ing != 0 {
				ls = append(ls, curIng, e.at(ing, "s"))
			}
		}
		return ls
	}
	apostrophes := func(target LabelID) {
		for _, a := range []rune{'\'', '’'} {
			if n := e.trie.child(curr, a); n != 0 {
				e.batchMergeTo(target, e.at(n, "s"), e.at(n, "ll"), e.at(n, "ve"), e.at(n, "d"))
			}
		}
	}

	if curIng != 0 {
		e.batchMergeTo(curIng, e.at(in, "'"), e.at(in, "’"))
	}

	switch {
	case cur != 0:
		target := cur
		if curE != 0 {
			target = curE
		}
		e.batchMergeTo(target, suffixes()...)

		merged := []LabelID{curS, e.at(curr, "er"), e.at(curr, "est"), e.at(curr, "ly"), e.at(curr, "less"), e.at(curr, "ness")}
		if prev == 'e' {
			merged = append(merged, e.at(parent, "den"))
		} else if consonant {
			if isVowel(beforePrev) {
				if dbl := e.trie.child(curr, prev); dbl != 0 {
					merged = append(merged, e.at(dbl, "ing"), e.at(dbl, "in'"), e.at(dbl, "in’"), e.at(dbl, "ed"))
				}
			} else if prev == 'y' {
				merged = append(merged,
					e.at(parent, "ies"), e.at(parent, "ies'"), e.at(parent, "ied"),
					e.at(parent, "ier"), e.at(parent, "iest"), e.at(parent, "ily"))
			}
		}
		if !isPrevS {
			merged = append(merged, e.at(curr, "s'"), e.at(curr, "s’"))
		}
		e.batchMergeTo(cur, merged...)
		apostrophes(cur)

	case curE != 0:
		e.batchMergeTo(curE, suffixes()...)

	case curS != 0:
		// Only the plural was seen: fabricate the singular if anything folds into it.
		s := e.labels[curS]
		stem := e.newLabel(&Label{W: dropLast(s.W, 1), Up: s.Up})
		e.batchMergeTo(stem, suffixes()...)
		apostrophes(stem)
		if len(e.labels[stem].Derive) == 0 {
			e.dropLabel(stem)
			return
		}
		e.mergeNodes(stem, curS)
		e.trie.nodes[curr].label = stem
		e.mergeSuffixesAt(curr, prev, parent, beforePrev)

	case curYing != 0:
		y := e.trie.child(curr, 'y')
		if y == 0 || e.trie.nodes[y].label != 0 {
			return
		}
		ying := e.labels[curYing]
		stem := e.newLabel(&Label{W: dropLast(ying.W, 3), Up: ying.Up})
		e.batchMergeTo(stem, e.at(curr, "ies"), e.at(curr, "ied"))
		if len(e.labels[stem].Derive) == 0 {
			e.dropLabel(stem)
			return
		}
		e.mergeNodes(stem, curYing)
		e.trie.nodes[y].label = stem
		e.mergeSuffixesAt(y, 'y', curr, prev)
	}
}

func (e *Engine) batchMergeTo(target LabelID, candidates ...LabelID) {
	for _, c := range candidates {
		if c != 0 {
			e.mergeNodes(target, c)
		}
	}
}

// mergeNodes folds latter into target unless latter is an irregular
// placeholder or already belongs to another stem.
func (e *Engine) mergeNodes(target, latter LabelID) {
	l := e.labels[latter]
	if l.Variant || (l.Vocab != nil && l.Vocab.Original) {
		return
	}
	e.mergeTo(target, latter)
}

// mergeTo records latter as a derived form of target. A variant never
// becomes a target, which keeps derive trees acyclic.
func (e *Engine) mergeTo(target, latter LabelID) bool {
	if target == latter {
		return false
	}
	t, l := e.labels[target], e.labels[latter]
	if t.Variant {
		return false
	}
	if len(t.Derive) == 0 && len(t.Src) == 0 && len(l.Src) > 0 {
		// A stem without occurrences of its own takes over the slot of
		// the first form folded into it.
		e.index[l.Src[0].Sequence] = target
	}
	t.Derive = append(t.Derive, latter)
	l.Variant = true
	return true
}

// owners maps every variant to the non-variant label at the root of its
// derive tree.
func (e *Engine) owners() []LabelID {
	owner := make([]LabelID, len(e.labels))
	var mark func(root, id LabelID)
	mark = func(root, id LabelID) {
		for _, d := range e.labels[id].Derive {
			owner[d] = root
			mark(root, d)
		}
	}
	for id := 1; id < len(e.labels); id++ {
		if !e.labels[id].Variant {
			mark(LabelID(id), LabelID(id))
		}
	}
	return owner
}

// reindex points every sequence slot held by a variant at its stem.
func (e *Engine) reindex() {
	owner := e.owners()
	for seq, id := range e.index {
		if id != 0 && e.labels[id].Variant && owner[id] != 0 {
			e.index[seq] = owner[id]
		}
	}
}

func (e *Engine) variantCount() int {
	n := 0
	for _, l := range e.labels[1:] {
		if l.Variant {
			n++
		}
	}
	return n
}
