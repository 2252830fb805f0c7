/*
Package sieve clusters the words of a text by morphology.

Text is segmented into sentences and words; every word is inserted into a
character trie whose nodes carry a Label (surface form, occurrences, merge
bookkeeping). Merge passes then fold inflected forms into their stems:

	e := sieve.New().Add(text)
	e.MergedVocabulary(states)            // overlay stored VocabState, then fold suffixes
	e.MergeDerivedWordIntoStem(irregular) // apply the irregular stem table
	target, common := e.Segregate(sieve.DefaultMinTargetLength)

All passes mutate the engine in place and return it for chaining. Once a
Label is marked as a variant it is never un-marked and never receives
derived forms of its own. Use Clone to keep the state between passes.

The Engine is not safe for concurrent use; callers serialize access or
rebuild a fresh engine per request.
*/
package sieve

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// Engine owns the trie, the label arena, the segmented sentences and the
// sequence index.
type Engine struct {
	trie      trie
	labels    []*Label // labels[0] is unused
	sentences []string
	index     []LabelID // sequence number -> label
	sequence  int
	wordCount int
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		trie:   newTrie(),
		labels: make([]*Label, 1, 256),
		index:  make([]LabelID, 1, 256),
	}
}

// Add segments text, appending its sentences after the ones already held,
// and inserts every word it contains.
func (e *Engine) Add(text string) *Engine {
	prev := len(e.sentences)
	e.sentences = append(e.sentences, SplitSentences(text)...)
	for id := prev; id < len(e.sentences); id++ {
		for _, tok := range SplitWords(e.sentences[id]) {
			e.wordCount++
			e.update(tok.Word, hasUppercase(tok.Word), tok.Start, id)
		}
	}
	log.Debugf("sieve: added %d sentences, %d words total", len(e.sentences)-prev, e.wordCount)
	return e
}

// GetNode walks the trie along word, creating missing nodes.
func (e *Engine) GetNode(word string) NodeID {
	n := NodeID(0)
	for _, r := range word {
		n = e.trie.ensure(n, r)
	}
	return n
}

// Label returns a copy of the label stored for word, matched case-insensitively.
func (e *Engine) Label(word string) (Label, bool) {
	n := e.trie.find(0, strings.ToLower(word))
	if n == 0 || e.trie.nodes[n].label == 0 {
		return Label{}, false
	}
	return *e.labels[e.trie.nodes[n].label].clone(), true
}

// Sentences returns the segmented sentences; Occurrence.SentenceID indexes it.
func (e *Engine) Sentences() []string {
	return e.sentences
}

// WordCount is the number of word tokens inserted so far.
func (e *Engine) WordCount() int {
	return e.wordCount
}

// Size reports the number of trie nodes and labels.
func (e *Engine) Size() (nodes, labels int) {
	return len(e.trie.nodes), len(e.labels) - 1
}

func (e *Engine) update(word string, up bool, start, sentence int) {
	key := word
	if up {
		key = strings.ToLower(word)
	}
	n := e.GetNode(key)
	occ := Occurrence{SentenceID: sentence, StartIndex: start, WordLength: utf8.RuneCountInString(word)}

	id := e.trie.nodes[n].label
	if id == 0 {
		e.sequence++
		occ.Sequence = e.sequence
		id = e.newLabel(&Label{W: word, Up: up, Src: []Occurrence{occ}})
		e.trie.nodes[n].label = id
		e.setIndex(occ.Sequence, id)
		return
	}

	l := e.labels[id]
	if len(l.Src) > 0 {
		occ.Sequence = l.Src[0].Sequence
	} else {
		e.sequence++
		occ.Sequence = e.sequence
		e.setIndex(occ.Sequence, id)
	}
	l.Src = append(l.Src, occ)

	if l.Up && l.Vocab == nil {
		if up {
			l.W = caseOr(l.W, word)
			l.Up = hasUppercase(l.W)
		} else {
			l.W = word
			l.Up = false
		}
	}
}

func (e *Engine) newLabel(l *Label) LabelID {
	e.labels = append(e.labels, l)
	return LabelID(len(e.labels) - 1)
}

// dropLabel discards the most recently allocated label.
func (e *Engine) dropLabel(id LabelID) {
	if int(id) == len(e.labels)-1 {
		e.labels[id] = nil
		e.labels = e.labels[:id]
	}
}

func (e *Engine) setIndex(seq int, id LabelID) {
	for len(e.index) <= seq {
		e.index = append(e.index, 0)
	}
	e.index[seq] = id
}

// at returns the label reached from n along s, or 0.
func (e *Engine) at(n NodeID, s string) LabelID {
	if n = e.trie.find(n, s); n == 0 {
		return 0
	}
	return e.trie.nodes[n].label
}

func (e *Engine) labelOf(n NodeID) LabelID {
	if n == 0 {
		return 0
	}
	return e.trie.nodes[n].label
}

// Clone returns a deep copy of the engine.
func (e *Engine) Clone() *Engine {
	c := &Engine{
		trie:      e.trie.clone(),
		labels:    make([]*Label, len(e.labels)),
		sentences: append([]string(nil), e.sentences...),
		index:     append([]LabelID(nil), e.index...),
		sequence:  e.sequence,
		wordCount: e.wordCount,
	}
	for i, l := range e.labels {
		c.labels[i] = l.clone()
	}
	return c
}

// Build runs the full pipeline: add every text, overlay the stored states,
// fold suffixes, then apply the irregular table.
func Build(texts []string, states []VocabState, irregular [][]string) (*Engine, error) {
	if err := validateIrregular(irregular); err != nil {
		return nil, err
	}
	e := New()
	for _, t := range texts {
		e.Add(t)
	}
	e.MergedVocabulary(states)
	if _, err := e.MergeDerivedWordIntoStem(irregular); err != nil {
		return nil, err
	}
	return e, nil
}
