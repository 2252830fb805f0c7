package sieve

import "time"

// LabelID indexes a Label in the engine's label arena. Zero means "no label".
type LabelID int32

// Occurrence is one concrete appearance of a word in the segmented text.
// Offsets and lengths count runes, not bytes.
type Occurrence struct {
	SentenceID int `msgpack:"s" json:"sentenceId"`
	StartIndex int `msgpack:"i" json:"startIndex"`
	WordLength int `msgpack:"l" json:"wordLength"`
	Sequence   int `msgpack:"q" json:"sequence"`
}

// VocabState is the externally persisted learning metadata for a word.
// The engine copies incoming states and never mutates the caller's values.
type VocabState struct {
	Word         string     `msgpack:"w" json:"word"`
	Acquainted   bool       `msgpack:"a" json:"acquainted"`
	IsUser       bool       `msgpack:"u" json:"isUser"`
	InStore      bool       `msgpack:"st" json:"inStore"`
	Rank         *int       `msgpack:"r" json:"rank"`
	TimeModified *time.Time `msgpack:"t" json:"timeModified"`
	// Original marks placeholder states fabricated for irregular stems.
	Original bool `msgpack:"o" json:"original,omitempty"`
}

func (v *VocabState) clone() *VocabState {
	if v == nil {
		return nil
	}
	c := *v
	if v.Rank != nil {
		r := *v.Rank
		c.Rank = &r
	}
	if v.TimeModified != nil {
		t := *v.TimeModified
		c.TimeModified = &t
	}
	return &c
}

// Label is the payload attached to a trie node: the surface form seen in
// text, its occurrences, and the merge bookkeeping.
type Label struct {
	W       string       `msgpack:"w"`
	Up      bool         `msgpack:"up"`
	Src     []Occurrence `msgpack:"src"`
	Derive  []LabelID    `msgpack:"d"`
	Variant bool         `msgpack:"v"`
	Vocab   *VocabState  `msgpack:"vocab"`
	WFamily []string     `msgpack:"wf"`
}

func (l *Label) clone() *Label {
	if l == nil {
		return nil
	}
	c := *l
	c.Src = append([]Occurrence(nil), l.Src...)
	c.Derive = append([]LabelID(nil), l.Derive...)
	c.WFamily = append([]string(nil), l.WFamily...)
	c.Vocab = l.Vocab.clone()
	return &c
}

// Rank returns a pointer to an int, for building VocabState literals.
func Rank(n int) *int {
	return &n
}
