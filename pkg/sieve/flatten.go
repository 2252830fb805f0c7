package sieve

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMinTargetLength is the shortest word, in runes, that is offered
// as a learning target.
const DefaultMinTargetLength = 3

// Phase is the learning phase of an entry.
type Phase int

const (
	PhaseNew Phase = iota
	PhaseAcquainted
)

func (p Phase) String() string {
	if p == PhaseAcquainted {
		return "acquainted"
	}
	return "new"
}

// Entry is one canonical word of the flattened output.
type Entry struct {
	Word      string       `msgpack:"w" json:"word"`
	WFamily   []string     `msgpack:"wf,omitempty" json:"wFamily,omitempty"`
	Sequence  int          `msgpack:"q" json:"sequence"`
	Locations []Occurrence `msgpack:"src" json:"src"`
	Derived   []string     `msgpack:"d,omitempty" json:"derive,omitempty"`
	Vocab     *VocabState  `msgpack:"vocab,omitempty" json:"vocab,omitempty"`
}

// Frequency is the number of occurrences aggregated under the entry.
func (en Entry) Frequency() int {
	return len(en.Locations)
}

// Phase returns PhaseAcquainted when the stored state marks the word as known.
func (en Entry) Phase() Phase {
	if en.Vocab != nil && en.Vocab.Acquainted {
		return PhaseAcquainted
	}
	return PhaseNew
}

// Flatten lists the canonical entries in discovery order. Variants never
// appear on their own; their occurrences are folded into their stem.
func (e *Engine) Flatten() []Entry {
	owner := e.owners()
	seen := make([]bool, len(e.labels))
	out := make([]Entry, 0, len(e.index))
	for seq, id := range e.index {
		if id == 0 {
			continue
		}
		if e.labels[id].Variant {
			if id = owner[id]; id == 0 {
				continue
			}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, e.entry(id, seq))
	}
	return out
}

func (e *Engine) entry(id LabelID, seq int) Entry {
	l := e.labels[id]
	en := Entry{
		Word:     l.W,
		WFamily:  append([]string(nil), l.WFamily...),
		Sequence: seq,
		Vocab:    l.Vocab.clone(),
	}
	en.Locations = append(en.Locations, l.Src...)
	var collect func(id LabelID)
	collect = func(id LabelID) {
		for _, d := range e.labels[id].Derive {
			dl := e.labels[d]
			en.Derived = append(en.Derived, dl.W)
			en.Locations = append(en.Locations, dl.Src...)
			collect(d)
		}
	}
	collect(id)
	sort.SliceStable(en.Locations, func(i, j int) bool {
		a, b := en.Locations[i], en.Locations[j]
		if a.SentenceID != b.SentenceID {
			return a.SentenceID < b.SentenceID
		}
		return a.StartIndex < b.StartIndex
	})
	return en
}

// Segregate flattens the engine and splits the result into target words
// to learn and words already marked as acquainted.
func (e *Engine) Segregate(minLen int) (target, common []Entry) {
	return Partition(e.Flatten(), minLen)
}

// Partition splits entries into the target and common buckets. An entry
// is common when its state marks it acquainted; otherwise it is a target
// when it occurs in the text and has at least minLen runes. A minLen below
// one falls back to DefaultMinTargetLength.
func Partition(entries []Entry, minLen int) (target, common []Entry) {
	if minLen < 1 {
		minLen = DefaultMinTargetLength
	}
	for _, en := range entries {
		switch {
		case en.Phase() == PhaseAcquainted:
			common = append(common, en)
		case len(en.Locations) > 0 && utf8.RuneCountInString(en.Word) >= minLen:
			target = append(target, en)
		}
	}
	return target, common
}

// Segment names a listing of flattened entries.
type Segment string

const (
	SegmentAll        Segment = "all"
	SegmentTarget     Segment = "target"
	SegmentCommon     Segment = "common"
	SegmentNew        Segment = "new"
	SegmentAcquainted Segment = "acquainted"
	SegmentMine       Segment = "mine" // acquainted words the user added
	SegmentTop        Segment = "top"  // acquainted words from the shared list
)

// ErrUnknownSegment is returned by ParseSegment.
var ErrUnknownSegment = errors.New("unknown segment")

// ParseSegment maps a listing name to a Segment. Empty means all.
func ParseSegment(name string) (Segment, error) {
	switch seg := Segment(strings.ToLower(strings.TrimSpace(name))); seg {
	case "":
		return SegmentAll, nil
	case SegmentAll, SegmentTarget, SegmentCommon, SegmentNew, SegmentAcquainted, SegmentMine, SegmentTop:
		return seg, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSegment, name)
}

// Select returns the entries of seg, keeping their order. minLen only
// applies to the target segment.
func Select(entries []Entry, seg Segment, minLen int) []Entry {
	var keep func(Entry) bool
	switch seg {
	case SegmentTarget:
		target, _ := Partition(entries, minLen)
		return target
	case SegmentCommon:
		_, common := Partition(entries, minLen)
		return common
	case SegmentNew:
		keep = func(en Entry) bool { return en.Phase() == PhaseNew }
	case SegmentAcquainted:
		keep = func(en Entry) bool { return en.Phase() == PhaseAcquainted }
	case SegmentMine:
		keep = func(en Entry) bool { return en.Phase() == PhaseAcquainted && en.Vocab.IsUser }
	case SegmentTop:
		keep = func(en Entry) bool { return en.Phase() == PhaseAcquainted && !en.Vocab.IsUser }
	default:
		return entries
	}
	var out []Entry
	for _, en := range entries {
		if keep(en) {
			out = append(out, en)
		}
	}
	return out
}
