package sieve

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

// ErrBadSnapshot is returned when a snapshot cannot be decoded into a
// consistent engine.
var ErrBadSnapshot = errors.New("bad engine snapshot")

type snapshotEdge struct {
	R rune   `msgpack:"r"`
	C NodeID `msgpack:"c"`
}

type snapshotNode struct {
	Edges []snapshotEdge `msgpack:"e"`
	Label LabelID        `msgpack:"l"`
}

type snapshot struct {
	Version   int            `msgpack:"v"`
	Nodes     []snapshotNode `msgpack:"n"`
	Labels    []*Label       `msgpack:"lb"`
	Sentences []string       `msgpack:"s"`
	Index     []LabelID      `msgpack:"ix"`
	Sequence  int            `msgpack:"q"`
	WordCount int            `msgpack:"wc"`
}

// WriteSnapshot encodes the engine as zstd-compressed msgpack.
func (e *Engine) WriteSnapshot(w io.Writer) error {
	snap := snapshot{
		Version:   snapshotVersion,
		Nodes:     make([]snapshotNode, len(e.trie.nodes)),
		Labels:    e.labels,
		Sentences: e.sentences,
		Index:     e.index,
		Sequence:  e.sequence,
		WordCount: e.wordCount,
	}
	for i := range e.trie.nodes {
		n := NodeID(i)
		sn := snapshotNode{Label: e.trie.nodes[i].label}
		for _, c := range e.trie.children(n) {
			sn.Edges = append(sn.Edges, snapshotEdge{R: c.r, C: c.child})
		}
		snap.Nodes[i] = sn
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(&snap); err != nil {
		zw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return zw.Close()
}

// ReadSnapshot decodes an engine written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Engine, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var snap snapshot
	if err := msgpack.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadSnapshot, snap.Version)
	}
	if len(snap.Nodes) == 0 || len(snap.Labels) == 0 {
		return nil, fmt.Errorf("%w: empty arena", ErrBadSnapshot)
	}

	e := &Engine{
		trie:      trie{nodes: make([]node, len(snap.Nodes))},
		labels:    snap.Labels,
		sentences: snap.Sentences,
		index:     snap.Index,
		sequence:  snap.Sequence,
		wordCount: snap.WordCount,
	}
	if len(e.index) == 0 {
		e.index = make([]LabelID, 1)
	}
	validLabel := func(id LabelID) bool {
		return id >= 0 && int(id) < len(e.labels) && (id == 0 || e.labels[id] != nil)
	}
	for i, sn := range snap.Nodes {
		if !validLabel(sn.Label) {
			return nil, fmt.Errorf("%w: node %d references label %d", ErrBadSnapshot, i, sn.Label)
		}
		e.trie.nodes[i].label = sn.Label
		for _, ed := range sn.Edges {
			if ed.C <= 0 || int(ed.C) >= len(snap.Nodes) {
				return nil, fmt.Errorf("%w: node %d has child %d", ErrBadSnapshot, i, ed.C)
			}
			if s := slot(ed.R); s >= 0 {
				e.trie.nodes[i].next[s] = ed.C
			} else {
				e.trie.nodes[i].extra = append(e.trie.nodes[i].extra, edge{r: ed.R, child: ed.C})
			}
		}
	}
	parent := make([]LabelID, len(e.labels))
	for id := 1; id < len(e.labels); id++ {
		l := e.labels[id]
		if l == nil {
			return nil, fmt.Errorf("%w: label %d missing", ErrBadSnapshot, id)
		}
		for _, d := range l.Derive {
			if d <= 0 || !validLabel(d) {
				return nil, fmt.Errorf("%w: label %d derives %d", ErrBadSnapshot, id, d)
			}
			if parent[d] != 0 {
				return nil, fmt.Errorf("%w: label %d derived by both %d and %d", ErrBadSnapshot, d, parent[d], id)
			}
			parent[d] = LabelID(id)
		}
		for _, occ := range l.Src {
			if occ.Sequence <= 0 || occ.Sequence >= len(e.index) {
				return nil, fmt.Errorf("%w: label %d has sequence %d outside index", ErrBadSnapshot, id, occ.Sequence)
			}
		}
	}
	if id := derivedCycle(e.labels, parent); id != 0 {
		return nil, fmt.Errorf("%w: label %d derives itself", ErrBadSnapshot, id)
	}
	for _, id := range e.index {
		if !validLabel(id) {
			return nil, fmt.Errorf("%w: index references label %d", ErrBadSnapshot, id)
		}
	}
	return e, nil
}

// derivedCycle returns a label that cannot be reached from a parentless
// label through Derive, or 0. With one parent per label, such a label
// sits on a cycle.
func derivedCycle(labels []*Label, parent []LabelID) LabelID {
	seen := make([]bool, len(labels))
	var stack []LabelID
	for id := 1; id < len(labels); id++ {
		if parent[id] == 0 {
			seen[id] = true
			stack = append(stack, LabelID(id))
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range labels[id].Derive {
			if !seen[d] {
				seen[d] = true
				stack = append(stack, d)
			}
		}
	}
	for id := 1; id < len(labels); id++ {
		if !seen[id] {
			return LabelID(id)
		}
	}
	return 0
}
