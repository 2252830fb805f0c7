package sieve

import "sort"

// NodeID indexes a node in the trie arena. The root is node 0, so a zero
// child reference means "no child".
type NodeID int32

// a-z, ASCII apostrophe, right single quotation mark and hyphen get fixed slots.
const alphabetSize = 29

var alphabet = [alphabetSize]rune{
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
	'\'', '’', '-',
}

type edge struct {
	r     rune
	child NodeID
}

type node struct {
	next  [alphabetSize]NodeID
	extra []edge // runes outside the fixed alphabet, sorted by rune
	label LabelID
}

type trie struct {
	nodes []node
}

func newTrie() trie {
	return trie{nodes: make([]node, 1, 256)}
}

func slot(r rune) int {
	switch {
	case r >= 'a' && r <= 'z':
		return int(r - 'a')
	case r == '\'':
		return 26
	case r == '’':
		return 27
	case r == '-':
		return 28
	}
	return -1
}

func (t *trie) child(n NodeID, r rune) NodeID {
	if i := slot(r); i >= 0 {
		return t.nodes[n].next[i]
	}
	ex := t.nodes[n].extra
	j := sort.Search(len(ex), func(k int) bool { return ex[k].r >= r })
	if j < len(ex) && ex[j].r == r {
		return ex[j].child
	}
	return 0
}

// ensure returns the child of n along r, creating it if needed.
func (t *trie) ensure(n NodeID, r rune) NodeID {
	if c := t.child(n, r); c != 0 {
		return c
	}
	c := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{})
	if i := slot(r); i >= 0 {
		t.nodes[n].next[i] = c
		return c
	}
	ex := t.nodes[n].extra
	j := sort.Search(len(ex), func(k int) bool { return ex[k].r >= r })
	ex = append(ex, edge{})
	copy(ex[j+1:], ex[j:])
	ex[j] = edge{r: r, child: c}
	t.nodes[n].extra = ex
	return c
}

// find walks s from n without creating nodes. It returns 0 when the path
// is missing; an empty s yields n itself.
func (t *trie) find(n NodeID, s string) NodeID {
	for _, r := range s {
		if n = t.child(n, r); n == 0 {
			return 0
		}
	}
	return n
}

// children lists the outgoing edges of n, fixed alphabet first. The result
// is a copy, so callers may grow the arena while iterating.
func (t *trie) children(n NodeID) []edge {
	nd := &t.nodes[n]
	out := make([]edge, 0, len(nd.extra)+4)
	for i, c := range nd.next {
		if c != 0 {
			out = append(out, edge{r: alphabet[i], child: c})
		}
	}
	return append(out, nd.extra...)
}

func (t *trie) clone() trie {
	nodes := make([]node, len(t.nodes))
	copy(nodes, t.nodes)
	for i := range nodes {
		if len(nodes[i].extra) > 0 {
			nodes[i].extra = append([]edge(nil), nodes[i].extra...)
		}
	}
	return trie{nodes: nodes}
}
