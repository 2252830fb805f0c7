package sieve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrMalformedIrregular is returned when an irregular row has no variants
// or a blank entry.
var ErrMalformedIrregular = errors.New("malformed irregular mapping")

// MergeDerivedWordIntoStem applies an irregular table. Each row is
// [stem, variant1, variant2, ...]; variants seen in the text are folded into
// the stem, which is created as a placeholder when the text never contains
// it. Rows are validated before anything is merged.
func (e *Engine) MergeDerivedWordIntoStem(rows [][]string) (*Engine, error) {
	if err := validateIrregular(rows); err != nil {
		return e, err
	}
	folded := 0
	for _, row := range rows {
		folded += e.mergeIrregular(row)
	}
	e.reindex()
	log.Debugf("sieve: irregular table folded %d forms from %d rows", folded, len(rows))
	return e, nil
}

func validateIrregular(rows [][]string) error {
	for i, row := range rows {
		if len(row) < 2 {
			return fmt.Errorf("%w: row %d has %d entries", ErrMalformedIrregular, i, len(row))
		}
		for j, w := range row {
			if strings.TrimSpace(w) == "" {
				return fmt.Errorf("%w: row %d entry %d is blank", ErrMalformedIrregular, i, j)
			}
		}
	}
	return nil
}

func (e *Engine) mergeIrregular(row []string) int {
	var found []LabelID
	for i := len(row) - 1; i >= 1; i-- {
		n := e.trie.find(0, strings.ToLower(row[i]))
		if id := e.labelOf(n); id != 0 && len(e.labels[id].Src) > 0 && !e.labels[id].Variant {
			found = append(found, id)
		}
	}
	if len(found) == 0 {
		return 0
	}

	word := row[0]
	n := e.GetNode(strings.ToLower(word))
	stem := e.trie.nodes[n].label
	if stem == 0 {
		stem = e.newLabel(&Label{
			W:     word,
			Up:    hasUppercase(word),
			Vocab: &VocabState{Word: word, Original: true},
		})
		e.trie.nodes[n].label = stem
	}

	folded := 0
	for _, id := range found {
		if e.labels[id].Variant {
			continue
		}
		if e.mergeTo(stem, id) {
			folded++
		} else {
			log.Debugf("sieve: %q cannot absorb %q", e.labels[stem].W, e.labels[id].W)
		}
	}
	return folded
}
