/*
Package store persists per-user vocabulary state.

A store keeps a shared ranked word list plus, per user, the words the user
has marked as acquainted. Words returns both merged into VocabState records
ready to be overlaid on a sieve engine. Implementations live in the
memstore and sqlite subpackages.
*/
package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/wordsieve/pkg/sieve"
)

// DefaultMaxWordLength bounds the words accepted by Acquaint and Revoke.
const DefaultMaxWordLength = 32

// Sentinel errors for common cases
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidWord  = errors.New("invalid word")
	ErrNoUser       = errors.New("no user given")
	ErrUnknownStore = errors.New("unknown store driver")
)

// RankedWord is an entry of the shared word list.
type RankedWord struct {
	Word string
	Rank int
}

// Store is the persistence contract used by sessions and the HTTP API.
type Store interface {
	// Words returns the shared list merged with the user's own records.
	// An empty user yields the shared list only.
	Words(ctx context.Context, user string) ([]sieve.VocabState, error)
	// Acquaint marks a word as acquainted for user.
	Acquaint(ctx context.Context, user, word string) error
	// AcquaintAll marks every word and returns how many records changed.
	AcquaintAll(ctx context.Context, user string, words []string) (int, error)
	// Revoke drops the user's record for word, or returns ErrNotFound.
	Revoke(ctx context.Context, user, word string) error
	// UpsertRanked loads or updates shared ranked words.
	UpsertRanked(ctx context.Context, words []RankedWord) error
	Close() error
}

// ValidateWord trims word and checks it is usable as a store key.
func ValidateWord(word string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxWordLength
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidWord)
	}
	if n := utf8.RuneCountInString(word); n > maxLen {
		return "", fmt.Errorf("%w: %q has %d characters (max %d)", ErrInvalidWord, word, n, maxLen)
	}
	return word, nil
}

// ValidateUser rejects anonymous mutations.
func ValidateUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return ErrNoUser
	}
	return nil
}

// ParseRanked reads a shared word list: one word per line, most common
// first, optionally followed by an explicit rank. Blank lines and lines
// starting with '#' are skipped.
func ParseRanked(r io.Reader) ([]RankedWord, error) {
	var out []RankedWord
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		rank := len(out) + 1
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("line %d: bad rank %q", line, fields[1])
			}
			rank = n
		}
		out = append(out, RankedWord{Word: fields[0], Rank: rank})
	}
	return out, scanner.Err()
}
