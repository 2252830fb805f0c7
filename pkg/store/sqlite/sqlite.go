// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/bastiangx/wordsieve/pkg/store"
)

// Store implements store.Store using SQLite
type Store struct {
	db     *sql.DB
	maxLen int
	now    func() time.Time
}

// Open opens a SQLite database with WAL mode enabled and creates the
// schema when missing. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// each pooled connection would see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Debugf("Opened vocabulary store at %s", path)

	return &Store{db: db, maxLen: store.DefaultMaxWordLength, now: time.Now}, nil
}

// SetMaxWordLength changes the longest word accepted by mutations.
func (s *Store) SetMaxWordLength(n int) {
	s.maxLen = n
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS words (
	word TEXT PRIMARY KEY,
	rank INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_words (
	owner TEXT NOT NULL,
	word TEXT NOT NULL,
	acquainted INTEGER NOT NULL DEFAULT 0,
	time_modified TEXT NOT NULL,
	PRIMARY KEY(owner, word)
);

CREATE INDEX IF NOT EXISTS idx_user_words_owner ON user_words(owner);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Words implements store.Store.
func (s *Store) Words(ctx context.Context, user string) ([]sieve.VocabState, error) {
	var out []sieve.VocabState

	rows, err := s.db.QueryContext(ctx, `
SELECT w.word, w.rank, u.acquainted, u.time_modified
FROM words w
LEFT JOIN user_words u ON u.word = w.word AND u.owner = ?
ORDER BY w.rank, w.word`, user)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			word       string
			rank       int
			acquainted sql.NullBool
			modified   sql.NullString
		)
		if err := rows.Scan(&word, &rank, &acquainted, &modified); err != nil {
			rows.Close()
			return nil, err
		}
		st := sieve.VocabState{Word: word, Rank: sieve.Rank(rank), InStore: true, Acquainted: acquainted.Bool}
		if st.TimeModified, err = parseTime(modified); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, st)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
SELECT u.word, u.acquainted, u.time_modified
FROM user_words u
WHERE u.owner = ? AND u.word NOT IN (SELECT word FROM words)
ORDER BY u.word`, user)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			word       string
			acquainted bool
			modified   sql.NullString
		)
		if err := rows.Scan(&word, &acquainted, &modified); err != nil {
			rows.Close()
			return nil, err
		}
		st := sieve.VocabState{Word: word, Acquainted: acquainted, IsUser: true, InStore: true}
		if st.TimeModified, err = parseTime(modified); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, st)
	}
	return out, closeRows(rows)
}

// Acquaint implements store.Store.
func (s *Store) Acquaint(ctx context.Context, user, word string) error {
	_, err := s.AcquaintAll(ctx, user, []string{word})
	return err
}

// AcquaintAll implements store.Store inside a single transaction.
func (s *Store) AcquaintAll(ctx context.Context, user string, words []string) (int, error) {
	if err := store.ValidateUser(user); err != nil {
		return 0, err
	}
	clean := make([]string, 0, len(words))
	for _, w := range words {
		v, err := store.ValidateWord(w, s.maxLen)
		if err != nil {
			return 0, err
		}
		clean = append(clean, v)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO user_words(owner, word, acquainted, time_modified) VALUES(?, ?, 1, ?)
ON CONFLICT(owner, word) DO UPDATE SET acquainted = 1, time_modified = excluded.time_modified
WHERE user_words.acquainted = 0`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := s.now().UTC().Format(time.RFC3339Nano)
	changed := 0
	for _, w := range clean {
		res, err := stmt.ExecContext(ctx, user, w, now)
		if err != nil {
			return 0, fmt.Errorf("acquaint %q: %w", w, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		changed += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return changed, nil
}

// Revoke implements store.Store.
func (s *Store) Revoke(ctx context.Context, user, word string) error {
	if err := store.ValidateUser(user); err != nil {
		return err
	}
	w, err := store.ValidateWord(word, s.maxLen)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_words WHERE owner = ? AND word = ?`, user, w)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpsertRanked implements store.Store.
func (s *Store) UpsertRanked(ctx context.Context, words []store.RankedWord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rw := range words {
		w, err := store.ValidateWord(rw.Word, s.maxLen)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO words(word, rank) VALUES(?, ?)
ON CONFLICT(word) DO UPDATE SET rank = excluded.rank`, w, rw.Rank); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("bad time_modified %q: %w", s.String, err)
	}
	return &t, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
