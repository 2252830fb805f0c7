/*
Package dictionary loads irregular stem tables.

A table maps a stem to the irregular forms that should be folded into it,
one row per stem:

	irregular:
	  - stem: go
	    variants: [went, gone]
	  - stem: child
	    variants: [children]

Tables can be written as YAML, TOML (an [[irregular]] array of tables with
the same keys) or plain text, where each line lists the stem followed by its
variants. Builtin returns the table shipped with the binary.
*/
package dictionary

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/bastiangx/wordsieve/pkg/sieve"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Table holds irregular rows of the form [stem, variant1, variant2, ...].
type Table [][]string

type tableRow struct {
	Stem     string   `yaml:"stem" toml:"stem"`
	Variants []string `yaml:"variants" toml:"variants"`
}

type tableFile struct {
	Irregular []tableRow `yaml:"irregular" toml:"irregular"`
}

//go:embed irregular.yaml
var builtinYAML []byte

var (
	builtinOnce  sync.Once
	builtinTable Table
)

// Builtin returns a copy of the embedded irregular table.
func Builtin() Table {
	builtinOnce.Do(func() {
		t, err := ParseYAML(builtinYAML)
		if err != nil {
			log.Errorf("Embedded irregular table is invalid: %v", err)
			return
		}
		builtinTable = t
	})
	return builtinTable.Clone()
}

// Load reads a table file, picking the parser from its extension.
func Load(path string) (Table, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}

	var t Table
	switch format {
	case FormatYAML, FormatTOML:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if format == FormatYAML {
			t, err = ParseYAML(data)
		} else {
			t, err = ParseTOML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case FormatText:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if t, err = ParseText(f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	log.Debugf("Loaded %d irregular rows from %s (%s)", len(t), path, format)
	return t, nil
}

// ParseYAML decodes a YAML table.
func ParseYAML(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.table()
}

// ParseTOML decodes a TOML table.
func ParseTOML(data []byte) (Table, error) {
	var f tableFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, err
	}
	return f.table()
}

// ParseText reads one row per line. Entries are separated by whitespace or
// commas; blank lines and lines starting with '#' are skipped.
func ParseText(r io.Reader) (Table, error) {
	var t Table
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		row := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		t = append(t, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, t.Validate()
}

func (f tableFile) table() (Table, error) {
	t := make(Table, 0, len(f.Irregular))
	for _, r := range f.Irregular {
		row := make([]string, 0, len(r.Variants)+1)
		row = append(row, strings.TrimSpace(r.Stem))
		for _, v := range r.Variants {
			row = append(row, strings.TrimSpace(v))
		}
		t = append(t, row)
	}
	return t, t.Validate()
}

// Validate reports the first row with no variants or an empty entry.
func (t Table) Validate() error {
	for i, row := range t {
		if len(row) < 2 {
			return fmt.Errorf("%w: row %d has %d entries", sieve.ErrMalformedIrregular, i, len(row))
		}
		for _, w := range row {
			if strings.TrimSpace(w) == "" {
				return fmt.Errorf("%w: row %d has an empty entry", sieve.ErrMalformedIrregular, i)
			}
		}
	}
	return nil
}

// Merge returns t extended by other. A row of other replaces the row of t
// with the same stem, compared case-insensitively.
func (t Table) Merge(other Table) Table {
	out := t.Clone()
	pos := make(map[string]int, len(out))
	for i, row := range out {
		if len(row) > 0 {
			pos[strings.ToLower(row[0])] = i
		}
	}
	for _, row := range other {
		if len(row) == 0 {
			continue
		}
		row = append([]string(nil), row...)
		if i, ok := pos[strings.ToLower(row[0])]; ok {
			out[i] = row
			continue
		}
		pos[strings.ToLower(row[0])] = len(out)
		out = append(out, row)
	}
	return out
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, row := range t {
		out[i] = append([]string(nil), row...)
	}
	return out
}
