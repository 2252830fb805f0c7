package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrUnknownFormat is returned for table files with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown table format")

// FileFormat is the encoding of an irregular table file.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatYAML               // irregular: list of {stem, variants}
	FormatTOML               // [[irregular]] tables with stem and variants
	FormatText               // one row per line, whitespace or comma separated
)

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.name
	}
	return "unknown"
}

type formatInfo struct {
	name       string
	extensions []string
}

var supportedFormats = map[FileFormat]formatInfo{
	FormatYAML: {name: "YAML irregular table", extensions: []string{".yaml", ".yml"}},
	FormatTOML: {name: "TOML irregular table", extensions: []string{".toml"}},
	FormatText: {name: "plain text irregular table", extensions: []string{".txt"}},
}

// ValidateFileFormat checks that filename is a non-empty file carrying one of
// format's extensions. Text tables must also hold at least one row.
func ValidateFileFormat(filename string, format FileFormat) error {
	info, ok := supportedFormats[format]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	st, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("stat table %s: %w", filename, err)
	}
	if st.Size() == 0 {
		return fmt.Errorf("table %s is empty", filename)
	}
	if ext := strings.ToLower(filepath.Ext(filename)); !slices.Contains(info.extensions, ext) {
		return fmt.Errorf("table %s: extension %q is not a %s (%v)", filename, ext, info.name, info.extensions)
	}
	if format == FormatText {
		return hasTextRows(filename)
	}
	return nil
}

func hasTextRows(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open table %s: %w", filename, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			log.Debugf("Text table %s has rows", filename)
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read table %s: %w", filename, err)
	}
	return fmt.Errorf("table %s has no rows", filename)
}

// DetectFileFormat maps a table file to its format by extension and
// validates it.
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		if !slices.Contains(info.extensions, ext) {
			continue
		}
		if err := ValidateFileFormat(filename, format); err != nil {
			return FormatUnknown, err
		}
		return format, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
}
