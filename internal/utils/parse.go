package utils

import (
	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// LoadTOMLFile decodes configPath into config. On error the caller is
// expected to fall back to ParseTOMLWithRecovery.
func LoadTOMLFile(configPath string, config any) error {
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Warnf("Config %s does not match the schema: %v, trying section by section", configPath, err)
		return err
	}
	return nil
}

// ParseTOMLWithRecovery decodes configPath into a generic tree, so
// well-formed sections survive a type error elsewhere in the file.
func ParseTOMLWithRecovery(configPath string) (map[string]any, error) {
	tree := make(map[string]any)
	if _, err := toml.DecodeFile(configPath, &tree); err != nil {
		log.Warnf("Config %s is not valid TOML: %v", configPath, err)
		return nil, err
	}
	return tree, nil
}

// ExtractSection returns the [sectionName] table.
func ExtractSection(data map[string]any, sectionName string) (map[string]any, bool) {
	section, ok := data[sectionName].(map[string]any)
	return section, ok
}

// ExtractInt64 reads an integer key; TOML decodes all integers as int64.
func ExtractInt64(data map[string]any, key string) (int, bool) {
	n, ok := data[key].(int64)
	return int(n), ok
}

func ExtractBool(data map[string]any, key string) (bool, bool) {
	b, ok := data[key].(bool)
	return b, ok
}

func ExtractString(data map[string]any, key string) (string, bool) {
	s, ok := data[key].(string)
	return s, ok
}

// ExtractStrings reads a string array, dropping items of other types.
func ExtractStrings(data map[string]any, key string) ([]string, bool) {
	raw, ok := data[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
