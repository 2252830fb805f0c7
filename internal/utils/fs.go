package utils

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// DirCheckResult reports whether a config or data dir is usable.
type DirCheckResult struct {
	Exists   bool
	Writable bool
	Error    error
}

// FileExists reports whether path can be stat'ed.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates dirPath and its parents.
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0o755)
}

// SaveTOMLFile encodes data into filePath via a temp file in the same dir
// and a rename, so a crashed write leaves the old file intact.
func SaveTOMLFile(data any, filePath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".wordsieve-*.toml")
	if err != nil {
		log.Errorf("Cannot stage %s: %v", filePath, err)
		return err
	}
	staged := tmp.Name()
	defer os.Remove(staged)

	if err := toml.NewEncoder(tmp).Encode(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(staged, filePath)
}

// GetAbsolutePath resolves a relative path against the working dir.
// An empty path reads as "unknown" in status output.
func GetAbsolutePath(path string) string {
	if path == "" {
		return "unknown"
	}
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// GetExecutableDir is the last place config and data files are looked up.
func GetExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// CheckDirStatus creates dirPath when missing and probes it for writes.
func CheckDirStatus(dirPath string) DirCheckResult {
	var res DirCheckResult
	if _, err := os.Stat(dirPath); err != nil {
		if err := EnsureDir(dirPath); err != nil {
			log.Warnf("Cannot create %s: %v", dirPath, err)
			res.Error = err
			return res
		}
	}
	res.Exists = true

	probe, err := os.CreateTemp(dirPath, ".probe-*")
	if err != nil {
		log.Warnf("%s is not writable: %v", dirPath, err)
		return res
	}
	probe.Close()
	os.Remove(probe.Name())
	res.Writable = true
	return res
}
