package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// PathResolver finds where wordsieve keeps its data files (sqlite store,
// engine snapshots) and resolves input paths given on the cmd line.
type PathResolver struct {
	executableDir string
	homeDir       string
	dataDir       string
}

// NewPathResolver determines the executable location and the data dir
func NewPathResolver() (*PathResolver, error) {
	execDir, err := GetExecutableDir()
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(execDir); err == nil {
		execDir = resolved
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: execDir,
		homeDir:       homeDir,
		dataDir:       getDataDir(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, dataDir=%s", execDir, pr.dataDir)
	return pr, nil
}

// getDataDir returns the platform data directory
func getDataDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "wordsieve")
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "wordsieve")
		}
		return filepath.Join(homeDir, "AppData", "Local", "wordsieve")
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "wordsieve")
		}
		return filepath.Join(homeDir, ".local", "share", "wordsieve")
	}
}

// DataDir returns the data directory
func (pr *PathResolver) DataDir() string {
	return pr.dataDir
}

// DataFile returns a writable path for filename, falling back to the
// executable dir and then the temp dir.
func (pr *PathResolver) DataFile(filename string) string {
	for _, dir := range []string{pr.dataDir, pr.executableDir} {
		if result := CheckDirStatus(dir); result.Writable {
			return filepath.Join(dir, filename)
		}
	}
	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary data file: %s", tempPath)
	return tempPath
}

// ResolveInput finds an existing file given as absolute, relative to the
// working dir or relative to the executable dir.
func (pr *PathResolver) ResolveInput(path string) (string, error) {
	if filepath.IsAbs(path) {
		if FileExists(path) {
			return path, nil
		}
		return "", os.ErrNotExist
	}
	candidates := []string{path, filepath.Join(pr.executableDir, path)}
	for _, candidate := range candidates {
		if FileExists(candidate) {
			return GetAbsolutePath(candidate), nil
		}
	}
	return "", os.ErrNotExist
}
