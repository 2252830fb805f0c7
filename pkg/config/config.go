/*
Package config manages TOML config for WordSieve services.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/wordsieve/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Dict   DictConfig   `toml:"dict"`
	Server ServerConfig `toml:"server"`
	HTTP   HTTPConfig   `toml:"http"`
	CLI    CliConfig    `toml:"cli"`
}

// EngineConfig has clustering options.
type EngineConfig struct {
	MinTargetLength int `toml:"min_target_length"`
	MaxWordLength   int `toml:"max_word_length"`
}

// CacheConfig holds the refresh debounce.
type CacheConfig struct {
	RefreshDelayMs int `toml:"refresh_delay_ms"`
}

// RefreshDelay returns the debounce as a duration.
func (c CacheConfig) RefreshDelay() time.Duration {
	return time.Duration(c.RefreshDelayMs) * time.Millisecond
}

// StoreConfig selects the vocabulary store.
type StoreConfig struct {
	Driver string `toml:"driver"` // "memory" or "sqlite"
	Path   string `toml:"path"`
}

// DictConfig holds irregular table options.
type DictConfig struct {
	IrregularPath string `toml:"irregular_path"`
	UseBuiltin    bool   `toml:"use_builtin"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	MinPrefix    int  `toml:"min_prefix"`
	MaxPrefix    int  `toml:"max_prefix"`
	EnableFilter bool `toml:"enable_filter"`
}

// HTTPConfig has HTTP API options.
type HTTPConfig struct {
	Addr            string   `toml:"addr"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	ReadTimeoutSec  int      `toml:"read_timeout_sec"`
	WriteTimeoutSec int      `toml:"write_timeout_sec"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int  `toml:"default_limit"`
	ShowCommon   bool `toml:"show_common"`
}

// GetConfigDir picks the first writable dir among ~/.config/wordsieve and
// ~/Library/Application Support/wordsieve, then the executable's dir.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("No home directory: %v", err)
		return utils.GetExecutableDir()
	}
	for _, dir := range []string{
		filepath.Join(home, ".config", "wordsieve"),
		filepath.Join(home, "Library", "Application Support", "wordsieve"),
	} {
		if utils.CheckDirStatus(dir).Writable {
			return dir, nil
		}
	}
	dir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("No executable directory: %v", err)
		return "", err
	}
	return dir, nil
}

// GetDefaultConfigPath is config.toml inside GetConfigDir.
func GetDefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadConfigWithPriority tries the -config path first, then the default
// path (created on first run), then builtin defaults. It returns the path
// the config came from, empty for builtin defaults.
func LoadConfigWithPriority(customPath string) (*Config, string, error) {
	if customPath != "" {
		switch _, err := os.Stat(customPath); {
		case err != nil:
			log.Warnf("Config %s not found (%v), falling back to default path", customPath, err)
		default:
			cfg, err := LoadConfig(customPath)
			if err == nil {
				log.Debugf("Config loaded from %s", customPath)
				return cfg, customPath, nil
			}
			log.Warnf("Config %s unusable (%v), falling back to default path", customPath, err)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("No default config path (%v), using builtin defaults", err)
		return DefaultConfig(), "", nil
	}
	cfg, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Config %s unusable (%v), using builtin defaults", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Config loaded from %s", defaultPath)
	return cfg, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MinTargetLength: 3,
			MaxWordLength:   32,
		},
		Cache: CacheConfig{
			RefreshDelayMs: 50,
		},
		Store: StoreConfig{
			Driver: "memory",
			Path:   "",
		},
		Dict: DictConfig{
			IrregularPath: "",
			UseBuiltin:    true,
		},
		Server: ServerConfig{
			MaxLimit:     64,
			MinPrefix:    1,
			MaxPrefix:    32,
			EnableFilter: true,
		},
		HTTP: HTTPConfig{
			Addr:            "127.0.0.1:8787",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
		},
		CLI: CliConfig{
			DefaultLimit: 24,
			ShowCommon:   false,
		},
	}
}

// InitConfig writes a default config to configPath when none exists and
// loads it otherwise. Any failure degrades to builtin defaults.
func InitConfig(configPath string) (*Config, error) {
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		log.Warnf("Cannot create config dir for %s (%v), using builtin defaults", configPath, err)
		return DefaultConfig(), nil
	}
	if utils.FileExists(configPath) {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			log.Warnf("Config %s unusable (%v), using builtin defaults", configPath, err)
			return DefaultConfig(), nil
		}
		return cfg, nil
	}

	cfg := DefaultConfig()
	if err := SaveConfig(cfg, configPath); err != nil {
		log.Warnf("Cannot write default config %s (%v), using builtin defaults", configPath, err)
		return DefaultConfig(), nil
	}
	log.Debugf("Wrote default config to %s", configPath)
	return cfg, nil
}

// LoadConfig decodes configPath over the defaults, recovering section by
// section when the file does not match Config as a whole.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, cfg); err != nil {
		return tryPartialParse(configPath)
	}
	return cfg, nil
}

// tryPartialParse keeps every well-typed value of a file that does not
// decode into Config as a whole.
func tryPartialParse(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	tree, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Nothing recoverable in %s (%v), using builtin defaults", configPath, err)
		return cfg, nil
	}

	sections := map[string]func(map[string]any){
		"engine": func(m map[string]any) { extractEngineConfig(m, &cfg.Engine) },
		"cache": func(m map[string]any) {
			if val, ok := utils.ExtractInt64(m, "refresh_delay_ms"); ok {
				cfg.Cache.RefreshDelayMs = val
			}
		},
		"store":  func(m map[string]any) { extractStoreConfig(m, &cfg.Store) },
		"dict":   func(m map[string]any) { extractDictConfig(m, &cfg.Dict) },
		"server": func(m map[string]any) { extractServerConfig(m, &cfg.Server) },
		"http":   func(m map[string]any) { extractHTTPConfig(m, &cfg.HTTP) },
		"cli":    func(m map[string]any) { extractCliConfig(m, &cfg.CLI) },
	}
	for name, extract := range sections {
		if section, ok := utils.ExtractSection(tree, name); ok {
			extract(section)
		}
	}
	return cfg, nil
}

func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractInt64(data, "min_target_length"); ok {
		engine.MinTargetLength = val
	}
	if val, ok := utils.ExtractInt64(data, "max_word_length"); ok {
		engine.MaxWordLength = val
	}
}

func extractStoreConfig(data map[string]any, store *StoreConfig) {
	if val, ok := utils.ExtractString(data, "driver"); ok {
		store.Driver = val
	}
	if val, ok := utils.ExtractString(data, "path"); ok {
		store.Path = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "irregular_path"); ok {
		dict.IrregularPath = val
	}
	if val, ok := utils.ExtractBool(data, "use_builtin"); ok {
		dict.UseBuiltin = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		server.MinPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "max_prefix"); ok {
		server.MaxPrefix = val
	}
	if val, ok := utils.ExtractBool(data, "enable_filter"); ok {
		server.EnableFilter = val
	}
}

func extractHTTPConfig(data map[string]any, http *HTTPConfig) {
	if val, ok := utils.ExtractString(data, "addr"); ok {
		http.Addr = val
	}
	if val, ok := utils.ExtractStrings(data, "allowed_origins"); ok {
		http.AllowedOrigins = val
	}
	if val, ok := utils.ExtractInt64(data, "read_timeout_sec"); ok {
		http.ReadTimeoutSec = val
	}
	if val, ok := utils.ExtractInt64(data, "write_timeout_sec"); ok {
		http.WriteTimeoutSec = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractBool(data, "show_common"); ok {
		cli.ShowCommon = val
	}
}

// RebuildConfigFile overwrites the default config.toml with defaults.
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath is the absolute path a config was loaded from, or the
// default path when it came from builtin defaults.
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

func SaveConfig(cfg *Config, configPath string) error {
	return utils.SaveTOMLFile(cfg, configPath)
}

// Update changes the server limits and saves to file. An empty
// configPath only updates the values in memory.
func (c *Config) Update(configPath string, maxLimit, minPrefix, maxPrefix *int, enableFilter *bool) error {
	server := &c.Server
	if maxLimit != nil {
		server.MaxLimit = *maxLimit
	}
	if minPrefix != nil {
		server.MinPrefix = *minPrefix
	}
	if maxPrefix != nil {
		server.MaxPrefix = *maxPrefix
	}
	if enableFilter != nil {
		server.EnableFilter = *enableFilter
	}
	if configPath == "" {
		return nil
	}
	return SaveConfig(c, configPath)
}
