// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/ece1786-2024/CourseCraft/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete CourseCraft configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Service ServiceConfig `toml:"service" json:"service"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	Upload  UploadConfig  `toml:"upload" json:"upload"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
	Server  ServerConfig  `toml:"server" json:"server"`
}

// ServiceConfig locates the advisor service.
type ServiceConfig struct {
	// BaseURL is the advisor service root, e.g. "http://127.0.0.1:5000".
	BaseURL string `toml:"base_url" json:"base_url"`
	// Timeout bounds each request, as a Go duration string ("60s").
	Timeout string `toml:"timeout" json:"timeout"`
	// RateLimitPerSec caps outgoing requests. Zero disables the limit.
	RateLimitPerSec float64 `toml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	Burst           int     `toml:"burst" json:"burst"`
}

// ChatConfig holds the fixed texts of the conversation.
type ChatConfig struct {
	Greeting     string `toml:"greeting" json:"greeting"`
	Placeholder  string `toml:"placeholder" json:"placeholder"`
	Fallback     string `toml:"fallback" json:"fallback"`
	UploadNotice string `toml:"upload_notice" json:"upload_notice"`
	// Summary is the closing turn; %s becomes "N course recommendations".
	Summary string `toml:"summary" json:"summary"`
}

// UploadConfig constrains resume uploads.
type UploadConfig struct {
	AllowedExtensions []string `toml:"allowed_extensions" json:"allowed_extensions"`
	MaxBytes          int64    `toml:"max_bytes" json:"max_bytes"`
}

// StorageConfig locates local data.
type StorageConfig struct {
	// DatabasePath is the favorites database. Empty means
	// ~/.coursecraft/coursecraft.db.
	DatabasePath string `toml:"database_path" json:"database_path"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme" json:"theme"`
	// MarkdownStyle is a glamour style name; "auto" follows the terminal.
	MarkdownStyle string `toml:"markdown_style" json:"markdown_style"`
	// WordWrap is the rendering width for bot turns. Zero follows the window.
	WordWrap       int  `toml:"word_wrap" json:"word_wrap"`
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
	CompactMode    bool `toml:"compact_mode" json:"compact_mode"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level" json:"level"`
	// File receives logs while the TUI owns the terminal. Empty means
	// ~/.coursecraft/coursecraft.log.
	File string `toml:"file" json:"file"`
}

// ServerConfig configures the bundled stub advisor service.
type ServerConfig struct {
	Addr           string   `toml:"addr" json:"addr"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
	// ScriptPath is an optional YAML or JSON file with canned replies and
	// recommendations.
	ScriptPath      string  `toml:"script_path" json:"script_path"`
	MinTurns        int     `toml:"min_turns" json:"min_turns"`
	RateLimitPerSec float64 `toml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with the built-in values.
func Default() *Config {
	return &Config{
		Version: "1",
		Service: ServiceConfig{
			BaseURL:         "http://127.0.0.1:5000",
			Timeout:         "60s",
			RateLimitPerSec: 2,
			Burst:           4,
		},
		Chat: ChatConfig{
			Greeting:     "Hello! 😊 Welcome to the University of Toronto's course selection assistant. I'm here to help you navigate your first-year course options and make choices that align with your interests and goals.",
			Placeholder:  "I am thinking ...",
			Fallback:     "The server is not connected ~~",
			UploadNotice: "📄 Your resume has been uploaded successfully!",
			Summary:      "I found %s for you. Take a look at the list below!",
		},
		Upload: UploadConfig{
			AllowedExtensions: []string{".pdf", ".doc", ".docx"},
			MaxBytes:          10 * 1024 * 1024,
		},
		UI: UIConfig{
			Theme:         "auto",
			MarkdownStyle: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:5000",
			AllowedOrigins:  []string{"*"},
			MinTurns:        3,
			RateLimitPerSec: 10,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the CourseCraft configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("COURSECRAFT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".coursecraft"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// DatabasePath returns the favorites database path.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.DatabasePath != "" {
		return c.Storage.DatabasePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "coursecraft.db"), nil
}

// ConversationsDir returns where finished conversations are saved.
func (c *Config) ConversationsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "conversations"), nil
}

// LogPath returns the log file path used while the TUI runs.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "coursecraft.log"), nil
}

// ServiceTimeout returns Service.Timeout as a duration, falling back to the
// default when it does not parse.
func (c *Config) ServiceTimeout() time.Duration {
	d, err := time.ParseDuration(c.Service.Timeout)
	if err != nil || d < 0 {
		d, _ = time.ParseDuration(Default().Service.Timeout)
	}
	return d
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the configuration. A .env file in the working directory is
// loaded into the environment first. Then ~/.coursecraft/config.toml is
// tried, then config.json, then the built-in defaults. Environment overrides
// are applied last.
func Load() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg := Default()
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil && fileExists(tomlPath) {
		if err := LoadTOML(cfg, tomlPath); err != nil {
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			cfg = Default()
		} else {
			return finish(cfg)
		}
	} else if jsonPath, err := ConfigPathJSON(); err == nil && fileExists(jsonPath) {
		if err := LoadJSON(cfg, jsonPath); err != nil {
			loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			cfg = Default()
		} else {
			return finish(cfg)
		}
	}

	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	// Defaults are usable even if the file was not.
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file. The format follows
// the extension: .json is JSON, anything else TOML.
func LoadFromPath(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with mode 0600.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# CourseCraft configuration file\n")
	buf.WriteString("# Environment variables COURSECRAFT_* override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file with mode 0600.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Service
	if c.Service.BaseURL != "" {
		u, err := url.Parse(c.Service.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "service.base_url",
				Message: fmt.Sprintf("invalid URL %q, must be http(s)://host[:port]", c.Service.BaseURL),
			})
		}
	}
	if c.Service.Timeout != "" {
		if d, err := time.ParseDuration(c.Service.Timeout); err != nil || d < 0 {
			errs = append(errs, ValidationError{
				Field:   "service.timeout",
				Message: fmt.Sprintf("invalid duration %q", c.Service.Timeout),
			})
		}
	}
	if c.Service.RateLimitPerSec < 0 {
		errs = append(errs, ValidationError{Field: "service.rate_limit_per_sec", Message: "must not be negative"})
	}

	// Chat
	if c.Chat.Summary != "" && strings.Count(c.Chat.Summary, "%s") != 1 {
		errs = append(errs, ValidationError{Field: "chat.summary", Message: "must contain exactly one %s"})
	}

	// Upload
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, ValidationError{
				Field:   "upload.allowed_extensions",
				Message: fmt.Sprintf("extension %q must start with a dot", ext),
			})
		}
	}
	if c.Upload.MaxBytes < 0 {
		errs = append(errs, ValidationError{Field: "upload.max_bytes", Message: "must not be negative"})
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "", "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}
	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "must not be negative"})
	}

	// Log
	if c.Log.Level != "" && !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	// Server
	if c.Server.MinTurns < 0 {
		errs = append(errs, ValidationError{Field: "server.min_turns", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty fields with their default values.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Service.Timeout == "" {
		c.Service.Timeout = d.Service.Timeout
	}
	if c.Service.Burst == 0 {
		c.Service.Burst = d.Service.Burst
	}
	if c.Chat.Greeting == "" {
		c.Chat.Greeting = d.Chat.Greeting
	}
	if c.Chat.Placeholder == "" {
		c.Chat.Placeholder = d.Chat.Placeholder
	}
	if c.Chat.Fallback == "" {
		c.Chat.Fallback = d.Chat.Fallback
	}
	if c.Chat.UploadNotice == "" {
		c.Chat.UploadNotice = d.Chat.UploadNotice
	}
	if c.Chat.Summary == "" {
		c.Chat.Summary = d.Chat.Summary
	}
	if c.Upload.AllowedExtensions == nil {
		c.Upload.AllowedExtensions = d.Upload.AllowedExtensions
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = d.Upload.MaxBytes
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.MarkdownStyle == "" {
		c.UI.MarkdownStyle = d.UI.MarkdownStyle
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = d.Server.AllowedOrigins
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - COURSECRAFT_SERVICE_URL: service.base_url
//   - COURSECRAFT_TIMEOUT: service.timeout
//   - COURSECRAFT_LOG_LEVEL: log.level
//   - COURSECRAFT_DB: storage.database_path
//   - COURSECRAFT_SERVER_ADDR: server.addr
//   - COURSECRAFT_ALLOWED_ORIGINS: server.allowed_origins (comma separated)
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("COURSECRAFT_SERVICE_URL"); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv("COURSECRAFT_TIMEOUT"); v != "" {
		c.Service.Timeout = v
	}
	if v := os.Getenv("COURSECRAFT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("COURSECRAFT_DB"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("COURSECRAFT_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("COURSECRAFT_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation ("service.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		name := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts snake_case or kebab-case to a Go field name.
// The comparison is case-insensitive, so "base_url" matches BaseURL.
func normalizeFieldName(name string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(name)
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			b := s == "1" || strings.EqualFold(s, "true") || strings.EqualFold(s, "yes")
			field.SetBool(b)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, p := range strings.Split(s, ",") {
					if p = strings.TrimSpace(p); p != "" {
						items = append(items, p)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Upload.AllowedExtensions = append([]string(nil), c.Upload.AllowedExtensions...)
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &out
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			if cfg == nil {
				cfg = Default()
			}
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the configuration from disk. On error the current
// configuration is kept.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the process-wide configuration.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
