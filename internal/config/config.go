// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/edusphere/edusphere-tui/internal/session"
	"github.com/edusphere/edusphere-tui/internal/storage"
	"github.com/edusphere/edusphere-tui/internal/transport"
	"github.com/edusphere/edusphere-tui/internal/util"
)

// Environment variables read by Load.
const (
	EnvConfig          = "EDUSPHERE_CONFIG"
	EnvBaseURL         = "EDUSPHERE_BASE_URL"
	EnvTimeout         = "EDUSPHERE_TIMEOUT"
	EnvDatabase        = "EDUSPHERE_DB"
	EnvDownloadPattern = "EDUSPHERE_DOWNLOAD_PATTERN"
	EnvRateLimit       = "EDUSPHERE_RATE_LIMIT"
	EnvTokenPassphrase = "EDUSPHERE_TOKEN_PASSPHRASE"
)

// DefaultBaseURL is the local development server.
const DefaultBaseURL = "http://localhost:8080/api"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete edusphere configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Chat     ChatConfig     `toml:"chat"`
	Storage  StorageConfig  `toml:"storage"`
	Security SecurityConfig `toml:"security"`
	UI       UIConfig       `toml:"ui"`
}

// ServerConfig holds advising service connection settings.
type ServerConfig struct {
	BaseURL         string  `toml:"base_url"`
	Timeout         string  `toml:"timeout"` // duration, e.g. "8m"
	DownloadPattern string  `toml:"download_pattern"`
	RateLimit       float64 `toml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst       int     `toml:"rate_burst"`
	UserAgent       string  `toml:"user_agent"`
}

// ChatConfig holds conversation settings.
type ChatConfig struct {
	StreamPath                string `toml:"stream_path"`
	FallbackMessage           string `toml:"fallback_message"`
	ReadBufferSize            int    `toml:"read_buffer_size"`
	SendRecommendationContext bool   `toml:"send_recommendation_context"`
}

// StorageConfig holds the local state database location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// SecurityConfig controls token protection at rest. The passphrase is only
// read from EDUSPHERE_TOKEN_PASSPHRASE.
type SecurityConfig struct {
	EncryptToken bool `toml:"encrypt_token"`
}

// UIConfig holds display preferences.
type UIConfig struct {
	Markdown bool   `toml:"markdown"`
	WordWrap int    `toml:"word_wrap"`
	Theme    string `toml:"theme"` // auto, dark, light
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:         DefaultBaseURL,
			Timeout:         transport.DefaultTimeout.String(),
			DownloadPattern: transport.DefaultDownloadPattern,
			RateBurst:       1,
			UserAgent:       transport.DefaultUserAgent,
		},
		Chat: ChatConfig{
			StreamPath:                session.DefaultStreamPath,
			FallbackMessage:           session.DefaultFallbackMessage,
			ReadBufferSize:            session.DefaultReadBufferSize,
			SendRecommendationContext: true,
		},
		UI: UIConfig{
			Markdown: true,
			WordWrap: 80,
			Theme:    "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the edusphere configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".edusphere"), nil
}

// Path returns the config file path, honoring EDUSPHERE_CONFIG.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the TUI log file path.
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "edusphere.log"), nil
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the configuration from Path.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a TOML file. A missing file is not
// an error; the defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %v\n", path, undecoded)
	}
	return nil
}

// LoadDotEnv loads variables from the given files into the environment.
// Missing files are skipped and variables already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to Path.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode renders the configuration as commented TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# edusphere configuration file\n")
	buf.WriteString("# The token passphrase is read from " + EnvTokenPassphrase + " only.\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[/path]", c.Server.BaseURL),
		})
	}

	if d, err := time.ParseDuration(c.Server.Timeout); err != nil || d <= 0 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout",
			Message: fmt.Sprintf("invalid duration '%s'", c.Server.Timeout),
		})
	}

	if _, err := regexp.Compile(c.Server.DownloadPattern); err != nil {
		errs = append(errs, ValidationError{
			Field:   "server.download_pattern",
			Message: err.Error(),
		})
	}

	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit", Message: "must not be negative"})
	}
	if c.Server.RateBurst < 1 {
		errs = append(errs, ValidationError{Field: "server.rate_burst", Message: "must be at least 1"})
	}

	if !strings.HasPrefix(c.Chat.StreamPath, "/") {
		errs = append(errs, ValidationError{Field: "chat.stream_path", Message: "must start with '/'"})
	}
	if c.Chat.ReadBufferSize < 64 || c.Chat.ReadBufferSize > 1<<20 {
		errs = append(errs, ValidationError{
			Field:   "chat.read_buffer_size",
			Message: fmt.Sprintf("%d out of range (64-1048576)", c.Chat.ReadBufferSize),
		})
	}

	validThemes := map[string]bool{"auto": true, "dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}
	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty fields with their defaults.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Server.BaseURL == "" {
		c.Server.BaseURL = d.Server.BaseURL
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	if c.Server.Timeout == "" {
		c.Server.Timeout = d.Server.Timeout
	}
	if c.Server.DownloadPattern == "" {
		c.Server.DownloadPattern = d.Server.DownloadPattern
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = d.Server.RateBurst
	}
	if c.Server.UserAgent == "" {
		c.Server.UserAgent = d.Server.UserAgent
	}
	if c.Chat.StreamPath == "" {
		c.Chat.StreamPath = d.Chat.StreamPath
	}
	if c.Chat.FallbackMessage == "" {
		c.Chat.FallbackMessage = d.Chat.FallbackMessage
	}
	if c.Chat.ReadBufferSize == 0 {
		c.Chat.ReadBufferSize = d.Chat.ReadBufferSize
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
}

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - EDUSPHERE_BASE_URL: overrides server.base_url
//   - EDUSPHERE_TIMEOUT: overrides server.timeout
//   - EDUSPHERE_DB: overrides storage.path
//   - EDUSPHERE_DOWNLOAD_PATTERN: overrides server.download_pattern
//   - EDUSPHERE_RATE_LIMIT: overrides server.rate_limit
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		c.Server.Timeout = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvDownloadPattern); v != "" {
		c.Server.DownloadPattern = v
	}
	if v := os.Getenv(EnvRateLimit); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Server.RateLimit = f
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring %s=%q: %v\n", EnvRateLimit, v, err)
		}
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// TimeoutDuration returns the parsed server timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil || d <= 0 {
		return transport.DefaultTimeout
	}
	return d
}

// TransportConfig returns the transport client settings.
func (c *Config) TransportConfig() transport.Config {
	return transport.Config{
		BaseURL:         c.Server.BaseURL,
		Timeout:         c.TimeoutDuration(),
		DownloadPattern: c.Server.DownloadPattern,
		RateLimit:       c.Server.RateLimit,
		RateBurst:       c.Server.RateBurst,
		UserAgent:       c.Server.UserAgent,
	}
}

// SessionConfig returns the conversation settings. kv supplies the
// recommendation context when it is enabled.
func (c *Config) SessionConfig(kv storage.KV) session.Config {
	cfg := session.Config{
		StreamPath:      c.Chat.StreamPath,
		FallbackMessage: c.Chat.FallbackMessage,
		ReadBufferSize:  c.Chat.ReadBufferSize,
	}
	if c.Chat.SendRecommendationContext && kv != nil {
		cfg.Context = session.StoredContext{KV: kv}
	}
	return cfg
}

// StoragePath returns the state database path, defaulting to
// ~/.edusphere/state.db.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys are the TOML names of a section and a field, e.g. "server.base_url".

// Get returns the value stored under key.
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value into the field named by key.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	return parseInto(field, strings.TrimSpace(value))
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	section, name, ok := strings.Cut(strings.ToLower(strings.TrimSpace(key)), ".")
	if !ok {
		if section != "" && tomlField(reflect.ValueOf(c).Elem(), section).IsValid() {
			return reflect.Value{}, fmt.Errorf("%q is a section; use %s.<key>", section, section)
		}
		return reflect.Value{}, fmt.Errorf("unknown key %q", key)
	}

	sv := tomlField(reflect.ValueOf(c).Elem(), section)
	if !sv.IsValid() || sv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("unknown section %q", section)
	}
	fv := tomlField(sv, name)
	if !fv.IsValid() {
		return reflect.Value{}, fmt.Errorf("unknown key %q", key)
	}
	return fv, nil
}

// tomlField returns the field of struct v whose toml tag is name.
func tomlField(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tagName(t.Field(i)) == name {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

func tagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

func parseInto(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%q is not a whole number", value)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		switch strings.ToLower(value) {
		case "yes", "on":
			field.SetBool(true)
		case "no", "off":
			field.SetBool(false)
		default:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%q is not true or false", value)
			}
			field.SetBool(b)
		}
	default:
		return fmt.Errorf("unsupported setting type %s", field.Type())
	}
	return nil
}

// GetAllKeys returns every settable key in file order.
func GetAllKeys() []string {
	var keys []string
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		if section.Type.Kind() != reflect.Struct {
			continue
		}
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, tagName(section)+"."+tagName(section.Type.Field(j)))
		}
	}
	return keys
}
