package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Anki contains settings for the local AnkiConnect endpoint and the default
// note destination.
type Anki struct {
	URL            string `toml:"url"`
	Deck           string `toml:"deck"`
	Model          string `toml:"model"`
	RequestTimeout int    `toml:"request_timeout"`
}

// LingQ contains settings for the remote LingQ API. Credentials are
// deliberately absent; they are supplied per invocation via flags.
type LingQ struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Import contains defaults for the import workflow.
type Import struct {
	Tags         []string `toml:"tags"`
	BatchSubmit  bool     `toml:"batch_submit"`
	StatusFilter int      `toml:"status_filter"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lingsync.
type Config struct {
	Anki    Anki    `toml:"anki"`
	LingQ   LingQ   `toml:"lingq"`
	Import  Import  `toml:"import"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lingsync/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults apply. The second return value is the resolved path,
// the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lingsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() {
	c.Anki.URL = strings.TrimRight(strings.TrimSpace(c.Anki.URL), "/")
	c.Anki.Deck = strings.TrimSpace(c.Anki.Deck)
	c.Anki.Model = strings.TrimSpace(c.Anki.Model)
	c.LingQ.BaseURL = strings.TrimRight(strings.TrimSpace(c.LingQ.BaseURL), "/")
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	tags := make([]string, 0, len(c.Import.Tags))
	for _, tag := range c.Import.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	c.Import.Tags = tags
}

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	if err := validateURL("anki.url", c.Anki.URL); err != nil {
		return err
	}
	if err := validateURL("lingq.base_url", c.LingQ.BaseURL); err != nil {
		return err
	}
	if c.Anki.RequestTimeout <= 0 {
		return fmt.Errorf("config: anki.request_timeout must be positive, got %d", c.Anki.RequestTimeout)
	}
	if c.LingQ.RequestTimeout <= 0 {
		return fmt.Errorf("config: lingq.request_timeout must be positive, got %d", c.LingQ.RequestTimeout)
	}
	if c.Import.StatusFilter < 0 {
		return fmt.Errorf("config: import.status_filter must not be negative, got %d", c.Import.StatusFilter)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func validateURL(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("config: %s must not be empty", field)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("config: %s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("config: %s must be an http or https url, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("config: %s is missing a host, got %q", field, value)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
