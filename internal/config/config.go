// Package config handles XDG configuration directory, file paths and
// backend settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "travelnotes"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// SettingsFile holds backend settings (project, bucket, ...).
	SettingsFile = "settings.yaml"

	// EnvFile holds optional environment overrides.
	EnvFile = ".env"

	// DefaultDatabase is the Firestore database used when none is configured.
	DefaultDatabase = "(default)"

	// DefaultCollection is the Firestore collection holding note records.
	DefaultCollection = "notes"
)

// Environment variables that override settings.yaml.
const (
	EnvProject    = "TRAVELNOTES_PROJECT"
	EnvDatabase   = "TRAVELNOTES_DATABASE"
	EnvCollection = "TRAVELNOTES_COLLECTION"
	EnvBucket     = "TRAVELNOTES_BUCKET"
)

// ErrIncompleteSettings is returned when project or bucket is missing.
var ErrIncompleteSettings = errors.New("incomplete settings")

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// Settings describes where notes and images live in the managed backend.
type Settings struct {
	Project    string `yaml:"project"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Bucket     string `yaml:"bucket"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/travelnotes or $HOME/.config/travelnotes.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// SettingsPath returns the path to settings.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// EnvPath returns the path to the .env override file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// LoadSettings resolves backend settings.
// Precedence: process environment, then .env, then settings.yaml, then defaults.
// Both files are optional.
func (c *Config) LoadSettings() (Settings, error) {
	var s Settings

	data, err := os.ReadFile(c.SettingsPath())
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Settings{}, fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}

	env, err := godotenv.Read(c.EnvPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("invalid %s: %w", EnvFile, err)
	}
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return env[key]
	}

	override(&s.Project, lookup(EnvProject))
	override(&s.Database, lookup(EnvDatabase))
	override(&s.Collection, lookup(EnvCollection))
	override(&s.Bucket, lookup(EnvBucket))

	if s.Database == "" {
		s.Database = DefaultDatabase
	}
	if s.Collection == "" {
		s.Collection = DefaultCollection
	}
	return s, nil
}

// Validate checks that the settings name a project and a bucket.
func (s Settings) Validate() error {
	switch {
	case s.Project == "":
		return fmt.Errorf("%w: project not set (%s or %s)", ErrIncompleteSettings, SettingsFile, EnvProject)
	case s.Bucket == "":
		return fmt.Errorf("%w: bucket not set (%s or %s)", ErrIncompleteSettings, SettingsFile, EnvBucket)
	}
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
