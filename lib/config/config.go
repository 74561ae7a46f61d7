// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tcgref/tcgref/lib/logging"
	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/lib/snapshot"
)

// EnvVar names the environment variable [Load] reads the config path
// from.
const EnvVar = "TCGREF_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Dataset source kinds.
const (
	SourceLocal  = "local"
	SourceGitHub = "github"
)

// Config is the bot's configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Bot     BotConfig     `yaml:"bot"`
	Matrix  MatrixConfig  `yaml:"matrix"`
	GitHub  GitHubConfig  `yaml:"github"`
	Dataset DatasetConfig `yaml:"dataset"`
	Pics    PicsConfig    `yaml:"pics"`
	Cache   CacheConfig   `yaml:"cache"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
	Age     AgeConfig     `yaml:"age"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the sections an environment may override.
type Overrides struct {
	Dataset *DatasetConfig `yaml:"dataset,omitempty"`
	Cache   *CacheConfig   `yaml:"cache,omitempty"`
	Journal *JournalConfig `yaml:"journal,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// BotConfig configures command handling.
type BotConfig struct {
	// Prefix starts every command. Default: "!"
	Prefix string `yaml:"prefix"`

	// DevAdmin, DevRoom, and DevUsers grant access to developer-only
	// commands: the admin anywhere, anyone in the dev room, and each
	// listed user (keyed by a display name) anywhere.
	DevAdmin string            `yaml:"dev_admin"`
	DevRoom  string            `yaml:"dev_room"`
	DevUsers map[string]string `yaml:"dev_users"`

	// LogsRoom receives developer alerts and the startup notice.
	LogsRoom string `yaml:"logs_room"`
}

// MatrixConfig configures the homeserver connection.
type MatrixConfig struct {
	Homeserver      string `yaml:"homeserver"`
	UserID          string `yaml:"user_id"`
	AccessTokenFile string `yaml:"access_token_file"`
	// SyncTimeout is the /sync long-poll timeout. Default: 30s
	SyncTimeout string `yaml:"sync_timeout"`
}

// GitHubConfig configures the dataset repository and its webhook.
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Ref   string `yaml:"ref"`

	// TokenFile holds a token for the REST API. Required when the
	// dataset is read from GitHub.
	TokenFile string `yaml:"token_file"`

	// WebhookListen is the address the push webhook listens on. Empty
	// disables the webhook.
	WebhookListen     string `yaml:"webhook_listen"`
	WebhookSecretFile string `yaml:"webhook_secret_file"`

	// Branches lists the tracked branches. Default: master, main
	Branches []string `yaml:"branches"`
	// AutomationMarker prefixes commits written by the dataset's own
	// automation. Empty disables the check. Default: "[auto] "
	AutomationMarker string `yaml:"automation_marker"`
}

// DatasetConfig selects where the dataset is read from.
type DatasetConfig struct {
	// Source is "local" or "github". Default: local
	Source string `yaml:"source"`
	// Directory is the dataset root for the local source.
	Directory string `yaml:"directory"`
	// Watch reloads changed files of a local dataset.
	Watch bool `yaml:"watch"`
	// Debounce batches watcher events. Default: 500ms
	Debounce string `yaml:"debounce"`
}

// PicsConfig configures card images.
type PicsConfig struct {
	// DefaultSource names an entry of the dataset's image sources.
	DefaultSource string `yaml:"default_source"`
}

// CacheConfig configures the warm-start snapshot.
type CacheConfig struct {
	// SnapshotPath is where the last applied dataset is saved. Empty
	// disables the snapshot.
	SnapshotPath string `yaml:"snapshot_path"`
	// Compression is none, lz4, or zstd. Default: zstd
	Compression string `yaml:"compression"`
}

// JournalConfig configures the alert journal.
type JournalConfig struct {
	// Path is the SQLite database. Default: ":memory:"
	Path string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn, or error. Default: info
	Level string `yaml:"level"`
}

// AgeConfig configures decryption of .age secret files.
type AgeConfig struct {
	IdentityFile string `yaml:"identity_file"`
}

// Default returns the configuration defaults applied before the file is
// read.
func Default() *Config {
	return &Config{
		Environment: Development,
		Bot:         BotConfig{Prefix: "!"},
		Matrix:      MatrixConfig{SyncTimeout: "30s"},
		GitHub: GitHubConfig{
			Ref:              "master",
			Branches:         []string{"master", "main"},
			AutomationMarker: "[auto] ",
		},
		Dataset: DatasetConfig{Source: SourceLocal, Debounce: "500ms"},
		Cache:   CacheConfig{Compression: snapshot.CompressionZstd.String()},
		Journal: JournalConfig{Path: ":memory:"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load loads configuration from the file named by TCGREF_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your tcgref.yaml config file, or use --config flag", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path. The result is not validated.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			c.Dataset.Watch = false
		}
	}
	if overrides == nil {
		return
	}

	if overrides.Dataset != nil {
		if overrides.Dataset.Source != "" {
			c.Dataset.Source = overrides.Dataset.Source
		}
		if overrides.Dataset.Directory != "" {
			c.Dataset.Directory = overrides.Dataset.Directory
		}
		if overrides.Dataset.Debounce != "" {
			c.Dataset.Debounce = overrides.Dataset.Debounce
		}
		// Watch is a bool, so an override section always sets it.
		c.Dataset.Watch = overrides.Dataset.Watch
	}
	if overrides.Cache != nil {
		if overrides.Cache.SnapshotPath != "" {
			c.Cache.SnapshotPath = overrides.Cache.SnapshotPath
		}
		if overrides.Cache.Compression != "" {
			c.Cache.Compression = overrides.Cache.Compression
		}
	}
	if overrides.Journal != nil && overrides.Journal.Path != "" {
		c.Journal.Path = overrides.Journal.Path
	}
	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

func (c *Config) expandVariables() {
	for _, field := range []*string{
		&c.Matrix.Homeserver,
		&c.Matrix.AccessTokenFile,
		&c.GitHub.TokenFile,
		&c.GitHub.WebhookSecretFile,
		&c.GitHub.WebhookListen,
		&c.Dataset.Directory,
		&c.Cache.SnapshotPath,
		&c.Journal.Path,
		&c.Age.IdentityFile,
	} {
		*field = expandVars(*field)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
// An unset or empty variable without a default expands to "".
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Error is an invalid configuration key.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

func invalid(key, format string, args ...any) error {
	return &Error{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every key and returns all failures joined. Each
// failure is an *Error.
func (c *Config) Validate() error {
	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if c.Environment != Development && c.Environment != Production {
		check(invalid("environment", "must be development or production, got %q", c.Environment))
	}

	if c.Bot.Prefix == "" {
		check(invalid("bot.prefix", "is required"))
	} else if strings.ContainsFunc(c.Bot.Prefix, isSpace) {
		check(invalid("bot.prefix", "must not contain whitespace"))
	}
	check(optionalUserID("bot.dev_admin", c.Bot.DevAdmin))
	check(optionalRoomID("bot.dev_room", c.Bot.DevRoom))
	check(optionalRoomID("bot.logs_room", c.Bot.LogsRoom))
	for _, name := range sortedKeys(c.Bot.DevUsers) {
		key := "bot.dev_users." + name
		if c.Bot.DevUsers[name] == "" {
			check(invalid(key, "is empty"))
			continue
		}
		check(optionalUserID(key, c.Bot.DevUsers[name]))
	}

	if c.Matrix.Homeserver == "" {
		check(invalid("matrix.homeserver", "is required"))
	} else if parsed, err := url.Parse(c.Matrix.Homeserver); err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		check(invalid("matrix.homeserver", "must be an http(s) URL, got %q", c.Matrix.Homeserver))
	}
	if c.Matrix.UserID == "" {
		check(invalid("matrix.user_id", "is required"))
	} else {
		check(optionalUserID("matrix.user_id", c.Matrix.UserID))
	}
	if c.Matrix.AccessTokenFile == "" {
		check(invalid("matrix.access_token_file", "is required"))
	}
	check(positiveDuration("matrix.sync_timeout", c.Matrix.SyncTimeout))

	if c.GitHub.WebhookListen != "" && c.GitHub.WebhookSecretFile == "" {
		check(invalid("github.webhook_secret_file", "is required when github.webhook_listen is set"))
	}
	if c.GitHub.WebhookListen != "" || c.Dataset.Source == SourceGitHub {
		if c.GitHub.Owner == "" {
			check(invalid("github.owner", "is required"))
		}
		if c.GitHub.Repo == "" {
			check(invalid("github.repo", "is required"))
		}
	}
	if c.GitHub.WebhookListen != "" && len(c.GitHub.Branches) == 0 {
		check(invalid("github.branches", "must list at least one branch"))
	}
	if slices.Contains(c.GitHub.Branches, "") {
		check(invalid("github.branches", "contains an empty branch name"))
	}

	switch c.Dataset.Source {
	case SourceLocal:
		if c.Dataset.Directory == "" {
			check(invalid("dataset.directory", "is required for the local source"))
		}
	case SourceGitHub:
		if c.GitHub.TokenFile == "" {
			check(invalid("github.token_file", "is required for the github source"))
		}
		if c.Dataset.Watch {
			check(invalid("dataset.watch", "only applies to the local source"))
		}
	default:
		check(invalid("dataset.source", "must be %s or %s, got %q", SourceLocal, SourceGitHub, c.Dataset.Source))
	}
	check(positiveDuration("dataset.debounce", c.Dataset.Debounce))

	if _, err := snapshot.ParseCompression(c.Cache.Compression); err != nil {
		check(invalid("cache.compression", "%v", err))
	}
	if c.Journal.Path == "" {
		check(invalid("journal.path", "is required (use :memory: for no persistence)"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		check(invalid("log.level", "%v", err))
	}

	return errors.Join(errs...)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func optionalUserID(key, raw string) error {
	if raw == "" {
		return nil
	}
	if _, err := ref.ParseUserID(raw); err != nil {
		return invalid(key, "%v", err)
	}
	return nil
}

func optionalRoomID(key, raw string) error {
	if raw == "" {
		return nil
	}
	if _, err := ref.ParseRoomID(raw); err != nil {
		return invalid(key, "%v", err)
	}
	return nil
}

func positiveDuration(key, raw string) error {
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return invalid(key, "%v", err)
	}
	if duration <= 0 {
		return invalid(key, "must be positive, got %s", raw)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
