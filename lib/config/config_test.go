// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tcgref/tcgref/lib/ref"
	"github.com/tcgref/tcgref/lib/snapshot"
)

const minimalConfig = `
matrix:
  homeserver: https://matrix.example.org
  user_id: "@tcgref:example.org"
  access_token_file: /run/secrets/matrix-token
dataset:
  directory: /srv/dataset
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tcgref.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func loadString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := LoadFile(writeConfig(t, content))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("environment = %s, want development", cfg.Environment)
	}
	if cfg.Bot.Prefix != "!" {
		t.Errorf("prefix = %q, want !", cfg.Bot.Prefix)
	}
	if cfg.Cache.CompressionKind() != snapshot.CompressionZstd {
		t.Errorf("compression = %s, want zstd", cfg.Cache.Compression)
	}
	if cfg.GitHub.AutomationMarker != "[auto] " {
		t.Errorf("automation marker = %q", cfg.GitHub.AutomationMarker)
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when TCGREF_CONFIG is not set")
	}
	if !strings.HasPrefix(err.Error(), "TCGREF_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithEnvVar(t *testing.T) {
	t.Setenv(EnvVar, writeConfig(t, minimalConfig))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if cfg.Matrix.ID() != ref.MustParseUserID("@tcgref:example.org") {
		t.Errorf("user id = %s", cfg.Matrix.ID())
	}
	if cfg.Matrix.SyncTimeoutDuration() != 30*time.Second {
		t.Errorf("sync timeout = %s, want 30s", cfg.Matrix.SyncTimeoutDuration())
	}
}

func TestLoadFile(t *testing.T) {
	cfg := loadString(t, `
environment: production
bot:
  prefix: "?"
  dev_admin: "@admin:example.org"
  dev_room: "!dev:example.org"
  logs_room: "!logs:example.org"
  dev_users:
    helper: "@helper:example.org"
matrix:
  homeserver: https://matrix.example.org
  user_id: "@tcgref:example.org"
  access_token_file: /run/secrets/matrix-token.age
github:
  owner: tcgref
  repo: dataset
  token_file: /run/secrets/github-token
  webhook_listen: ":8080"
  webhook_secret_file: /run/secrets/webhook
  branches: [release]
  automation_marker: ""
dataset:
  source: github
pics:
  default_source: cdn
cache:
  snapshot_path: /var/cache/tcgref/snapshot
  compression: lz4
journal:
  path: /var/lib/tcgref/alerts.db
log:
  level: debug
age:
  identity_file: /run/secrets/age-identity
`)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Bot.DevAdminID() != ref.MustParseUserID("@admin:example.org") {
		t.Errorf("dev admin = %s", cfg.Bot.DevAdminID())
	}
	if cfg.Bot.DevRoomID() != ref.MustParseRoomID("!dev:example.org") {
		t.Errorf("dev room = %s", cfg.Bot.DevRoomID())
	}
	if cfg.Bot.LogsRoomID() != ref.MustParseRoomID("!logs:example.org") {
		t.Errorf("logs room = %s", cfg.Bot.LogsRoomID())
	}
	wantUsers := map[string]ref.UserID{"helper": ref.MustParseUserID("@helper:example.org")}
	if diff := cmp.Diff(wantUsers, cfg.Bot.DevUserIDs(), cmp.Comparer(func(a, b ref.UserID) bool { return a == b })); diff != "" {
		t.Errorf("dev users (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"release"}, cfg.GitHub.Branches); diff != "" {
		t.Errorf("branches (-want +got):\n%s", diff)
	}
	if cfg.GitHub.AutomationMarker != "" {
		t.Errorf("explicit empty automation marker was replaced by %q", cfg.GitHub.AutomationMarker)
	}
	if cfg.GitHub.Ref != "master" {
		t.Errorf("ref = %q, want default master", cfg.GitHub.Ref)
	}
	if cfg.Cache.CompressionKind() != snapshot.CompressionLZ4 {
		t.Errorf("compression = %s, want lz4", cfg.Cache.CompressionKind())
	}
	if cfg.Log.LevelValue().String() != "DEBUG" {
		t.Errorf("level = %s, want DEBUG", cfg.Log.LevelValue())
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
	if _, err := LoadFile(writeConfig(t, "bot: [not, a, map]")); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	base := minimalConfig + `
  watch: true
cache:
  snapshot_path: /tmp/base.snapshot
development:
  dataset:
    directory: /home/dev/dataset
    watch: true
  log:
    level: debug
production:
  cache:
    snapshot_path: /var/cache/tcgref/snapshot
`
	dev := loadString(t, base)
	if dev.Dataset.Directory != "/home/dev/dataset" || !dev.Dataset.Watch {
		t.Errorf("development dataset = %+v", dev.Dataset)
	}
	if dev.Log.Level != "debug" {
		t.Errorf("development level = %q, want debug", dev.Log.Level)
	}
	if dev.Cache.SnapshotPath != "/tmp/base.snapshot" {
		t.Errorf("development snapshot path = %q", dev.Cache.SnapshotPath)
	}

	prod := loadString(t, "environment: production\n"+base)
	if prod.Dataset.Directory != "/srv/dataset" {
		t.Errorf("production directory = %q, want base value", prod.Dataset.Directory)
	}
	if prod.Cache.SnapshotPath != "/var/cache/tcgref/snapshot" {
		t.Errorf("production snapshot path = %q", prod.Cache.SnapshotPath)
	}
	if prod.Log.Level != "info" {
		t.Errorf("production level = %q, want info", prod.Log.Level)
	}
}

func TestProductionDefaultsDisableWatch(t *testing.T) {
	cfg := loadString(t, "environment: production\n"+minimalConfig+"  watch: true\n")
	if cfg.Dataset.Watch {
		t.Error("production without an override section kept the watcher on")
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("TCGREF_TEST_ROOT", "/data")
	t.Setenv("TCGREF_TEST_EMPTY", "")

	tests := []struct {
		input, want string
	}{
		{"${TCGREF_TEST_ROOT}/dataset", "/data/dataset"},
		{"${TCGREF_TEST_UNSET:-/fallback}/x", "/fallback/x"},
		{"${TCGREF_TEST_EMPTY:-/fallback}", "/fallback"},
		{"${TCGREF_TEST_UNSET}", ""},
		{"/plain/path", "/plain/path"},
		{"$TCGREF_TEST_ROOT", "$TCGREF_TEST_ROOT"},
	}
	for _, test := range tests {
		if got := expandVars(test.input); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestExpandVarsAppliesToPaths(t *testing.T) {
	t.Setenv("TCGREF_TEST_STATE", "/var/lib/tcgref")
	cfg := loadString(t, minimalConfig+`
cache:
  snapshot_path: ${TCGREF_TEST_STATE}/snapshot
journal:
  path: ${TCGREF_TEST_STATE}/alerts.db
bot:
  prefix: ${TCGREF_TEST_STATE}
`)
	if cfg.Cache.SnapshotPath != "/var/lib/tcgref/snapshot" || cfg.Journal.Path != "/var/lib/tcgref/alerts.db" {
		t.Errorf("paths not expanded: %q, %q", cfg.Cache.SnapshotPath, cfg.Journal.Path)
	}
	if cfg.Bot.Prefix != "${TCGREF_TEST_STATE}" {
		t.Errorf("prefix was expanded to %q", cfg.Bot.Prefix)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	t.Setenv("TCGREF_DATASET_DIRECTORY", "/from/env")
	cfg := loadString(t, minimalConfig)
	if cfg.Dataset.Directory != "/srv/dataset" {
		t.Errorf("directory = %q, want the file's value", cfg.Dataset.Directory)
	}
}

func invalidKeys(err error) []string {
	var keys []string
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		var single *Error
		if errors.As(err, &single) {
			return []string{single.Key}
		}
		return nil
	}
	for _, each := range joined.Unwrap() {
		var configErr *Error
		if errors.As(each, &configErr) {
			keys = append(keys, configErr.Key)
		}
	}
	return keys
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		keys   []string
	}{
		{"valid", func(*Config) {}, nil},
		{"bad environment", func(c *Config) { c.Environment = "staging" }, []string{"environment"}},
		{"empty prefix", func(c *Config) { c.Bot.Prefix = "" }, []string{"bot.prefix"}},
		{"spaced prefix", func(c *Config) { c.Bot.Prefix = "! " }, []string{"bot.prefix"}},
		{"bad dev admin", func(c *Config) { c.Bot.DevAdmin = "admin" }, []string{"bot.dev_admin"}},
		{"bad rooms", func(c *Config) {
			c.Bot.DevRoom = "dev"
			c.Bot.LogsRoom = "#logs:example.org"
		}, []string{"bot.dev_room", "bot.logs_room"}},
		{"bad dev users", func(c *Config) {
			c.Bot.DevUsers = map[string]string{"zed": "zed", "amy": ""}
		}, []string{"bot.dev_users.amy", "bot.dev_users.zed"}},
		{"missing matrix", func(c *Config) { c.Matrix = MatrixConfig{SyncTimeout: "30s"} },
			[]string{"matrix.homeserver", "matrix.user_id", "matrix.access_token_file"}},
		{"bad homeserver", func(c *Config) { c.Matrix.Homeserver = "matrix.example.org" }, []string{"matrix.homeserver"}},
		{"bad sync timeout", func(c *Config) { c.Matrix.SyncTimeout = "-1s" }, []string{"matrix.sync_timeout"}},
		{"webhook without secret", func(c *Config) {
			c.GitHub.WebhookListen = ":8080"
			c.GitHub.Owner, c.GitHub.Repo = "o", "r"
		}, []string{"github.webhook_secret_file"}},
		{"github source", func(c *Config) {
			c.Dataset.Source = SourceGitHub
			c.Dataset.Watch = true
		}, []string{"github.owner", "github.repo", "github.token_file", "dataset.watch"}},
		{"empty branch", func(c *Config) { c.GitHub.Branches = []string{"main", ""} }, []string{"github.branches"}},
		{"webhook tracking no branches", func(c *Config) {
			c.GitHub.WebhookListen = ":8080"
			c.GitHub.WebhookSecretFile = "/run/secrets/webhook"
			c.GitHub.Owner, c.GitHub.Repo = "o", "r"
			c.GitHub.Branches = []string{}
		}, []string{"github.branches"}},
		{"no branches without webhook", func(c *Config) { c.GitHub.Branches = nil }, nil},
		{"local without directory", func(c *Config) { c.Dataset.Directory = "" }, []string{"dataset.directory"}},
		{"unknown source", func(c *Config) { c.Dataset.Source = "s3" }, []string{"dataset.source"}},
		{"bad debounce", func(c *Config) { c.Dataset.Debounce = "soon" }, []string{"dataset.debounce"}},
		{"bad compression", func(c *Config) { c.Cache.Compression = "gzip" }, []string{"cache.compression"}},
		{"empty journal", func(c *Config) { c.Journal.Path = "" }, []string{"journal.path"}},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, []string{"log.level"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := loadString(t, minimalConfig)
			test.modify(cfg)
			err := cfg.Validate()
			if diff := cmp.Diff(test.keys, invalidKeys(err)); diff != "" {
				t.Errorf("invalid keys (-want +got):\n%s\nerror: %v", diff, err)
			}
		})
	}
}

func TestExplicitEmptyBranchesRejected(t *testing.T) {
	cfg := loadString(t, minimalConfig+`
github:
  owner: ProjectIgnis
  repo: delta-utopia
  webhook_listen: ":8080"
  webhook_secret_file: /run/secrets/webhook
  branches: []
`)
	if len(cfg.GitHub.Branches) != 0 {
		t.Fatalf("branches = %v, want the explicit empty list", cfg.GitHub.Branches)
	}
	err := cfg.Validate()
	if diff := cmp.Diff([]string{"github.branches"}, invalidKeys(err)); diff != "" {
		t.Errorf("invalid keys (-want +got):\n%s", diff)
	}
	if err == nil || !strings.Contains(err.Error(), "must list at least one branch") {
		t.Errorf("error = %v", err)
	}
}

func TestErrorMessageNamesKey(t *testing.T) {
	cfg := loadString(t, minimalConfig)
	cfg.Log.Level = "loud"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "invalid configuration log.level") {
		t.Errorf("error = %v, want it to name log.level", err)
	}
}
