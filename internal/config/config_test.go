package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[spotify]
client_id = "id"
client_secret = "secret"

[sources.musicbrainz]
user_agent = "skipper-test/1.0"
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatalf("expected config file to be detected at %s", resolved)
	}
	if cfg.Monitor.PollIntervalSeconds != defaultPollIntervalSeconds {
		t.Errorf("poll interval = %d, want %d", cfg.Monitor.PollIntervalSeconds, defaultPollIntervalSeconds)
	}
	if cfg.Classification.MinSourceAgreement != defaultMinSourceAgreement {
		t.Errorf("min_source_agreement = %d, want %d", cfg.Classification.MinSourceAgreement, defaultMinSourceAgreement)
	}
	if !cfg.Classification.BandPolicy {
		t.Error("band_policy should default to true")
	}
	if cfg.Sources.Wikidata.Endpoint != defaultWikidataEndpoint {
		t.Errorf("wikidata endpoint = %q", cfg.Sources.Wikidata.Endpoint)
	}
	if !filepath.IsAbs(cfg.Database.Path) {
		t.Errorf("database path not expanded: %q", cfg.Database.Path)
	}
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("SKIPPER_TEST_SECRET", "from-env")
	path := writeConfig(t, `
[spotify]
client_id = "id"
client_secret = "${SKIPPER_TEST_SECRET}"

[sources.musicbrainz]
user_agent = "skipper-test/1.0"
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Spotify.ClientSecret != "from-env" {
		t.Fatalf("client_secret = %q, want substitution from env", cfg.Spotify.ClientSecret)
	}
}

func TestLoadRejectsUnresolvedPlaceholder(t *testing.T) {
	path := writeConfig(t, `
[spotify]
client_id = "id"
client_secret = "${SKIPPER_TEST_MISSING_VAR}"

[sources.musicbrainz]
user_agent = "skipper-test/1.0"
`)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unresolved placeholder")
	}
}

func TestValidateRules(t *testing.T) {
	base := func() Config {
		cfg := Default()
		cfg.Spotify.ClientID = "id"
		cfg.Spotify.ClientSecret = "secret"
		cfg.Sources.MusicBrainz.UserAgent = "skipper-test/1.0"
		return cfg
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "poll interval too small",
			mutate:  func(c *Config) { c.Monitor.PollIntervalSeconds = 0 },
			wantErr: "poll_interval_seconds",
		},
		{
			name:    "backoff multiplier not above one",
			mutate:  func(c *Config) { c.Monitor.RateLimitBackoffMultiplier = 1.0 },
			wantErr: "rate_limit_backoff_multiplier",
		},
		{
			name: "max backoff below poll interval",
			mutate: func(c *Config) {
				c.Monitor.PollIntervalSeconds = 10
				c.Monitor.MaxBackoffSeconds = 5
			},
			wantErr: "max_backoff_seconds",
		},
		{
			name:    "agreement below one",
			mutate:  func(c *Config) { c.Classification.MinSourceAgreement = 0 },
			wantErr: "min_source_agreement",
		},
		{
			name:    "cache duration not positive",
			mutate:  func(c *Config) { c.Classification.CacheDurationSeconds = 0 },
			wantErr: "cache_duration_seconds",
		},
		{
			name: "no sources enabled",
			mutate: func(c *Config) {
				c.Sources.Wikidata.Enabled = false
				c.Sources.MusicBrainz.Enabled = false
				c.Sources.LastFM.Enabled = false
			},
			wantErr: "at least one evidence source",
		},
		{
			name:    "musicbrainz without user agent",
			mutate:  func(c *Config) { c.Sources.MusicBrainz.UserAgent = "" },
			wantErr: "user_agent",
		},
		{
			name:    "lastfm without api key",
			mutate:  func(c *Config) { c.Sources.LastFM.Enabled = true },
			wantErr: "lastfm.api_key",
		},
		{
			name: "llm enabled without model",
			mutate: func(c *Config) {
				c.LLM.Enabled = true
				c.LLM.Model = ""
			},
			wantErr: "llm.model",
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.Spotify.ClientSecret = "" },
			wantErr: "client_secret",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")

	path := filepath.Join(t.TempDir(), "nope.toml")
	_, resolved, exists, err := Load(path)
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if resolved == "" {
		t.Fatal("expected resolved path for missing file")
	}
	// Defaults enable MusicBrainz, which requires a user agent.
	if err == nil || !strings.Contains(err.Error(), "user_agent") {
		t.Fatalf("expected user_agent validation error, got %v", err)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/x/y.db")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	want := filepath.Join(home, "x", "y.db")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestCreateSampleWritesParseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[classification]") {
		t.Fatal("sample config missing [classification] section")
	}
}
