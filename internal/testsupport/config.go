// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"skipper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp paths per test.
// All evidence sources are enabled so fan-out paths are exercised; adapters
// under test point their base URLs at httptest servers instead.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(base, "skipper.db")
	cfg.Spotify.ClientID = "test-client"
	cfg.Spotify.ClientSecret = "test-secret"
	cfg.Spotify.TokenCache = filepath.Join(base, "token.json")
	cfg.Sources.MusicBrainz.UserAgent = "skipper-test/1.0"
	cfg.Sources.LastFM.Enabled = true
	cfg.Sources.LastFM.APIKey = "test-key"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithMinAgreement sets the vote threshold on the test config.
func WithMinAgreement(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Classification.MinSourceAgreement = n
	}
}

// WithBandPolicy toggles the band-policy fallback on the test config.
func WithBandPolicy(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Classification.BandPolicy = enabled
	}
}
