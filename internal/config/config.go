package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Database contains persistence settings.
type Database struct {
	Path string `toml:"path"`
}

// Spotify contains playback provider credentials and token storage.
type Spotify struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenCache   string `toml:"token_cache"`
}

// Monitor contains poll loop timing and backpressure settings.
type Monitor struct {
	PollIntervalSeconds        int     `toml:"poll_interval_seconds"`
	RateLimitBackoffMultiplier float64 `toml:"rate_limit_backoff_multiplier"`
	MaxBackoffSeconds          int     `toml:"max_backoff_seconds"`
	ProcessedTrackCap          int     `toml:"processed_track_cap"`
}

// Classification contains the vote tally policy.
type Classification struct {
	MinSourceAgreement   int  `toml:"min_source_agreement"`
	BandPolicy           bool `toml:"band_policy"`
	CacheDurationSeconds int  `toml:"cache_duration_seconds"`
}

// Wikidata contains settings for the Wikidata SPARQL source.
type Wikidata struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MusicBrainz contains settings for the MusicBrainz source.
type MusicBrainz struct {
	Enabled            bool    `toml:"enabled"`
	BaseURL            string  `toml:"base_url"`
	UserAgent          string  `toml:"user_agent"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	RateLimitPerSecond float64 `toml:"rate_limit_per_second"`
}

// LastFM contains settings for the Last.fm tag source.
type LastFM struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MinTagCount    int    `toml:"min_tag_count"`
}

// Sources groups the evidence source sections.
type Sources struct {
	Wikidata    Wikidata    `toml:"wikidata"`
	MusicBrainz MusicBrainz `toml:"musicbrainz"`
	LastFM      LastFM      `toml:"lastfm"`
}

// LLM contains settings for the optional LLM fallback adapter.
type LLM struct {
	Enabled          bool   `toml:"enabled"`
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	Model            string `toml:"model"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	RequireCitations bool   `toml:"require_citations"`
}

// Actions contains toggles for corrective actions.
type Actions struct {
	AutoSkip                bool   `toml:"auto_skip"`
	RemoveFromUserPlaylists bool   `toml:"remove_from_user_playlists"`
	BlockedPlaylistName     string `toml:"add_to_blocked_playlist"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format           string   `toml:"format"`
	Level            string   `toml:"level"`
	OutputPaths      []string `toml:"output_paths"`
	ErrorOutputPaths []string `toml:"error_output_paths"`
}

// Config encapsulates all configuration values for skipper.
//
// Configuration sections by subsystem:
//   - Database: sqlite database location
//   - Spotify: playback provider credentials and token cache
//   - Monitor: poll cadence and rate-limit backoff
//   - Classification: vote agreement policy and decision caching
//   - Sources: per-source enable flags, endpoints, and pacing
//   - LLM: optional verdict fallback when the tally is inconclusive
//   - Actions: skip and playlist mutation toggles
//   - Logging: log format, level, and output destinations
type Config struct {
	Database       Database       `toml:"database"`
	Spotify        Spotify        `toml:"spotify"`
	Monitor        Monitor        `toml:"monitor"`
	Classification Classification `toml:"classification"`
	Sources        Sources        `toml:"sources"`
	LLM            LLM            `toml:"llm"`
	Actions        Actions        `toml:"actions"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/skipper/config.toml")
}

// Load locates, parses, and validates a configuration file. Placeholders of
// the form ${VAR} are substituted from the environment (after best-effort
// .env loading) before decoding. The returned config has all path fields
// expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		raw, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		expanded := os.Expand(string(raw), func(name string) string {
			if value, ok := os.LookupEnv(name); ok {
				return value
			}
			// Leave unknown placeholders intact so validation can flag them.
			return "${" + name + "}"
		})
		if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

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

	defaultPath, err := expandPath("~/.config/skipper/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("skipper.toml")
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

// EnsureDirectories creates the directories required for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Database.Path)}
	if strings.TrimSpace(c.Spotify.TokenCache) != "" {
		dirs = append(dirs, filepath.Dir(c.Spotify.TokenCache))
	}
	for _, dir := range dirs {
		if dir == "." || dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
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

// EnabledSourceCount reports how many evidence sources are switched on.
func (c *Config) EnabledSourceCount() int {
	count := 0
	if c.Sources.Wikidata.Enabled {
		count++
	}
	if c.Sources.MusicBrainz.Enabled {
		count++
	}
	if c.Sources.LastFM.Enabled {
		count++
	}
	return count
}
