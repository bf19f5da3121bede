package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSpotify(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateClassification(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSpotify() error {
	if c.Spotify.ClientID == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/skipper/config.toml"
		}
		return fmt.Errorf("spotify.client_id is required. Set SPOTIFY_CLIENT_ID env var or edit %s (create with 'skipper config init')", defaultPath)
	}
	if c.Spotify.ClientSecret == "" {
		return errors.New("spotify.client_secret is required (or set SPOTIFY_CLIENT_SECRET)")
	}
	if strings.Contains(c.Spotify.ClientID, "${") || strings.Contains(c.Spotify.ClientSecret, "${") {
		return errors.New("spotify credentials contain an unresolved ${VAR} placeholder")
	}
	if strings.TrimSpace(c.Spotify.RedirectURI) == "" {
		return errors.New("spotify.redirect_uri must be set")
	}
	return nil
}

func (c *Config) validateMonitor() error {
	if c.Monitor.PollIntervalSeconds < 1 {
		return errors.New("monitor.poll_interval_seconds must be at least 1")
	}
	if c.Monitor.RateLimitBackoffMultiplier <= 1 {
		return errors.New("monitor.rate_limit_backoff_multiplier must be greater than 1")
	}
	if c.Monitor.MaxBackoffSeconds < c.Monitor.PollIntervalSeconds {
		return errors.New("monitor.max_backoff_seconds must be at least monitor.poll_interval_seconds")
	}
	return nil
}

func (c *Config) validateClassification() error {
	if c.Classification.MinSourceAgreement < 1 {
		return errors.New("classification.min_source_agreement must be at least 1")
	}
	if c.Classification.CacheDurationSeconds <= 0 {
		return errors.New("classification.cache_duration_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSources() error {
	if c.EnabledSourceCount() == 0 {
		return errors.New("at least one evidence source must be enabled under [sources]")
	}
	if c.Sources.MusicBrainz.Enabled && c.Sources.MusicBrainz.UserAgent == "" {
		return errors.New("sources.musicbrainz.user_agent must be set when sources.musicbrainz.enabled is true")
	}
	if c.Sources.LastFM.Enabled && c.Sources.LastFM.APIKey == "" {
		return errors.New("sources.lastfm.api_key must be set when sources.lastfm.enabled is true (or set LASTFM_API_KEY)")
	}
	if err := ensurePositiveMap(map[string]int{
		"sources.wikidata.timeout_seconds":    c.Sources.Wikidata.TimeoutSeconds,
		"sources.musicbrainz.timeout_seconds": c.Sources.MusicBrainz.TimeoutSeconds,
		"sources.lastfm.timeout_seconds":      c.Sources.LastFM.TimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !c.LLM.Enabled {
		return nil
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set when llm.enabled is true")
	}
	if c.LLM.BaseURL == "" {
		return errors.New("llm.base_url must be set when llm.enabled is true")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
