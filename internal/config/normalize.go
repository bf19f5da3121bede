package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	if err := c.normalizeSpotify(); err != nil {
		return err
	}
	c.normalizeMonitor()
	c.normalizeSources()
	c.normalizeLLM()
	c.normalizeActions()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeDatabase() error {
	var err error
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSpotify() error {
	c.Spotify.ClientID = strings.TrimSpace(c.Spotify.ClientID)
	if c.Spotify.ClientID == "" {
		if value, ok := os.LookupEnv("SPOTIFY_CLIENT_ID"); ok {
			c.Spotify.ClientID = strings.TrimSpace(value)
		}
	}
	c.Spotify.ClientSecret = strings.TrimSpace(c.Spotify.ClientSecret)
	if c.Spotify.ClientSecret == "" {
		if value, ok := os.LookupEnv("SPOTIFY_CLIENT_SECRET"); ok {
			c.Spotify.ClientSecret = strings.TrimSpace(value)
		}
	}
	c.Spotify.RedirectURI = strings.TrimSpace(c.Spotify.RedirectURI)
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = defaultRedirectURI
	}
	if strings.TrimSpace(c.Spotify.TokenCache) == "" {
		c.Spotify.TokenCache = defaultTokenCache
	}
	var err error
	if c.Spotify.TokenCache, err = expandPath(c.Spotify.TokenCache); err != nil {
		return fmt.Errorf("spotify.token_cache: %w", err)
	}
	return nil
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.ProcessedTrackCap <= 0 {
		c.Monitor.ProcessedTrackCap = defaultProcessedTrackCap
	}
}

func (c *Config) normalizeSources() {
	c.Sources.Wikidata.Endpoint = strings.TrimSpace(c.Sources.Wikidata.Endpoint)
	if c.Sources.Wikidata.Endpoint == "" {
		c.Sources.Wikidata.Endpoint = defaultWikidataEndpoint
	}
	if c.Sources.Wikidata.TimeoutSeconds <= 0 {
		c.Sources.Wikidata.TimeoutSeconds = defaultSourceTimeoutSeconds
	}

	c.Sources.MusicBrainz.BaseURL = strings.TrimRight(strings.TrimSpace(c.Sources.MusicBrainz.BaseURL), "/")
	if c.Sources.MusicBrainz.BaseURL == "" {
		c.Sources.MusicBrainz.BaseURL = defaultMusicBrainzBaseURL
	}
	c.Sources.MusicBrainz.UserAgent = strings.TrimSpace(c.Sources.MusicBrainz.UserAgent)
	if c.Sources.MusicBrainz.TimeoutSeconds <= 0 {
		c.Sources.MusicBrainz.TimeoutSeconds = defaultSourceTimeoutSeconds
	}
	if c.Sources.MusicBrainz.RateLimitPerSecond <= 0 {
		c.Sources.MusicBrainz.RateLimitPerSecond = defaultMusicBrainzRatePerSec
	}

	c.Sources.LastFM.BaseURL = strings.TrimSpace(c.Sources.LastFM.BaseURL)
	if c.Sources.LastFM.BaseURL == "" {
		c.Sources.LastFM.BaseURL = defaultLastFMBaseURL
	}
	c.Sources.LastFM.APIKey = strings.TrimSpace(c.Sources.LastFM.APIKey)
	if c.Sources.LastFM.APIKey == "" {
		if value, ok := os.LookupEnv("LASTFM_API_KEY"); ok {
			c.Sources.LastFM.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Sources.LastFM.TimeoutSeconds <= 0 {
		c.Sources.LastFM.TimeoutSeconds = defaultSourceTimeoutSeconds
	}
	if c.Sources.LastFM.MinTagCount < 0 {
		c.Sources.LastFM.MinTagCount = 0
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("SKIPPER_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeActions() {
	c.Actions.BlockedPlaylistName = strings.TrimSpace(c.Actions.BlockedPlaylistName)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "auto":
		c.Logging.Format = "auto"
	case "console", "json":
	default:
		c.Logging.Format = "auto"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
