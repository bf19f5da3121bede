package config

const (
	defaultDatabasePath           = "~/.local/share/skipper/skipper.db"
	defaultTokenCache             = "~/.cache/skipper/spotify_token.json"
	defaultRedirectURI            = "http://127.0.0.1:8898/callback"
	defaultPollIntervalSeconds    = 5
	defaultBackoffMultiplier      = 2.0
	defaultMaxBackoffSeconds      = 60
	defaultProcessedTrackCap      = 1024
	defaultMinSourceAgreement     = 2
	defaultCacheDurationSeconds   = 86400 * 30
	defaultWikidataEndpoint       = "https://query.wikidata.org/sparql"
	defaultMusicBrainzBaseURL     = "https://musicbrainz.org/ws/2"
	defaultMusicBrainzRatePerSec  = 1.0
	defaultLastFMBaseURL          = "https://ws.audioscrobbler.com/2.0/"
	defaultLastFMMinTagCount      = 10
	defaultSourceTimeoutSeconds   = 10
	defaultLLMBaseURL             = "http://127.0.0.1:11434/v1/chat/completions"
	defaultLLMModel               = "granite4:tiny-h"
	defaultLLMTimeoutSeconds      = 8
	defaultBlockedPlaylistName    = "Blocked: Artificial Artists"
	defaultLogFormat              = "auto"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Database: Database{
			Path: defaultDatabasePath,
		},
		Spotify: Spotify{
			RedirectURI: defaultRedirectURI,
			TokenCache:  defaultTokenCache,
		},
		Monitor: Monitor{
			PollIntervalSeconds:        defaultPollIntervalSeconds,
			RateLimitBackoffMultiplier: defaultBackoffMultiplier,
			MaxBackoffSeconds:          defaultMaxBackoffSeconds,
			ProcessedTrackCap:          defaultProcessedTrackCap,
		},
		Classification: Classification{
			MinSourceAgreement:   defaultMinSourceAgreement,
			BandPolicy:           true,
			CacheDurationSeconds: defaultCacheDurationSeconds,
		},
		Sources: Sources{
			Wikidata: Wikidata{
				Enabled:        true,
				Endpoint:       defaultWikidataEndpoint,
				TimeoutSeconds: defaultSourceTimeoutSeconds,
			},
			MusicBrainz: MusicBrainz{
				Enabled:            true,
				BaseURL:            defaultMusicBrainzBaseURL,
				TimeoutSeconds:     defaultSourceTimeoutSeconds,
				RateLimitPerSecond: defaultMusicBrainzRatePerSec,
			},
			LastFM: LastFM{
				BaseURL:        defaultLastFMBaseURL,
				TimeoutSeconds: defaultSourceTimeoutSeconds,
				MinTagCount:    defaultLastFMMinTagCount,
			},
		},
		LLM: LLM{
			BaseURL:          defaultLLMBaseURL,
			Model:            defaultLLMModel,
			TimeoutSeconds:   defaultLLMTimeoutSeconds,
			RequireCitations: true,
		},
		Actions: Actions{
			AutoSkip:            true,
			BlockedPlaylistName: defaultBlockedPlaylistName,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
