package sources

import (
	"net/http"
	"time"

	"skipper/internal/classify"
	"skipper/internal/config"
)

// FromConfig builds the enabled sources in a stable order: wikidata,
// musicbrainz, lastfm. A nil client gives each source its own default.
func FromConfig(cfg *config.Config, client *http.Client) []classify.Source {
	var srcs []classify.Source
	if cfg.Sources.Wikidata.Enabled {
		srcs = append(srcs, NewWikidata(
			cfg.Sources.Wikidata.Endpoint,
			time.Duration(cfg.Sources.Wikidata.TimeoutSeconds)*time.Second,
			client,
		))
	}
	if cfg.Sources.MusicBrainz.Enabled {
		srcs = append(srcs, NewMusicBrainz(
			cfg.Sources.MusicBrainz.BaseURL,
			cfg.Sources.MusicBrainz.UserAgent,
			time.Duration(cfg.Sources.MusicBrainz.TimeoutSeconds)*time.Second,
			cfg.Sources.MusicBrainz.RateLimitPerSecond,
			client,
		))
	}
	if cfg.Sources.LastFM.Enabled {
		srcs = append(srcs, NewLastFM(
			cfg.Sources.LastFM.BaseURL,
			cfg.Sources.LastFM.APIKey,
			time.Duration(cfg.Sources.LastFM.TimeoutSeconds)*time.Second,
			cfg.Sources.LastFM.MinTagCount,
			client,
		))
	}
	return srcs
}
