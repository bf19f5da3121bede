// Package actions applies the configured side effects when an artificial
// performer is detected: skipping playback, removing the track from the
// user's own playlists, and collecting it into a blocked playlist.
package actions

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"skipper/internal/config"
	"skipper/internal/logging"
	"skipper/internal/spotify"
	"skipper/internal/store"
)

// PlayerControl is the slice of the Spotify client the engine needs.
type PlayerControl interface {
	SkipToNext(ctx context.Context) error
	Playlist(ctx context.Context, playlistID string) (*spotify.PlaylistInfo, error)
	RemoveFromPlaylist(ctx context.Context, playlistID, trackID string) error
	AddToPlaylist(ctx context.Context, playlistID, trackID string) error
	CreatePlaylist(ctx context.Context, name, description string) (string, error)
	FindPlaylistByName(ctx context.Context, name string) (string, error)
	CurrentUserID(ctx context.Context) (string, error)
}

// Engine runs the configured actions for a flagged play. Each action is
// attempted independently, so a failed skip never blocks the playlist edits.
type Engine struct {
	client PlayerControl
	store  *store.Store
	logger *slog.Logger

	autoSkip            bool
	removeFromPlaylists bool
	blockedPlaylistName string

	blockedPlaylistID string
	userID            string
}

// New builds an Engine from the actions config.
func New(client PlayerControl, st *store.Store, cfg config.Actions, logger *slog.Logger) *Engine {
	return &Engine{
		client:              client,
		store:               st,
		logger:              logging.NewComponentLogger(logger, "actions"),
		autoSkip:            cfg.AutoSkip,
		removeFromPlaylists: cfg.RemoveFromUserPlaylists,
		blockedPlaylistName: strings.TrimSpace(cfg.BlockedPlaylistName),
	}
}

// EnsureBlockedPlaylist finds or creates the blocked playlist and caches its
// id for the session. It is a no-op when the feature is not configured.
func (e *Engine) EnsureBlockedPlaylist(ctx context.Context) error {
	if e.blockedPlaylistName == "" || e.blockedPlaylistID != "" {
		return nil
	}
	id, err := e.client.FindPlaylistByName(ctx, e.blockedPlaylistName)
	if err != nil {
		return err
	}
	if id != "" {
		e.blockedPlaylistID = id
		e.logger.Info("found blocked playlist", logging.String("name", e.blockedPlaylistName))
		return nil
	}
	id, err = e.client.CreatePlaylist(ctx, e.blockedPlaylistName,
		"Artificial performers collected by skipper")
	if err != nil {
		return err
	}
	e.blockedPlaylistID = id
	e.logger.Info("created blocked playlist", logging.String("name", e.blockedPlaylistName))
	return nil
}

// Apply runs every configured action for the flagged play and records the
// outcome. Persistence failures are logged, not returned, so one bad write
// never stops the monitor.
func (e *Engine) Apply(ctx context.Context, playID string, snapshot *spotify.Snapshot, decision *store.Decision) store.Action {
	action := store.Action{
		PlayID:    playID,
		Timestamp: time.Now().UTC(),
	}

	e.logger.Warn("artificial performer detected",
		logging.String(logging.FieldTrackID, snapshot.TrackID),
		logging.String("track", snapshot.TrackName),
		logging.Float64("confidence", decision.Confidence),
	)

	if e.autoSkip {
		if err := e.client.SkipToNext(ctx); err != nil {
			e.logger.Error("skip failed", logging.Error(err))
		} else {
			action.Skipped = true
		}
	}

	if e.removeFromPlaylists && snapshot.ContextType == "playlist" {
		if e.removeFromOwnPlaylist(ctx, snapshot) {
			action.RemovedFromPlaylist = true
		}
	}

	if e.blockedPlaylistName != "" {
		if err := e.EnsureBlockedPlaylist(ctx); err != nil {
			e.logger.Error("ensure blocked playlist failed", logging.Error(err))
		}
	}
	if e.blockedPlaylistID != "" {
		if err := e.client.AddToPlaylist(ctx, e.blockedPlaylistID, snapshot.TrackID); err != nil {
			e.logger.Error("add to blocked playlist failed", logging.Error(err))
		} else {
			action.AddedToBlockedPlaylist = true
			e.logger.Info("added to blocked playlist", logging.String("track", snapshot.TrackName))
		}
	}

	if err := e.store.InsertAction(ctx, action); err != nil {
		e.logger.Error("persist action failed", logging.Error(err))
	}
	return action
}

// removeFromOwnPlaylist removes the track when the playback context is a
// playlist the current user owns. Other people's playlists are left alone.
func (e *Engine) removeFromOwnPlaylist(ctx context.Context, snapshot *spotify.Snapshot) bool {
	playlistID := playlistIDFromURI(snapshot.ContextURI)
	if playlistID == "" {
		return false
	}
	playlist, err := e.client.Playlist(ctx, playlistID)
	if err != nil {
		e.logger.Error("fetch playlist failed", logging.Error(err))
		return false
	}
	if playlist == nil {
		// Algorithmic mixes and radio contexts are not real playlists.
		return false
	}
	if e.userID == "" {
		userID, err := e.client.CurrentUserID(ctx)
		if err != nil {
			e.logger.Error("fetch current user failed", logging.Error(err))
			return false
		}
		e.userID = userID
	}
	if playlist.OwnerID != e.userID {
		return false
	}
	if err := e.client.RemoveFromPlaylist(ctx, playlistID, snapshot.TrackID); err != nil {
		e.logger.Error("remove from playlist failed", logging.Error(err))
		return false
	}
	e.logger.Info("removed from playlist",
		logging.String("track", snapshot.TrackName),
		logging.String("playlist", playlist.Name),
	)
	return true
}

func playlistIDFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	parts := strings.Split(uri, ":")
	return parts[len(parts)-1]
}
