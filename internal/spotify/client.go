package spotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	api "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"skipper/internal/config"
	"skipper/internal/logging"
)

// ErrRateLimited is returned when the Web API answers 429. Callers back off
// and retry on the next cycle.
var ErrRateLimited = errors.New("spotify: rate limited")

// Client wraps the authenticated Web API session.
type Client struct {
	api    *api.Client
	logger *slog.Logger
}

// NewClient builds a client from the cached token. It fails with ErrNoToken
// when no login has happened yet.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	token, err := LoadToken(cfg.Spotify.TokenCache)
	if err != nil {
		return nil, err
	}
	httpClient := oauth2.NewClient(ctx, tokenSource(ctx, cfg, token))
	return NewClientWithHTTP(httpClient, logger), nil
}

// NewClientWithHTTP wraps an existing HTTP client (useful for tests).
func NewClientWithHTTP(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		api:    api.New(httpClient),
		logger: logging.NewComponentLogger(logger, "spotify"),
	}
}

// Artist is one credited performer on a track.
type Artist struct {
	ID   string
	Name string
	URI  string
}

// Snapshot is the playback state the monitor cares about.
type Snapshot struct {
	TrackID    string
	TrackName  string
	TrackURI   string
	DurationMS int64
	Explicit   bool
	Popularity int64
	IsLocal    bool

	Artists []Artist

	AlbumID     string
	AlbumName   string
	AlbumURI    string
	ReleaseDate string

	ContextURI  string
	ContextType string
	ContextHref string

	DeviceID   string
	DeviceName string
	DeviceType string

	ProgressMS int64
	IsPlaying  bool
}

// PrimaryArtist returns the first credited artist, or nil for a track with
// no artist data (some local files).
func (s *Snapshot) PrimaryArtist() *Artist {
	if s == nil || len(s.Artists) == 0 {
		return nil
	}
	return &s.Artists[0]
}

// CurrentPlayback fetches the player state. It returns (nil, nil) when
// nothing is playing or the current item is not a track, and ErrRateLimited
// on a 429.
func (c *Client) CurrentPlayback(ctx context.Context) (*Snapshot, error) {
	state, err := c.api.PlayerState(ctx)
	if err != nil {
		return nil, c.wrapError("current playback", err)
	}
	if state == nil || state.Item == nil {
		return nil, nil
	}
	item := state.Item

	snapshot := &Snapshot{
		TrackID:     string(item.ID),
		TrackName:   item.Name,
		TrackURI:    string(item.URI),
		DurationMS:  int64(item.Duration),
		Explicit:    item.Explicit,
		Popularity:  int64(item.Popularity),
		IsLocal:     strings.HasPrefix(string(item.URI), "spotify:local"),
		AlbumID:     string(item.Album.ID),
		AlbumName:   item.Album.Name,
		AlbumURI:    string(item.Album.URI),
		ReleaseDate: item.Album.ReleaseDate,
		ContextURI:  string(state.PlaybackContext.URI),
		ContextType: state.PlaybackContext.Type,
		ContextHref: state.PlaybackContext.Endpoint,
		DeviceID:    string(state.Device.ID),
		DeviceName:  state.Device.Name,
		DeviceType:  state.Device.Type,
		ProgressMS:  int64(state.Progress),
		IsPlaying:   state.Playing,
	}
	for _, artist := range item.Artists {
		snapshot.Artists = append(snapshot.Artists, Artist{
			ID:   string(artist.ID),
			Name: artist.Name,
			URI:  string(artist.URI),
		})
	}
	return snapshot, nil
}

// SkipToNext advances the player past the current track.
func (c *Client) SkipToNext(ctx context.Context) error {
	if err := c.api.Next(ctx); err != nil {
		return c.wrapError("skip to next", err)
	}
	c.logger.Info("skipped to next track")
	return nil
}

// PlaylistInfo identifies a playlist and its owner.
type PlaylistInfo struct {
	ID      string
	Name    string
	OwnerID string
}

// Playlist fetches playlist details. Algorithmic contexts (mixes, radio) are
// often not fetchable; those come back as (nil, nil).
func (c *Client) Playlist(ctx context.Context, playlistID string) (*PlaylistInfo, error) {
	playlist, err := c.api.GetPlaylist(ctx, api.ID(playlistID))
	if err != nil {
		var apiErr api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, c.wrapError("get playlist", err)
	}
	return &PlaylistInfo{
		ID:      string(playlist.ID),
		Name:    playlist.Name,
		OwnerID: playlist.Owner.ID,
	}, nil
}

// RemoveFromPlaylist removes every occurrence of the track from a playlist.
func (c *Client) RemoveFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	if _, err := c.api.RemoveTracksFromPlaylist(ctx, api.ID(playlistID), api.ID(trackID)); err != nil {
		return c.wrapError("remove from playlist", err)
	}
	return nil
}

// AddToPlaylist appends the track to a playlist.
func (c *Client) AddToPlaylist(ctx context.Context, playlistID, trackID string) error {
	if _, err := c.api.AddTracksToPlaylist(ctx, api.ID(playlistID), api.ID(trackID)); err != nil {
		return c.wrapError("add to playlist", err)
	}
	return nil
}

// CreatePlaylist makes a new private playlist for the current user.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", c.wrapError("current user", err)
	}
	playlist, err := c.api.CreatePlaylistForUser(ctx, user.ID, name, description, false, false)
	if err != nil {
		return "", c.wrapError("create playlist", err)
	}
	c.logger.Info("created playlist",
		logging.String("name", name),
		logging.String("playlist_id", string(playlist.ID)),
	)
	return string(playlist.ID), nil
}

// FindPlaylistByName looks through the current user's playlists for an exact
// name match and returns its id, or "" when absent.
func (c *Client) FindPlaylistByName(ctx context.Context, name string) (string, error) {
	page, err := c.api.CurrentUsersPlaylists(ctx, api.Limit(50))
	if err != nil {
		return "", c.wrapError("list playlists", err)
	}
	for {
		for _, playlist := range page.Playlists {
			if playlist.Name == name {
				return string(playlist.ID), nil
			}
		}
		if err := c.api.NextPage(ctx, page); err != nil {
			if errors.Is(err, api.ErrNoMorePages) {
				return "", nil
			}
			return "", c.wrapError("list playlists", err)
		}
	}
}

// CurrentUserID returns the logged-in user's id.
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", c.wrapError("current user", err)
	}
	return user.ID, nil
}

// Device is a Spotify Connect playback target.
type Device struct {
	ID     string
	Name   string
	Type   string
	Active bool
}

// Devices lists the available Spotify Connect devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	playerDevices, err := c.api.PlayerDevices(ctx)
	if err != nil {
		return nil, c.wrapError("list devices", err)
	}
	devices := make([]Device, 0, len(playerDevices))
	for _, device := range playerDevices {
		devices = append(devices, Device{
			ID:     string(device.ID),
			Name:   device.Name,
			Type:   device.Type,
			Active: device.Active,
		})
	}
	return devices, nil
}

func (c *Client) wrapError(op string, err error) error {
	var apiErr api.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	}
	return fmt.Errorf("spotify: %s: %w", op, err)
}
