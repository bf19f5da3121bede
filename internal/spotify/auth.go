package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"skipper/internal/config"
)

// Scopes required for playback monitoring and playlist edits.
var Scopes = []string{
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopeUserLibraryModify,
}

// ErrNoToken means no cached token exists and the user must log in first.
var ErrNoToken = errors.New("spotify: no cached token, run 'skipper auth' to log in")

// NewAuthenticator builds the OAuth helper for the interactive login flow.
func NewAuthenticator(cfg *config.Config) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.Spotify.ClientID),
		spotifyauth.WithClientSecret(cfg.Spotify.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.Spotify.RedirectURI),
		spotifyauth.WithScopes(Scopes...),
	)
}

// oauthConfig mirrors the authenticator's settings for refresh handling.
func oauthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
}

// LoadToken reads a cached OAuth token. A missing file returns ErrNoToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("spotify: read token cache: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("spotify: parse token cache: %w", err)
	}
	if token.RefreshToken == "" && !token.Valid() {
		return nil, ErrNoToken
	}
	return &token, nil
}

// SaveToken writes the OAuth token to the cache path with owner-only access.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("spotify: create token cache dir: %w", err)
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("spotify: encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("spotify: write token cache: %w", err)
	}
	return nil
}

// persistingTokenSource saves tokens back to the cache whenever the
// underlying source refreshes them, so restarts pick up the newest refresh
// token.
type persistingTokenSource struct {
	base oauth2.TokenSource
	path string
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := SaveToken(s.path, token); err != nil {
			// A failed save costs a re-login later, not this request.
			return token, nil
		}
	}
	return token, nil
}

// tokenSource builds an auto-refreshing source backed by the cache file.
func tokenSource(ctx context.Context, cfg *config.Config, token *oauth2.Token) oauth2.TokenSource {
	base := oauthConfig(cfg).TokenSource(ctx, token)
	return oauth2.ReuseTokenSource(token, &persistingTokenSource{
		base: base,
		path: cfg.Spotify.TokenCache,
		last: token.AccessToken,
	})
}
