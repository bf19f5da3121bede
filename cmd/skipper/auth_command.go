package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"skipper/internal/spotify"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Log in to Spotify and cache the OAuth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			redirect, err := url.Parse(cfg.Spotify.RedirectURI)
			if err != nil {
				return fmt.Errorf("parse redirect_uri: %w", err)
			}

			state, err := randomState()
			if err != nil {
				return err
			}
			auth := spotify.NewAuthenticator(cfg)

			tokens := make(chan *oauth2.Token, 1)
			failures := make(chan error, 1)
			mux := http.NewServeMux()
			mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
				token, err := auth.Token(r.Context(), state, r)
				if err != nil {
					http.Error(w, "Login failed. You can close this window.", http.StatusForbidden)
					failures <- err
					return
				}
				fmt.Fprintln(w, "Login complete. You can close this window.")
				tokens <- token
			})
			server := &http.Server{Addr: redirect.Host, Handler: mux}
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					failures <- err
				}
			}()
			defer server.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Open this URL in your browser to log in:")
			fmt.Fprintln(out)
			fmt.Fprintln(out, auth.AuthURL(state))
			fmt.Fprintln(out)

			select {
			case token := <-tokens:
				if err := spotify.SaveToken(cfg.Spotify.TokenCache, token); err != nil {
					return err
				}
				fmt.Fprintf(out, "Token saved to %s\n", cfg.Spotify.TokenCache)
				return nil
			case err := <-failures:
				return fmt.Errorf("login failed: %w", err)
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(5 * time.Minute):
				return errors.New("login timed out after 5 minutes")
			}
		},
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
