package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"skipper/internal/config"
	"skipper/internal/services/llm"
	"skipper/internal/spotify"
	"skipper/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, database, and connectivity status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
				fmt.Fprintf(out, "Database:    %s\n", cfg.Database.Path)

				plays, err := st.PlayCount(cmd.Context())
				if err != nil {
					return err
				}
				decisions, err := st.DecisionCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Plays:       %d\n", plays)
				fmt.Fprintf(out, "Decisions:   %d\n", decisions)

				fmt.Fprintf(out, "Sources:     %s\n", enabledSources(cfg))
				fmt.Fprintf(out, "Agreement:   %d source(s), band policy %s\n",
					cfg.Classification.MinSourceAgreement, yesNo(cfg.Classification.BandPolicy))

				if cfg.LLM.Enabled {
					fmt.Fprintf(out, "LLM:         %s\n", cfg.LLM.Model)
					client := llm.NewClient(llm.Config{
						APIKey:         cfg.LLM.APIKey,
						BaseURL:        cfg.LLM.BaseURL,
						Model:          cfg.LLM.Model,
						TimeoutSeconds: cfg.LLM.TimeoutSeconds,
					})
					if err := client.HealthCheck(cmd.Context()); err != nil {
						fmt.Fprintf(out, "LLM health:  unreachable (%v)\n", err)
					} else {
						fmt.Fprintln(out, "LLM health:  ok")
					}
				} else {
					fmt.Fprintln(out, "LLM:         disabled")
				}

				return printSpotifyStatus(cmd, cfg)
			})
		},
	}
}

func enabledSources(cfg *config.Config) string {
	names := make([]string, 0, 3)
	if cfg.Sources.Wikidata.Enabled {
		names = append(names, "wikidata")
	}
	if cfg.Sources.MusicBrainz.Enabled {
		names = append(names, "musicbrainz")
	}
	if cfg.Sources.LastFM.Enabled {
		names = append(names, "lastfm")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func printSpotifyStatus(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	client, err := spotify.NewClient(cmd.Context(), cfg, nil)
	if errors.Is(err, spotify.ErrNoToken) {
		fmt.Fprintln(out, "Spotify:     not authenticated (run 'skipper auth')")
		return nil
	}
	if err != nil {
		return err
	}
	devices, err := client.Devices(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "Spotify:     authenticated, device lookup failed (%v)\n", err)
		return nil
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, "Spotify:     authenticated, no active devices")
		return nil
	}
	fmt.Fprintln(out, "Spotify:     authenticated")
	rows := make([][]string, 0, len(devices))
	for _, device := range devices {
		rows = append(rows, []string{device.Name, device.Type, yesNo(device.Active)})
	}
	fmt.Fprintln(out, renderTable([]string{"Device", "Type", "Active"}, rows))
	return nil
}
