package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"skipper/internal/config"
	"skipper/internal/store"
)

func newPlaysCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "plays",
		Short: "Show recent playback history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				plays, err := st.RecentPlays(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}
				if len(plays) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No plays recorded yet")
					return nil
				}
				rows := make([][]string, 0, len(plays))
				for _, play := range plays {
					context := play.ContextName
					if context == "" {
						context = play.ContextType
					}
					rows = append(rows, []string{
						play.Timestamp.Local().Format("2006-01-02 15:04"),
						play.TrackName,
						play.ReleaseName,
						context,
						play.DeviceName,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Played", "Track", "Release", "Context", "Device"},
					rows,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum rows to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}

func newDecisionsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "Show recent classification decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				decisions, err := st.RecentDecisions(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}
				if len(decisions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No decisions recorded yet")
					return nil
				}
				rows := make([][]string, 0, len(decisions))
				for _, decision := range decisions {
					verdict := "inconclusive"
					if decision.IsArtificial != nil {
						verdict = strconv.FormatBool(*decision.IsArtificial)
					}
					name := decision.PerformerName
					if name == "" {
						name = decision.PerformerID
					}
					rows = append(rows, []string{
						decision.Timestamp.Local().Format("2006-01-02 15:04"),
						name,
						decision.Label,
						verdict,
						fmt.Sprintf("%.2f", decision.Confidence),
						fmt.Sprintf("%d/%d", decision.SourcesAgreeing, decision.MinRequired),
						yesNo(decision.LLMUsed),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Decided", "Performer", "Label", "Artificial", "Confidence", "Agreement", "LLM"},
					rows,
					4, 5,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum rows to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}
