package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"skipper/internal/config"
	"skipper/internal/store"
)

func newOverrideCommand(ctx *commandContext) *cobra.Command {
	overrideCmd := &cobra.Command{
		Use:   "override",
		Short: "Manage manual performer classifications",
	}

	overrideCmd.AddCommand(newOverrideSetCommand(ctx))
	overrideCmd.AddCommand(newOverrideRemoveCommand(ctx))
	overrideCmd.AddCommand(newOverrideListCommand(ctx))

	return overrideCmd
}

func newOverrideSetCommand(ctx *commandContext) *cobra.Command {
	var artificial bool
	var human bool
	var reason string

	cmd := &cobra.Command{
		Use:   "set <performer-id>",
		Short: "Mark a performer as artificial or human",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if artificial == human {
				return fmt.Errorf("exactly one of --artificial or --human is required")
			}
			performerID := strings.TrimSpace(args[0])
			if performerID == "" {
				return fmt.Errorf("performer id is required")
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if err := st.SetOverride(cmd.Context(), performerID, artificial, strings.TrimSpace(reason)); err != nil {
					return err
				}
				// A stale cached decision would shadow the override in history
				// views, so expire it immediately.
				if _, err := st.InvalidateCache(cmd.Context(), performerID); err != nil {
					return err
				}
				label := "human"
				if artificial {
					label = "artificial"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Override set: %s is %s\n", performerID, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&artificial, "artificial", false, "Mark the performer as artificial")
	cmd.Flags().BoolVar(&human, "human", false, "Mark the performer as human")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the override exists")
	return cmd
}

func newOverrideRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <performer-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a manual classification",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			performerID := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				removed, err := st.DeleteOverride(cmd.Context(), performerID)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "No override found for %s\n", performerID)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Override removed for %s\n", performerID)
				return nil
			})
		},
	}
}

func newOverrideListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"show"},
		Short:   "List manual classifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				overrides, err := st.ListOverrides(cmd.Context())
				if err != nil {
					return err
				}
				if len(overrides) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No overrides set")
					return nil
				}
				rows := make([][]string, 0, len(overrides))
				for _, override := range overrides {
					label := "human"
					if override.IsArtificial {
						label = "artificial"
					}
					rows = append(rows, []string{
						override.PerformerID,
						label,
						override.Reason,
						override.Timestamp.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Performer", "Verdict", "Reason", "Set"},
					rows,
				))
				return nil
			})
		},
	}
}
