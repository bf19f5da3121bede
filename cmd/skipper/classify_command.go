package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"skipper/internal/classify"
	"skipper/internal/config"
	"skipper/internal/store"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "classify <performer-id> <performer-name>",
		Short: "Classify a performer without touching playback",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			performerID := strings.TrimSpace(args[0])
			performerName := strings.TrimSpace(args[1])
			if performerID == "" || performerName == "" {
				return fmt.Errorf("performer id and name are required")
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if fresh {
					invalidated, err := st.InvalidateCache(cmd.Context(), performerID)
					if err != nil {
						return err
					}
					if invalidated > 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %d cached decision(s)\n", invalidated)
					}
				}

				classifier := buildClassifier(cfg, st, nil)
				decision, results, err := classifier.Classify(cmd.Context(), performerID, performerName)
				if err != nil {
					return err
				}
				printDecision(cmd, performerName, decision, results)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "Ignore the cached decision and query sources again")
	return cmd
}

func printDecision(cmd *cobra.Command, performerName string, decision *store.Decision, results []classify.Result) {
	out := cmd.OutOrStdout()

	verdict := "inconclusive"
	if decision.IsArtificial != nil {
		verdict = strconv.FormatBool(*decision.IsArtificial)
	}
	fmt.Fprintf(out, "Performer:    %s\n", performerName)
	fmt.Fprintf(out, "Label:        %s\n", decision.Label)
	fmt.Fprintf(out, "Artificial:   %s\n", verdict)
	fmt.Fprintf(out, "Confidence:   %.2f\n", decision.Confidence)
	fmt.Fprintf(out, "Agreement:    %d of %d required\n", decision.SourcesAgreeing, decision.MinRequired)
	fmt.Fprintf(out, "Band policy:  %s\n", yesNo(decision.BandPolicyApplied))
	fmt.Fprintf(out, "LLM used:     %s\n", yesNo(decision.LLMUsed))
	fmt.Fprintf(out, "Reason:       %s\n", decision.Reason)

	if len(results) == 0 {
		return
	}
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		outcome := result.Label
		if !result.Success {
			outcome = "error: " + result.Err
		}
		signals := ""
		if len(result.Signals) > 0 {
			encoded, _ := json.Marshal(result.Signals)
			signals = string(encoded)
		}
		rows = append(rows, []string{
			result.Source,
			outcome,
			signals,
			fmt.Sprintf("%dms", result.QueryTime.Milliseconds()),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Source", "Result", "Signals", "Time"},
		rows,
		3,
	))
}
