package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"deckify/internal/review"
)

func newCardsCommand(ctx *commandContext) *cobra.Command {
	var sheetFlag string
	var decisionFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List the cards on the review sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, path, err := ctx.loadSheet(sheetFlag)
			if err != nil {
				return err
			}

			entries := sheet.Cards
			if strings.TrimSpace(decisionFlag) != "" {
				want, err := review.ParseDecision(decisionFlag)
				if err != nil {
					return err
				}
				filtered := make([]review.Entry, 0, len(entries))
				for _, entry := range entries {
					if entry.Decision == want {
						filtered = append(filtered, entry)
					}
				}
				entries = filtered
			}

			if jsonOutput {
				if entries == nil {
					entries = []review.Entry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No cards in %s\n", path)
				return nil
			}
			fmt.Fprintln(out, renderCardTable(entries))
			counts := sheet.Counts()
			fmt.Fprintf(out, "%d approved, %d rejected, %d pending\n",
				counts[review.DecisionApprove], counts[review.DecisionReject], counts[review.DecisionPending])
			return nil
		},
	}

	addSheetFlag(cmd, &sheetFlag)
	cmd.Flags().StringVar(&decisionFlag, "decision", "", "Only list cards with this decision (pending, approve, reject)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
