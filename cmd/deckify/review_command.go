package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"deckify/internal/review"
)

var errQuitReview = errors.New("review quit")

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var sheetFlag string
	var approveAll bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Approve or reject pending cards",
		Long: "Review walks through the pending cards of the review sheet and asks for a\n" +
			"decision on each. Without a terminal, edit the sheet by hand or pass --approve-all.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, path, err := ctx.loadSheet(sheetFlag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if approveAll {
				changed := sheet.ApproveAll()
				if err := sheet.Save(path); err != nil {
					return err
				}
				fmt.Fprintf(out, "Approved %d pending card(s)\n", changed)
				return nil
			}

			if !isTerminal(cmd.InOrStdin()) {
				return fmt.Errorf("review needs an interactive terminal; edit %s by hand or pass --approve-all", path)
			}
			decided, err := promptDecisions(cmd.InOrStdin(), out, &sheet)
			if err != nil {
				return err
			}
			if err := sheet.Save(path); err != nil {
				return err
			}
			counts := sheet.Counts()
			fmt.Fprintf(out, "Recorded %d decision(s): %d approved, %d rejected, %d pending\n",
				decided, counts[review.DecisionApprove], counts[review.DecisionReject], counts[review.DecisionPending])
			return nil
		},
	}

	addSheetFlag(cmd, &sheetFlag)
	cmd.Flags().BoolVar(&approveAll, "approve-all", false, "Approve every pending card without prompting")
	return cmd
}

// promptDecisions asks for a decision on every pending card and records the
// answers on sheet. It returns how many decisions were recorded. Quitting or
// reaching the end of input keeps the decisions made so far.
func promptDecisions(in io.Reader, out io.Writer, sheet *review.Sheet) (int, error) {
	reader := bufio.NewReader(in)
	pending := 0
	for _, entry := range sheet.Cards {
		if entry.Decision == review.DecisionPending {
			pending++
		}
	}
	if pending == 0 {
		fmt.Fprintln(out, "No pending cards")
		return 0, nil
	}

	decided, seen := 0, 0
	for i := range sheet.Cards {
		entry := sheet.Cards[i]
		if entry.Decision != review.DecisionPending {
			continue
		}
		seen++
		printCard(out, seen, pending, entry)
		decision, err := askDecision(reader, out)
		if errors.Is(err, errQuitReview) || errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return decided, nil
		}
		if err != nil {
			return decided, err
		}
		if decision == review.DecisionPending {
			continue
		}
		if err := sheet.SetDecision(entry.ID, decision); err != nil {
			return decided, err
		}
		decided++
	}
	return decided, nil
}

func printCard(out io.Writer, index, total int, entry review.Entry) {
	fmt.Fprintf(out, "\n[%d/%d] %s", index, total, entry.Expression)
	if entry.Reading != "" {
		fmt.Fprintf(out, " (%s)", entry.Reading)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  meaning:    %s\n", singleLine(entry.Meaning))
	if entry.Example != "" {
		fmt.Fprintf(out, "  example:    %s\n", singleLine(entry.Example))
	}
	if entry.HandTranslation != "" {
		fmt.Fprintf(out, "  handwritten: %s\n", singleLine(entry.HandTranslation))
	}
	if entry.AITranslation != "" {
		fmt.Fprintf(out, "  suggested:  %s\n", singleLine(entry.AITranslation))
	}
	fmt.Fprintf(out, "  confidence: %s  pages: %s  needs review: %s\n",
		formatConfidence(entry.Confidence), entry.SourcePage, yesNo(entry.NeedsReview))
}

func askDecision(reader *bufio.Reader, out io.Writer) (review.Decision, error) {
	for {
		fmt.Fprint(out, "Approve? [y]es / [n]o / [s]kip / [q]uit: ")
		line, err := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if err != nil && answer == "" {
			return "", err
		}
		switch answer {
		case "y", "yes":
			return review.DecisionApprove, nil
		case "n", "no":
			return review.DecisionReject, nil
		case "s", "skip", "":
			return review.DecisionPending, nil
		case "q", "quit":
			return "", errQuitReview
		}
		fmt.Fprintf(out, "Unrecognized answer %q\n", answer)
	}
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
