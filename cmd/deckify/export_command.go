package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"deckify/internal/config"
	"deckify/internal/export"
	"deckify/internal/logging"
	"deckify/internal/notes"
	"deckify/internal/services"
	"deckify/internal/services/ankiconnect"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export approved cards",
	}
	exportCmd.AddCommand(newExportCSVCommand(ctx))
	exportCmd.AddCommand(newExportAnkiCommand(ctx))
	return exportCmd
}

func newExportCSVCommand(ctx *commandContext) *cobra.Command {
	var sheetFlag string
	var deckFlag string
	var outFlag string
	var stdout bool

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write approved cards to a CSV file for Anki import",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cards, path, err := approvedCards(ctx, sheetFlag)
			if err != nil {
				return err
			}
			if stdout {
				if err := export.WriteCSV(cmd.OutOrStdout(), cards); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}

			dir := cfg.Paths.ExportDir
			if strings.TrimSpace(outFlag) != "" {
				if dir, err = config.ExpandPath(outFlag); err != nil {
					return err
				}
			}
			deck := firstNonBlank(deckFlag, cfg.Anki.Deck)
			written, err := export.WriteFile(dir, deck, cards, time.Now())
			if err != nil {
				return err
			}
			ctx.log().Info("csv export written",
				slog.String(logging.FieldEventType, "csv_exported"),
				slog.String("path", written),
				slog.String("sheet", path),
				slog.Int(logging.FieldCardCount, len(cards)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d cards to %s\n", len(cards), written)
			return nil
		},
	}

	addSheetFlag(cmd, &sheetFlag)
	cmd.Flags().StringVar(&deckFlag, "deck", "", "Deck name used for the file name (default: [anki] deck)")
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Directory to write into (default: [paths] export_dir)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the CSV instead of writing a file")
	return cmd
}

func newExportAnkiCommand(ctx *commandContext) *cobra.Command {
	var sheetFlag string
	var deckFlag string
	var modelFlag string
	var createDeck bool

	cmd := &cobra.Command{
		Use:   "anki",
		Short: "Send approved cards to Anki through AnkiConnect",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cards, _, err := approvedCards(ctx, sheetFlag)
			if err != nil {
				return err
			}
			deck := firstNonBlank(deckFlag, cfg.Anki.Deck)
			model := firstNonBlank(modelFlag, cfg.Anki.Model)
			logger := logging.NewComponentLogger(ctx.log(), "anki-export")

			client := ankiconnect.NewClient(cfg.Anki)
			if !client.Available(cmd.Context()) {
				return fmt.Errorf("AnkiConnect unreachable at %s; start Anki with the AnkiConnect add-on", client.Endpoint())
			}
			if createDeck {
				if err := client.CreateDeck(cmd.Context(), deck); err != nil {
					return ankiError(err)
				}
			}
			ids, err := client.AddNotes(cmd.Context(), deck, model, cards, ankiconnect.NoteOptions{
				AllowDuplicate: cfg.Anki.AllowDuplicate,
				DuplicateScope: cfg.Anki.DuplicateScope,
			})
			if err != nil {
				logger.Error("anki export failed", logging.Error(err), slog.String(logging.FieldErrorHint, services.Hint(err)))
				return ankiError(err)
			}

			refused := 0
			for _, id := range ids {
				if id == 0 {
					refused++
				}
			}
			added := len(cards) - refused
			logger.Info("anki export completed",
				slog.String(logging.FieldEventType, "anki_exported"),
				slog.String("deck", deck),
				slog.Int(logging.FieldCardCount, added),
				slog.Int("refused", refused),
			)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sent %d cards to Anki\n", added)
			if refused > 0 {
				fmt.Fprintf(out, "%d card(s) were refused by Anki (usually duplicates in %s scope)\n", refused, cfg.Anki.DuplicateScope)
			}
			return nil
		},
	}

	addSheetFlag(cmd, &sheetFlag)
	cmd.Flags().StringVar(&deckFlag, "deck", "", "Target deck (default: [anki] deck)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Note type (default: [anki] model)")
	cmd.Flags().BoolVar(&createDeck, "create-deck", true, "Create the deck when it does not exist")
	return cmd
}

func approvedCards(ctx *commandContext, sheetFlag string) ([]notes.Card, string, error) {
	sheet, path, err := ctx.loadSheet(sheetFlag)
	if err != nil {
		return nil, path, err
	}
	cards, err := sheet.Approved()
	if err != nil {
		return nil, path, err
	}
	if len(cards) == 0 {
		return nil, path, fmt.Errorf("no approved cards in %s; run `deckify review` first", path)
	}
	return cards, path, nil
}

func ankiError(err error) error {
	var apiErr *ankiconnect.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("AnkiConnect rejected %s: %s", apiErr.Action, apiErr.Message)
	}
	return fmt.Errorf("%w (%s)", err, services.Hint(err))
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
