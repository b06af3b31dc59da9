package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"deckify/internal/analysiscache"
	"deckify/internal/config"
	"deckify/internal/imageprep"
	"deckify/internal/logging"
	"deckify/internal/review"
	"deckify/internal/services"
	"deckify/internal/services/backend"
	"deckify/internal/session"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var sheetFlag string
	var approveAll bool
	var noCache bool

	cmd := &cobra.Command{
		Use:   "analyze PAGE...",
		Short: "Analyze page photos and write a review sheet",
		Long: "Analyze uploads each page image to the analysis backend in the order given,\n" +
			"consolidates the returned cards and writes them to the review sheet as pending.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sheetPath, err := ctx.sheetPath(sheetFlag)
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another deckify analyze run is in progress (lock %s)", cfg.LockPath())
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					ctx.log().Warn("failed to release analyze lock", logging.Error(err))
				}
			}()

			paths := make([]string, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				paths = append(paths, path)
			}
			pages := session.NewPages(paths)

			analyzer := &session.Analyzer{
				Preprocessor: imageprep.New(cfg.Preprocess.MaxLongEdge, cfg.Preprocess.JPEGQuality),
				Backend:      backend.NewClient(cfg.Backend),
				Concurrency:  cfg.Backend.UploadConcurrency,
				Logger:       ctx.log(),
				OnEvent:      progressPrinter(cmd.ErrOrStderr()),
			}
			if cfg.Cache.Enabled && !noCache {
				store, err := openCache(cmd.Context(), cfg, ctx.log())
				if err != nil {
					return err
				}
				defer store.Close()
				analyzer.Cache = store
			}

			res, err := analyzer.Run(cmd.Context(), pages)
			if err != nil {
				return err
			}

			state := session.State{Pages: pages}.Apply(res)
			if approveAll {
				state = state.ApproveAll()
			}
			sheet := review.FromState(state, time.Now())
			if err := sheet.Save(sheetPath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(res.Cards) > 0 {
				fmt.Fprintln(out, renderCardTable(sheet.Cards))
			}
			for _, warning := range res.Warnings {
				fmt.Fprintf(out, "warning: %s\n", warning)
			}
			if n := len(res.Annotations); n > 0 {
				fmt.Fprintf(out, "%d annotation mark(s) detected\n", n)
			}
			fmt.Fprintln(out, res.Status)
			fmt.Fprintf(out, "Review sheet: %s\n", sheetPath)

			if res.Err != nil {
				page := ""
				if res.FailedPage != nil {
					page = res.FailedPage.DisplayName()
				}
				return analysisError(page, res.Err)
			}
			return nil
		},
	}

	addSheetFlag(cmd, &sheetFlag)
	cmd.Flags().BoolVar(&approveAll, "approve-all", false, "Mark every generated card as approved")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the analysis cache for this run")
	return cmd
}

func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*analysiscache.Store, error) {
	store, err := analysiscache.Open(ctx, cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("open analysis cache: %w", err)
	}
	if cfg.Cache.RetentionDays > 0 {
		retention := time.Duration(cfg.Cache.RetentionDays) * 24 * time.Hour
		if removed, err := store.Prune(ctx, retention); err != nil {
			logger.Warn("analysis cache prune failed", logging.Error(err))
		} else if removed > 0 {
			logger.Info("analysis cache pruned", slog.Int64("removed", removed))
		}
	}
	return store, nil
}

func progressPrinter(w io.Writer) func(session.Event) {
	return func(evt session.Event) {
		switch evt.Kind {
		case session.EventPageStarted, session.EventPageSkipped:
			fmt.Fprintln(w, evt.Message)
		case session.EventPageFailed:
			fmt.Fprintf(w, "Page %s failed: %s\n", evt.Page.DisplayName(), evt.Message)
		}
	}
}

func analysisError(page string, err error) error {
	msg := "analysis stopped early"
	if page != "" {
		msg = fmt.Sprintf("analysis stopped at %s", page)
	}
	if hint := services.Hint(err); hint != "" && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w (%s)", msg, err, hint)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
