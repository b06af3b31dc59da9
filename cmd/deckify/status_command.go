package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"deckify/internal/analysiscache"
	"deckify/internal/config"
	"deckify/internal/preflight"
	"deckify/internal/review"
)

type statusReport struct {
	ConfigPath    string             `json:"config_path"`
	Checks        []preflight.Result `json:"checks"`
	CacheEnabled  bool               `json:"cache_enabled"`
	CacheSummary  string             `json:"cache_summary,omitempty"`
	SheetPath     string             `json:"sheet_path"`
	SheetExists   bool               `json:"sheet_exists"`
	SheetPending  int                `json:"sheet_pending"`
	SheetApproved int                `json:"sheet_approved"`
	SheetRejected int                `json:"sheet_rejected"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the analysis backend, AnkiConnect and the review sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := collectStatus(cmd.Context(), cfg)
			report.ConfigPath = ctx.configPath
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			renderStatusReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func collectStatus(ctx context.Context, cfg *config.Config) statusReport {
	report := statusReport{
		Checks:       preflight.RunAll(ctx, cfg),
		CacheEnabled: cfg.Cache.Enabled,
		SheetPath:    cfg.ReviewSheetPath(),
	}

	if cfg.Cache.Enabled {
		report.CacheSummary = cacheSummary(ctx, cfg.Cache.Path)
	}

	if sheet, err := review.Load(report.SheetPath); err == nil {
		counts := sheet.Counts()
		report.SheetExists = true
		report.SheetPending = counts[review.DecisionPending]
		report.SheetApproved = counts[review.DecisionApprove]
		report.SheetRejected = counts[review.DecisionReject]
	}
	return report
}

func cacheSummary(ctx context.Context, path string) string {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "no cache file yet"
	}
	store, err := analysiscache.Open(ctx, path)
	if err != nil {
		return err.Error()
	}
	defer store.Close()
	stats, err := store.Stats(ctx)
	if err != nil {
		return err.Error()
	}
	return stats.String()
}

func renderStatusReport(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	checks := make([]statusLine, 0, len(report.Checks))
	for _, check := range report.Checks {
		kind := statusOK
		detail := check.Detail
		switch {
		case check.Passed:
		case check.Optional:
			kind = statusWarn
			detail += "; export csv still works"
		default:
			kind = statusError
		}
		checks = append(checks, statusLine{check.Name, kind, detail})
	}
	renderSection(out, "Checks", checks, colorize)

	local := []statusLine{}
	if report.ConfigPath != "" {
		local = append(local, statusLine{"Config", statusInfo, report.ConfigPath})
	}
	if report.CacheEnabled {
		local = append(local, statusLine{"Cache", statusInfo, report.CacheSummary})
	} else {
		local = append(local, statusLine{"Cache", statusInfo, "disabled"})
	}
	if report.SheetExists {
		kind := statusOK
		if report.SheetPending > 0 {
			kind = statusWarn
		}
		local = append(local, statusLine{"Review sheet", kind, fmt.Sprintf("%d pending, %d approved, %d rejected",
			report.SheetPending, report.SheetApproved, report.SheetRejected)})
	} else {
		local = append(local, statusLine{"Review sheet", statusInfo, "none yet"})
	}
	renderSection(out, "Local", local, colorize)
}
