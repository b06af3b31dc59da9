package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"deckify/internal/config"
	"deckify/internal/logging"
	"deckify/internal/review"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// log returns the command logger. Records go to the log file; --verbose
// mirrors them to stderr. Logging problems never block a command.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil || cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		verbose := c.verboseFlag != nil && *c.verboseFlag
		logger, err := logging.NewFromConfig(cfg, verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// sheetPath resolves the --sheet flag, falling back to the state directory.
func (c *commandContext) sheetPath(flag string) (string, error) {
	if trimmed := strings.TrimSpace(flag); trimmed != "" {
		return config.ExpandPath(trimmed)
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.ReviewSheetPath(), nil
}

// loadSheet reads the review sheet, pointing at "deckify analyze" when none
// exists yet.
func (c *commandContext) loadSheet(flag string) (review.Sheet, string, error) {
	path, err := c.sheetPath(flag)
	if err != nil {
		return review.Sheet{}, "", err
	}
	sheet, err := review.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return review.Sheet{}, path, fmt.Errorf("no review sheet at %s; run `deckify analyze PAGE...` first", path)
		}
		return review.Sheet{}, path, err
	}
	return sheet, path, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func addSheetFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "sheet", "", "Review sheet path (default: <state_dir>/review.yaml)")
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
