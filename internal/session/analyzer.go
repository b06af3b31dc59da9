package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"deckify/internal/analysiscache"
	"deckify/internal/imageprep"
	"deckify/internal/logging"
	"deckify/internal/notes"
	"deckify/internal/services"
	"deckify/internal/services/backend"
)

// Backend analyzes one preprocessed page image.
type Backend interface {
	AnalyzePage(ctx context.Context, image []byte, pageID string) (backend.PageAnalysis, error)
}

// Preprocessor turns a page image file into upload-ready bytes.
type Preprocessor interface {
	ProcessFile(path string) (imageprep.Result, error)
}

// Cache stores raw analysis payloads between runs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key, pageID string, imageBytes int, payload []byte) error
}

// Analyzer runs pages through preprocessing, the backend and consolidation.
type Analyzer struct {
	Preprocessor Preprocessor
	Backend      Backend
	// Cache is optional.
	Cache Cache
	// Concurrency bounds parallel uploads; values below 2 upload sequentially.
	Concurrency int
	Logger      *slog.Logger
	OnEvent     func(Event)
}

// Result is the outcome of one run.
type Result struct {
	Cards       []notes.Card
	Warnings    []string
	Annotations []backend.AnnotationMark
	// Analyzed counts pages whose analysis contributed cards.
	Analyzed int
	Status   string
	// Err is the first page failure. Cards from pages before it are kept.
	Err        error
	FailedPage *Page
}

// pageOutcome holds what one page produced before consolidation.
type pageOutcome struct {
	cards       []notes.Card
	warnings    []string
	annotations []backend.AnnotationMark
	analyzed    bool
	err         error
}

// Run analyzes pages and returns the consolidated candidates. Page failures
// are reported in Result.Err; the returned error is non-nil only for
// ErrNoPages and cancellation.
func (a *Analyzer) Run(ctx context.Context, pages []Page) (Result, error) {
	if len(pages) == 0 {
		return Result{}, ErrNoPages
	}
	logger := logging.NewComponentLogger(a.Logger, "analyzer")
	emit := a.emitter()

	var outcomes []pageOutcome
	if a.Concurrency > 1 && len(pages) > 1 {
		outcomes = a.runParallel(ctx, pages, logger, emit)
	} else {
		outcomes = a.runSequential(ctx, pages, logger, emit)
	}
	if err := ctx.Err(); err != nil {
		logger.Warn("analysis cancelled", logging.Error(err))
		return Result{}, err
	}

	var (
		collected []notes.Card
		warnings  []string
		result    Result
	)
	for i, outcome := range outcomes {
		warnings = append(warnings, outcome.warnings...)
		if outcome.err != nil {
			page := pages[i]
			result.Err = outcome.err
			result.FailedPage = &page
			break
		}
		collected = append(collected, outcome.cards...)
		result.Annotations = append(result.Annotations, outcome.annotations...)
		if outcome.analyzed {
			result.Analyzed++
		}
	}

	result.Cards = UniqueIDs(notes.Consolidate(collected), nil)
	result.Warnings = notes.DedupeWarnings(warnings)
	result.Status = fmt.Sprintf("Generated %d cards", len(result.Cards))

	attrs := []any{
		slog.String(logging.FieldEventType, "analysis_completed"),
		slog.Int(logging.FieldPageCount, len(pages)),
		slog.Int(logging.FieldCardCount, len(result.Cards)),
		slog.Int("candidates", len(collected)),
		slog.Int("warnings", len(result.Warnings)),
	}
	if result.Err != nil {
		attrs = append(attrs, logging.Error(result.Err), slog.String(logging.FieldErrorHint, services.Hint(result.Err)))
		logger.Warn("analysis stopped early", attrs...)
	} else {
		logger.Info("analysis completed", attrs...)
	}
	emit(Event{Kind: EventCompleted, Total: len(pages), Message: result.Status, Err: result.Err})
	return result, nil
}

func (a *Analyzer) runSequential(ctx context.Context, pages []Page, logger *slog.Logger, emit func(Event)) []pageOutcome {
	outcomes := make([]pageOutcome, 0, len(pages))
	for i, page := range pages {
		if ctx.Err() != nil {
			break
		}
		outcome := a.analyzePage(ctx, page, i+1, len(pages), logger, emit)
		outcomes = append(outcomes, outcome)
		if outcome.err != nil {
			break
		}
	}
	return outcomes
}

// runParallel uploads pages concurrently. Outcomes are stored by submission
// index; pages after the lowest failed index are not started, since their
// results would be discarded.
func (a *Analyzer) runParallel(ctx context.Context, pages []Page, logger *slog.Logger, emit func(Event)) []pageOutcome {
	outcomes := make([]pageOutcome, len(pages))
	var (
		mu        sync.Mutex
		firstFail = len(pages)
	)
	var g errgroup.Group
	g.SetLimit(a.Concurrency)
	for i, page := range pages {
		mu.Lock()
		stop := i > firstFail
		mu.Unlock()
		if stop || ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			mu.Lock()
			skip := i > firstFail
			mu.Unlock()
			if skip {
				return nil
			}
			outcome := a.analyzePage(ctx, page, i+1, len(pages), logger, emit)
			outcomes[i] = outcome
			if outcome.err != nil {
				mu.Lock()
				firstFail = min(firstFail, i)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if firstFail < len(pages) {
		return outcomes[:firstFail+1]
	}
	return outcomes
}

func (a *Analyzer) analyzePage(ctx context.Context, page Page, index, total int, logger *slog.Logger, emit func(Event)) pageOutcome {
	label := page.DisplayName()
	pageLogger := logger.With(
		slog.String(logging.FieldPage, label),
		slog.Int(logging.FieldPageIndex, index),
		slog.Int(logging.FieldPageCount, total),
	)
	emit(Event{Kind: EventPageStarted, Page: page, Index: index, Total: total, Message: fmt.Sprintf("Analyzing page %d of %d...", index, total)})

	prepared, err := a.Preprocessor.ProcessFile(page.Path)
	if err != nil {
		warning := fmt.Sprintf("Could not preprocess %s.", label)
		pageLogger.Warn("page preprocessing failed", logging.Error(err))
		emit(Event{Kind: EventPageSkipped, Page: page, Index: index, Total: total, Message: warning, Err: err})
		return pageOutcome{warnings: []string{warning}}
	}
	pageLogger.Debug("page preprocessed",
		slog.String("upload_size", humanize.IBytes(uint64(len(prepared.Data)))),
		slog.Int("width", prepared.Width),
		slog.Int("height", prepared.Height),
		slog.Bool("scaled", prepared.Scaled()),
	)

	analysis, err := a.fetch(ctx, page, prepared.Data, pageLogger)
	if err != nil {
		pageLogger.Error("page analysis failed", logging.Error(err), slog.String(logging.FieldErrorHint, services.Hint(err)))
		emit(Event{Kind: EventPageFailed, Page: page, Index: index, Total: total, Message: err.Error(), Err: err})
		return pageOutcome{err: err}
	}

	cards, dropped := analysis.Cards(label)
	warnings := append([]string(nil), analysis.Warnings...)
	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("Skipped %d note(s) without an expression on %s.", dropped, label))
	}
	pageLogger.Info("page analyzed",
		slog.Int(logging.FieldCardCount, len(cards)),
		slog.Int("dropped_notes", dropped),
		slog.Int("warnings", len(analysis.Warnings)),
	)
	emit(Event{Kind: EventPageFinished, Page: page, Index: index, Total: total, Message: fmt.Sprintf("%d cards from %s", len(cards), label)})
	return pageOutcome{
		cards:       cards,
		warnings:    warnings,
		annotations: analysis.Annotations,
		analyzed:    true,
	}
}

// fetch returns the page analysis, consulting the cache when configured.
// Cache failures are logged and never fail the page.
func (a *Analyzer) fetch(ctx context.Context, page Page, image []byte, logger *slog.Logger) (backend.PageAnalysis, error) {
	var key string
	if a.Cache != nil {
		key = analysiscache.Key(a.backendURL(), image, page.ID)
		payload, ok, err := a.Cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn("analysis cache read failed", logging.Error(err))
		case ok:
			var cached backend.PageAnalysis
			if err := json.Unmarshal(payload, &cached); err == nil {
				logger.Debug("analysis cache hit")
				return cached, nil
			}
			logger.Warn("analysis cache entry unreadable; re-uploading")
		}
	}

	analysis, err := a.Backend.AnalyzePage(ctx, image, page.ID)
	if err != nil {
		return backend.PageAnalysis{}, err
	}
	if a.Cache != nil {
		if payload, err := json.Marshal(analysis); err == nil {
			if err := a.Cache.Put(ctx, key, page.ID, len(image), payload); err != nil {
				logger.Warn("analysis cache write failed", logging.Error(err))
			}
		}
	}
	return analysis, nil
}

// backendURL scopes cache keys to the backend that produced the response.
func (a *Analyzer) backendURL() string {
	if b, ok := a.Backend.(interface{ BaseURL() string }); ok {
		return b.BaseURL()
	}
	return ""
}

func (a *Analyzer) emitter() func(Event) {
	if a.OnEvent == nil {
		return func(Event) {}
	}
	var mu sync.Mutex
	return func(evt Event) {
		mu.Lock()
		defer mu.Unlock()
		a.OnEvent(evt)
	}
}
