package scraper

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"tweetstojson/pkg/config"
	"tweetstojson/pkg/export"
	"tweetstojson/pkg/logger"
	"tweetstojson/pkg/timeline"
	"tweetstojson/pkg/twitter"
	"tweetstojson/pkg/ui"
)

// Scraper runs the load, fetch and merge pipeline for one account
type Scraper struct {
	client   TimelineClient
	store    Store
	exporter export.Exporter
	printer  *ui.Printer
	params   twitter.TimelineParams
	order    timeline.Order
	runID    string
	logger   logger.Logger
}

// Result is the outcome of a run
type Result struct {
	RunID    string
	Initial  int
	Final    int
	Stats    Stats
	Duration time.Duration
}

// Added returns how many items the run contributed
func (r *Result) Added() int {
	return r.Final - r.Initial
}

// Summary renders the closing line of a run
func (r *Result) Summary() string {
	if r.Initial > 0 {
		delta := r.Added()
		if delta <= 0 {
			return "No new items found."
		}
		return fmt.Sprintf("%d new %s added.", delta, ui.Plural(delta, "item", "items"))
	}
	return fmt.Sprintf("Found %d %s.", r.Final, ui.Plural(r.Final, "item", "items"))
}

// ParamsFromConfig converts the configured search parameters to request
// parameters
func ParamsFromConfig(sp config.SearchParams) twitter.TimelineParams {
	return twitter.TimelineParams{
		ScreenName:     twitter.SanitizeScreenName(sp.ScreenName),
		Count:          sp.Count,
		IncludeRTs:     sp.IncludeRTs,
		ExcludeReplies: sp.ExcludeReplies,
		TrimUser:       sp.TrimUser,
		TweetMode:      sp.TweetMode,
		Extra:          sp.Extra,
	}
}

// New creates a Scraper. A nil printer discards terminal output.
func New(cfg *config.Config, client TimelineClient, store Store, exporter export.Exporter, printer *ui.Printer) (*Scraper, error) {
	order, err := timeline.ParseOrder(cfg.Output.Order)
	if err != nil {
		return nil, err
	}
	params := ParamsFromConfig(cfg.SearchParams)
	if !twitter.IsValidScreenName(params.ScreenName) {
		return nil, fmt.Errorf("search_params.screen_name %q is not a valid handle", cfg.SearchParams.ScreenName)
	}
	if printer == nil {
		printer = ui.NewPrinter(io.Discard, true)
	}

	runID := uuid.NewString()
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"run_id":      runID,
		"screen_name": params.ScreenName,
	})

	return &Scraper{
		client:   client,
		store:    store,
		exporter: exporter,
		printer:  printer,
		params:   params,
		order:    order,
		runID:    runID,
		logger:   log,
	}, nil
}

// Run loads the saved collection, fetches everything newer than it, and
// writes the merged result back. Request failures end the fetch early but
// what was collected is still saved. A cancelled run writes nothing: the
// fetched pages are the newest ones, and saving them would move the resume
// boundary past the tweets that were never reached.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	s.logger.InfoWithFields("run started", map[string]interface{}{
		"output": s.store.Path(),
		"order":  string(s.order),
	})

	s.printer.PrintHeader(s.params.ScreenName)

	snapshot := s.store.Load()
	s.printer.PrintExisting(snapshot.Count)

	progress := s.printer.NewProgress()
	fetched, stats := Paginate(ctx, s.client, s.params, snapshot.SinceID, s.exporter, progress, s.logger)
	progress.Finish()

	if stats.StopReason == StopCancelled {
		s.logger.WithError(stats.Err).WarnWithFields("run interrupted, output left unchanged", map[string]interface{}{
			"pages":   stats.Pages,
			"fetched": stats.Fetched,
		})
		return nil, fmt.Errorf("interrupted, %s left unchanged: %w", s.store.Path(), stats.Err)
	}

	if stats.StopReason == StopRequestError {
		s.printer.PrintWarning(fmt.Sprintf("Request failed, keeping what was fetched: %v", stats.Err))
	}

	merged := timeline.Reconcile(snapshot.Items, fetched, s.order)
	if err := s.store.Save(merged); err != nil {
		s.logger.WithError(err).Error("failed to write output file")
		return nil, fmt.Errorf("failed to write %s: %w", s.store.Path(), err)
	}

	result := &Result{
		RunID:    s.runID,
		Initial:  snapshot.Count,
		Final:    len(merged),
		Stats:    stats,
		Duration: time.Since(start),
	}

	s.printer.PrintDone(result.Summary())

	s.logger.InfoWithFields("run finished", map[string]interface{}{
		"pages":       stats.Pages,
		"fetched":     stats.Fetched,
		"skipped":     stats.Skipped,
		"stop_reason": string(stats.StopReason),
		"initial":     result.Initial,
		"final":       result.Final,
		"duration":    result.Duration,
	})

	return result, nil
}
