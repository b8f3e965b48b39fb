package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/museum-events/internal/aggregate"
	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/extract"
	"github.com/pfrederiksen/museum-events/internal/logger"
	"github.com/pfrederiksen/museum-events/internal/monitor"
	"github.com/pfrederiksen/museum-events/internal/source"
	"github.com/pfrederiksen/museum-events/internal/venue"
)

// Skip reasons counted per source.
const (
	SkipBlankRow        = "blank_row"
	SkipMissingTitle    = "missing_title"
	SkipUnparseableDate = "unparseable_date"
	SkipOther           = "other"
)

var (
	// ErrNoChains is returned when the runner has nothing to fetch
	ErrNoChains = errors.New("no source chains configured")
	// ErrNoExtractor is returned when the runner has no extractor
	ErrNoExtractor = errors.New("extractor is required")
)

// SourceReport summarizes one venue in a run
type SourceReport struct {
	VenueID  string               `json:"venue"`
	Strategy string               `json:"strategy,omitempty"`
	Records  int                  `json:"records"`
	Events   int                  `json:"events"`
	Skipped  map[string]int       `json:"skipped,omitempty"`
	Failure  source.FailureReason `json:"failure,omitempty"`
	Error    string               `json:"error,omitempty"`
	Attempts []source.Attempt     `json:"attempts"`
}

// Report is the outcome of a run
type Report struct {
	RunID    string          `json:"run_id"`
	Feed     *event.Feed     `json:"-"`
	Sources  []SourceReport  `json:"sources"`
	Stats    aggregate.Stats `json:"stats"`
	Duration time.Duration   `json:"duration"`
}

// Failed returns the reports of venues that produced no events
func (r *Report) Failed() []SourceReport {
	out := make([]SourceReport, 0)
	for _, s := range r.Sources {
		if s.Events == 0 {
			out = append(out, s)
		}
	}
	return out
}

// Runner executes the pipeline
type Runner struct {
	Chains       []*source.Chain
	Registry     *venue.Registry
	Extractor    *extract.Extractor
	BuildOptions event.BuildOptions
	Aggregator   *aggregate.Aggregator
	// Monitor is optional
	Monitor *monitor.Monitor

	newRunID func() string
}

// Run fetches every chain concurrently and produces the feed. Source
// failures are reported per venue; only a run that cannot produce a feed
// returns an error.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if len(r.Chains) == 0 {
		return nil, ErrNoChains
	}
	if r.Extractor == nil {
		return nil, ErrNoExtractor
	}

	start := time.Now()
	runID := uuid.New().String()
	if r.newRunID != nil {
		runID = r.newRunID()
	}

	logger.Info("Starting run", logger.Fields{
		"run_id": runID,
		"venues": len(r.Chains),
	})

	results := r.fetchAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	aggCtx := aggregate.NewContext()
	report := &Report{
		RunID:   runID,
		Sources: make([]SourceReport, 0, len(results)),
	}
	lists := make([][]*event.Event, 0, len(results))

	for _, res := range results {
		events, sr := r.buildVenue(aggCtx, res)
		lists = append(lists, events)
		report.Sources = append(report.Sources, sr)
		r.record(res, sr)
	}

	agg := r.Aggregator
	if agg == nil {
		agg = &aggregate.Aggregator{}
	}
	report.Feed = agg.Aggregate(aggCtx, lists)
	report.Stats = aggCtx.Stats()
	report.Duration = time.Since(start)

	if r.Monitor != nil {
		r.Monitor.RecordRun(runID, len(report.Feed.Events))
		r.Monitor.Metrics().SetRunDuration(report.Duration)
	}

	logger.Info("Run complete", logger.Fields{
		"run_id":        runID,
		"events":        len(report.Feed.Events),
		"duplicates":    report.Stats.Duplicates,
		"before_cutoff": report.Stats.BeforeCutoff,
		"duration":      report.Duration.String(),
	})

	return report, nil
}

// fetchAll runs each chain in its own goroutine. Results keep chain order.
func (r *Runner) fetchAll(ctx context.Context) []*source.Result {
	results := make([]*source.Result, len(r.Chains))

	var wg sync.WaitGroup
	for i, chain := range r.Chains {
		wg.Add(1)
		go func(i int, chain *source.Chain) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Source chain panicked", logger.Fields{
						"venue": chain.VenueID,
					}, fmt.Errorf("panic: %v", rec))
					results[i] = &source.Result{
						VenueID: chain.VenueID,
						Failure: source.FailurePanic,
					}
				}
			}()
			results[i] = chain.Run(ctx)
		}(i, chain)
	}
	wg.Wait()

	return results
}

func (r *Runner) buildVenue(aggCtx *aggregate.Context, res *source.Result) ([]*event.Event, SourceReport) {
	sr := SourceReport{
		VenueID:  res.VenueID,
		Strategy: res.Strategy,
		Records:  len(res.Records),
		Skipped:  make(map[string]int),
		Failure:  res.Failure,
		Attempts: res.Attempts,
	}
	if err := res.LastError(); err != nil && !res.OK() {
		sr.Error = err.Error()
	}

	profile := r.profile(res.VenueID)
	events := make([]*event.Event, 0, len(res.Records))

	for i, rec := range res.Records {
		partial, err := r.Extractor.Extract(rec, profile)
		if err != nil {
			reason := skipReason(err)
			sr.Skipped[reason]++

			fields := logger.Fields{
				"venue":  res.VenueID,
				"row":    i + 1,
				"reason": reason,
			}
			if reason == SkipBlankRow {
				logger.Debug("Skipping record", fields)
			} else {
				fields["error"] = err.Error()
				logger.Warn("Skipping record", fields)
			}
			continue
		}

		events = append(events, event.Build(partial, profile, aggCtx.NextSequence(res.VenueID), r.BuildOptions))
	}

	sr.Events = len(events)
	if len(sr.Skipped) == 0 {
		sr.Skipped = nil
	}

	if !res.OK() {
		logger.Warn("Source failed", logger.Fields{
			"venue":    res.VenueID,
			"failure":  string(res.Failure),
			"attempts": len(res.Attempts),
			"error":    sr.Error,
		})
	} else {
		logger.Info("Source processed", logger.Fields{
			"venue":    res.VenueID,
			"strategy": res.Strategy,
			"records":  sr.Records,
			"events":   sr.Events,
		})
	}

	return events, sr
}

func (r *Runner) profile(venueID string) venue.Profile {
	if r.Registry != nil {
		if p, ok := r.Registry.Get(venueID); ok {
			return p
		}
	}
	return venue.Profile{ID: venueID, DisplayName: venueID}
}

func (r *Runner) record(res *source.Result, sr SourceReport) {
	if r.Monitor == nil {
		return
	}

	metrics := r.Monitor.Metrics()
	for _, a := range res.Attempts {
		metrics.ObserveAttempt(res.VenueID, string(a.Outcome))
	}

	var err error
	if sr.Error != "" {
		err = errors.New(sr.Error)
	} else if res.Failure != source.FailureNone {
		err = errors.New(string(res.Failure))
	}
	r.Monitor.Record(res.VenueID, sr.Events, sr.Strategy, err)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, extract.ErrBlankRow):
		return SkipBlankRow
	case errors.Is(err, extract.ErrMissingTitle):
		return SkipMissingTitle
	case errors.Is(err, extract.ErrUnparseableDate):
		return SkipUnparseableDate
	default:
		return SkipOther
	}
}
