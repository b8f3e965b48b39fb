package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/museum-events/internal/calendar"
	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/logger"
	"github.com/pfrederiksen/museum-events/internal/monitor"
	"github.com/pfrederiksen/museum-events/internal/pipeline"
	"github.com/pfrederiksen/museum-events/internal/publish"
	"github.com/pfrederiksen/museum-events/internal/storage"
)

type aggregateOptions struct {
	*globalOptions
	output      string
	csvDir      string
	icsPath     string
	metricsPath string
	alertFile   string
	publish     bool
	format      string
}

func newAggregateCmd(g *globalOptions) *cobra.Command {
	opts := &aggregateOptions{globalOptions: g}

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Fetch every venue and write the event feed",
		Long: `Runs every configured venue's source strategies, normalizes and
deduplicates the events, and atomically replaces the feed file. Reports the
events that were not in the previous feed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Feed output path (overrides config)")
	cmd.Flags().StringVar(&opts.csvDir, "csv-dir", "", "Directory with CSV exports (overrides config)")
	cmd.Flags().StringVar(&opts.icsPath, "ics", "", "Also write an iCalendar file")
	cmd.Flags().StringVar(&opts.metricsPath, "metrics", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&opts.alertFile, "alert-file", "", "Write a markdown issue here when alerts fire")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Upload the feed to S3")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")

	return cmd
}

func runAggregate(cmd *cobra.Command, opts *aggregateOptions) error {
	format, err := ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.output != "" {
		cfg.Output.FeedPath = opts.output
	}
	if opts.csvDir != "" {
		cfg.Output.CSVDir = opts.csvDir
	}
	if opts.icsPath != "" {
		cfg.Output.ICSPath = opts.icsPath
	}
	if opts.metricsPath != "" {
		cfg.Output.MetricsPath = opts.metricsPath
	}
	if opts.alertFile != "" {
		cfg.Output.AlertFile = opts.alertFile
	}
	if opts.publish {
		cfg.Publish.S3.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.New(cfg.Output.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	healthLog, err := store.LoadHealth()
	if err != nil {
		// A corrupt health log must not block the feed
		logger.Warn("Starting with empty health log", logger.Fields{"error": err.Error()})
		healthLog = monitor.NewHealthLog()
	}
	mon := monitor.New(healthLog, cfg.Thresholds(), nil)

	now := opts.now()
	runner, err := pipeline.New(cfg, mon, now)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	previous, err := storage.LoadFeed(cfg.Output.FeedPath)
	if err != nil {
		logger.Warn("Could not read previous feed", logger.Fields{"error": err.Error()})
		previous = nil
	}
	diff := event.Diff(previous, report.Feed.Events)

	if err := storage.WriteFeed(cfg.Output.FeedPath, report.Feed); err != nil {
		return err
	}
	logger.Info("Feed written", logger.Fields{
		"path":   cfg.Output.FeedPath,
		"events": len(report.Feed.Events),
		"new":    len(diff.NewEvents),
	})

	if err := store.SaveHealth(mon.Log()); err != nil {
		logger.Error("Saving health log failed", nil, err)
	}

	if cfg.Output.ICSPath != "" {
		ics := calendar.GenerateICS(datedEvents(report.Feed.Events, cfg.Policy.PlaceholderDate), now)
		if err := storage.WriteFileAtomic(cfg.Output.ICSPath, []byte(ics), 0644); err != nil {
			return fmt.Errorf("writing calendar: %w", err)
		}
	}

	if cfg.Output.MetricsPath != "" {
		if err := mon.Metrics().WriteTextfile(cfg.Output.MetricsPath); err != nil {
			logger.Error("Writing metrics failed", logger.Fields{"path": cfg.Output.MetricsPath}, err)
		}
	}

	if err := writeAlerts(mon, cfg.Output.AlertFile); err != nil {
		logger.Error("Writing alerts failed", nil, err)
	}

	result := &AggregateResult{
		CheckedAt:   now.UTC().Truncate(time.Second),
		RunID:       report.RunID,
		FeedPath:    cfg.Output.FeedPath,
		TotalEvents: len(report.Feed.Events),
		NewEvents:   diff.NewEvents,
		EventCount:  len(diff.NewEvents),
		ByVenue:     diff.ByVenue,
		Sources:     report.Sources,
		Failed:      report.Failed(),
	}

	if cfg.Publish.S3.Enabled {
		upload, err := publishFeed(ctx, cfg.PublishOptions(), report.Feed)
		if err != nil {
			return err
		}
		result.Upload = upload
	}

	return WriteAggregate(cmd.OutOrStdout(), result, format, opts.verbose)
}

func publishFeed(ctx context.Context, opts publish.Options, feed *event.Feed) (*publish.UploadResult, error) {
	data, err := storage.EncodeFeed(feed)
	if err != nil {
		return nil, err
	}

	publisher, err := publish.NewS3Publisher(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("creating publisher: %w", err)
	}

	upload, err := publisher.Publish(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("publishing feed: %w", err)
	}

	logger.Info("Feed published", logger.Fields{
		"key":  upload.Key,
		"url":  upload.PublicURL,
		"size": upload.Size,
	})
	return upload, nil
}

// writeAlerts writes the alert issue to path when alerts fire, and removes a
// stale file when they do not
func writeAlerts(mon *monitor.Monitor, path string) error {
	alerts := mon.Alerts()
	for _, a := range alerts {
		logger.Warn(a.Subject, logger.Fields{"body": a.Body})
	}

	if path == "" {
		return nil
	}
	if len(alerts) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return storage.WriteFileAtomic(path, []byte(mon.AlertIssue(alerts)), 0644)
}

// datedEvents drops events that only carry the placeholder date
func datedEvents(events []*event.Event, placeholder string) []*event.Event {
	out := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if placeholder != "" && evt.Date == placeholder {
			continue
		}
		out = append(out, evt)
	}
	return out
}
