package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/museum-events/internal/calendar"
	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/filter"
	"github.com/pfrederiksen/museum-events/internal/storage"
)

// filterOptions are the flags shared by list and calendar
type filterOptions struct {
	feed     string
	venues   []string
	types    []string
	keywords []string
	dateRng  string
	weekends bool
	upcoming int
}

func (f *filterOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.feed, "feed", "", "Feed file to read (defaults to config output.feed_path)")
	cmd.Flags().StringSliceVar(&f.venues, "venue", nil, "Only these venue ids (repeatable)")
	cmd.Flags().StringSliceVar(&f.types, "type", nil, "Only these event types (repeatable)")
	cmd.Flags().StringSliceVar(&f.keywords, "keyword", nil, "Title or description contains any keyword")
	cmd.Flags().StringVar(&f.dateRng, "range", "", "Date range: 'Mar 1-15', 'March 1 - April 15' or 'March'")
	cmd.Flags().BoolVar(&f.weekends, "weekends", false, "Only Saturday and Sunday events")
	cmd.Flags().IntVar(&f.upcoming, "days", 0, "Only events within this many days (0 = no limit)")
}

func (f *filterOptions) build(g *globalOptions) (*filter.Filter, error) {
	flt := filter.NewFilter()
	flt.Venues = append(flt.Venues, f.venues...)
	flt.Types = append(flt.Types, f.types...)
	flt.Keywords = append(flt.Keywords, f.keywords...)
	flt.WeekendsOnly = f.weekends

	if f.dateRng != "" {
		from, to, err := filter.ParseDateRange(f.dateRng, g.now())
		if err != nil {
			return nil, err
		}
		flt.DateFrom = from
		flt.DateTo = to
	}
	return flt, nil
}

// checkTypes rejects --type values that are neither a classified type nor
// a type some feed event carries
func checkTypes(types []string, events []*event.Event) error {
	known := event.Types()
	for _, evt := range events {
		known = append(known, evt.Type)
	}

	for _, t := range types {
		found := false
		for _, k := range known {
			if strings.EqualFold(strings.TrimSpace(t), k) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown event type %q (known: %s)", t, strings.Join(event.Types(), ", "))
		}
	}
	return nil
}

// feedPath is --feed or the configured feed path
func (f *filterOptions) feedPath(g *globalOptions) (string, error) {
	if f.feed != "" {
		return f.feed, nil
	}
	cfg, err := g.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Output.FeedPath, nil
}

// loadEvents reads the feed and applies the filter flags
func (f *filterOptions) loadEvents(g *globalOptions) ([]*event.Event, *filter.Filter, error) {
	path, err := f.feedPath(g)
	if err != nil {
		return nil, nil, err
	}

	feed, err := storage.LoadFeed(path)
	if err != nil {
		return nil, nil, err
	}
	if feed == nil {
		return nil, nil, fmt.Errorf("feed not found: %s (run 'museum-events aggregate' first)", path)
	}

	if err := checkTypes(f.types, feed.Events); err != nil {
		return nil, nil, err
	}

	flt, err := f.build(g)
	if err != nil {
		return nil, nil, err
	}

	events := flt.Apply(feed.Events)
	if f.upcoming > 0 {
		now := g.now()
		within := make([]*event.Event, 0, len(events))
		for _, evt := range events {
			if evt.IsUpcoming(now) && evt.IsWithinDays(f.upcoming, now) {
				within = append(within, evt)
			}
		}
		events = within
	}

	return events, flt, nil
}

func newListCmd(g *globalOptions) *cobra.Command {
	var (
		fo      filterOptions
		sortBy  string
		format  string
		eventID string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List and filter events from the feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := ParseFormat(format)
			if err != nil {
				return err
			}
			order, err := ParseSortOrder(sortBy)
			if err != nil {
				return err
			}

			if eventID != "" {
				path, err := fo.feedPath(g)
				if err != nil {
					return err
				}
				evt, err := storage.GetEventByID(path, eventID)
				if err != nil {
					return err
				}
				return WriteList(cmd.OutOrStdout(), &ListResult{
					Filter:     "ID: " + eventID,
					Events:     []*event.Event{evt},
					EventCount: 1,
				}, outFormat)
			}

			events, flt, err := fo.loadEvents(g)
			if err != nil {
				return err
			}

			sorted := make([]*event.Event, len(events))
			copy(sorted, events)
			sortEvents(sorted, order)

			return WriteList(cmd.OutOrStdout(), &ListResult{
				Filter:     flt.String(),
				Events:     sorted,
				EventCount: len(sorted),
			}, outFormat)
		},
	}

	fo.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "date", "Sort by: date, venue or title")
	cmd.Flags().StringVar(&eventID, "id", "", "Show only the event with this id (filters are ignored)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}

func newCalendarCmd(g *globalOptions) *cobra.Command {
	var (
		fo     filterOptions
		output string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Export feed events as an iCalendar (.ics) file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, _, err := fo.loadEvents(g)
			if err != nil {
				return err
			}

			ics := calendar.GenerateICS(events, g.now())
			if output == "" || output == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), ics)
				return err
			}
			if !strings.HasSuffix(strings.ToLower(output), ".ics") {
				output += ".ics"
			}
			if err := storage.WriteFileAtomic(output, []byte(ics), 0644); err != nil {
				return fmt.Errorf("writing calendar: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d events to %s\n", strings.Count(ics, "BEGIN:VEVENT"), output)
			return nil
		},
	}

	fo.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}
