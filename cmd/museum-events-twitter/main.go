package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/logger"
	"github.com/pfrederiksen/museum-events/internal/notifier"
)

var (
	eventsFile  = flag.String("events-file", "", "Path to 'aggregate --format json' output (or read from stdin)")
	dryRun      = flag.Bool("dry-run", false, "Print posts without posting")
	maxPosts    = flag.Int("max-posts", 10, "Maximum number of posts")
	venueFilter = flag.String("venue", "", "Only announce events for this venue id")
	skipUndated = flag.String("skip-date", "2099-12-31", "Do not announce events with this placeholder date")
	version     = "dev"
)

// aggregateOutput is the part of the aggregate report this command reads
type aggregateOutput struct {
	NewEvents []*event.Event `json:"new_events"`
}

func main() {
	flag.Parse()

	logger.Debug("Starting", logger.Fields{"version": version})

	var reader io.Reader = os.Stdin
	if *eventsFile != "" {
		f, err := os.Open(*eventsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening events file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close() // nolint:errcheck
		reader = f
	}

	var result aggregateOutput
	if err := json.NewDecoder(reader).Decode(&result); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing JSON: %v\n", err)
		os.Exit(1)
	}

	events := selectEvents(result.NewEvents, *venueFilter, *skipUndated, *maxPosts)
	if len(events) == 0 {
		fmt.Println("No new events to announce")
		return
	}

	var n notifier.Notifier
	if *dryRun {
		n = notifier.NewDryRunNotifier(os.Stdout)
		fmt.Printf("DRY RUN MODE - Would post %d events:\n\n", len(events))
	} else {
		client, err := notifier.NewTwitterNotifier()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing Twitter client: %v\n", err)
			os.Exit(1)
		}
		n = client
	}

	if err := n.Notify(events); err != nil {
		fmt.Fprintf(os.Stderr, "Error posting: %v\n", err)
		os.Exit(1)
	}

	if !*dryRun {
		fmt.Printf("Successfully posted %d events\n", len(events))
	}
}

// selectEvents applies the venue filter, drops placeholder-dated events and
// caps the count
func selectEvents(events []*event.Event, venueID, placeholder string, limit int) []*event.Event {
	selected := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if venueID != "" && !strings.EqualFold(evt.VenueID, venueID) {
			continue
		}
		if placeholder != "" && evt.Date == placeholder {
			continue
		}
		selected = append(selected, evt)
	}

	if limit > 0 && len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}
