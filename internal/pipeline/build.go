package pipeline

import (
	"fmt"
	"time"

	"github.com/pfrederiksen/museum-events/internal/aggregate"
	"github.com/pfrederiksen/museum-events/internal/config"
	"github.com/pfrederiksen/museum-events/internal/extract"
	"github.com/pfrederiksen/museum-events/internal/logger"
	"github.com/pfrederiksen/museum-events/internal/monitor"
	"github.com/pfrederiksen/museum-events/internal/source"
	"github.com/pfrederiksen/museum-events/internal/venue"
)

// New builds a Runner from configuration. now anchors the cutoff and yearless
// dates; mon may be nil.
func New(cfg *config.Config, mon *monitor.Monitor, now time.Time) (*Runner, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("building venue registry: %w", err)
	}

	opts := cfg.ExtractOptions()
	opts.Now = func() time.Time { return now }
	extractor, err := extract.New(opts)
	if err != nil {
		return nil, fmt.Errorf("creating extractor: %w", err)
	}

	cutoff, err := aggregate.ResolveCutoff(cfg.Policy.Cutoff, now)
	if err != nil {
		return nil, err
	}

	chains, err := BuildChains(cfg, reg, source.NewFetcher(cfg.FetchOptions()))
	if err != nil {
		return nil, err
	}

	return &Runner{
		Chains:       chains,
		Registry:     reg,
		Extractor:    extractor,
		BuildOptions: cfg.BuildOptions(),
		Aggregator: &aggregate.Aggregator{
			Cutoff:          cutoff,
			PlaceholderDate: cfg.Policy.PlaceholderDate,
			Now:             func() time.Time { return now },
		},
		Monitor: mon,
	}, nil
}

// BuildChains creates one strategy chain per enabled venue, in configuration
// order. CSV strategies without explicit paths use the files discovered in
// output.csv_dir.
func BuildChains(cfg *config.Config, reg *venue.Registry, fetcher *source.Fetcher) ([]*source.Chain, error) {
	var discovered map[string][]string
	if needsDiscovery(cfg) {
		byVenue, unmatched, err := source.DiscoverCSV(cfg.Output.CSVDir, reg)
		if err != nil {
			return nil, fmt.Errorf("discovering csv files: %w", err)
		}
		for _, path := range unmatched {
			logger.Warn("CSV file matches no venue", logger.Fields{"file": path})
		}
		discovered = byVenue
	}

	enabled := cfg.EnabledVenues()
	chains := make([]*source.Chain, 0, len(enabled))
	for _, v := range enabled {
		chain := &source.Chain{
			VenueID:    v.ID,
			Strategies: make([]source.Adapter, 0, len(v.Strategies)),
			Timeout:    cfg.Fetch.VenueTimeout,
		}

		for _, s := range v.Strategies {
			switch s.Type {
			case config.StrategyCSV:
				paths := s.Paths
				if len(paths) == 0 {
					paths = discovered[v.ID]
				}
				chain.Strategies = append(chain.Strategies, source.NewCSVAdapter(paths...))
			case config.StrategyHTML:
				chain.Strategies = append(chain.Strategies, source.NewHTMLAdapter(s.URL, s.Selectors, fetcher))
			case config.StrategyJSON:
				chain.Strategies = append(chain.Strategies, source.NewJSONAdapter(s.URL, fetcher))
			default:
				return nil, fmt.Errorf("venue %s: %w", v.ID, config.ErrInvalidStrategyType)
			}
		}

		chains = append(chains, chain)
	}

	return chains, nil
}

func needsDiscovery(cfg *config.Config) bool {
	for _, v := range cfg.EnabledVenues() {
		for _, s := range v.Strategies {
			if s.Type == config.StrategyCSV && len(s.Paths) == 0 {
				return true
			}
		}
	}
	return false
}
