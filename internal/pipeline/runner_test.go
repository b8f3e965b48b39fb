package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pfrederiksen/museum-events/internal/aggregate"
	"github.com/pfrederiksen/museum-events/internal/config"
	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/extract"
	"github.com/pfrederiksen/museum-events/internal/monitor"
	"github.com/pfrederiksen/museum-events/internal/source"
	"github.com/pfrederiksen/museum-events/internal/venue"
)

var fixedNow = time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)

type fakeAdapter struct {
	name    string
	records []extract.RawRecord
	err     error
	delay   time.Duration
	panics  bool
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) FetchRawRecords(ctx context.Context) ([]extract.RawRecord, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("boom")
	}
	return f.records, f.err
}

func newTestRunner(t *testing.T, policy extract.DatePolicy, chains ...*source.Chain) *Runner {
	t.Helper()

	reg, err := venue.NewRegistry(venue.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	x, err := extract.New(extract.Options{
		DatePolicy:      policy,
		PlaceholderDate: "2099-12-31",
		Now:             func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatal(err)
	}

	return &Runner{
		Chains:    chains,
		Registry:  reg,
		Extractor: x,
		Aggregator: &aggregate.Aggregator{
			PlaceholderDate: "2099-12-31",
			Now:             func() time.Time { return fixedNow },
		},
		newRunID: func() string { return "run-1" },
	}
}

func chain(venueID string, adapters ...source.Adapter) *source.Chain {
	return &source.Chain{VenueID: venueID, Strategies: adapters, Timeout: time.Second}
}

func TestRunner_Run(t *testing.T) {
	moma := chain("moma", &fakeAdapter{name: "csv", records: []extract.RawRecord{
		{"Name": "Talk A", "Date": "July 10, 2025"},
		{"Name": "", "Date": ""},
		{"Name": "", "Date": "2025-07-11"},
		{"Name": "Sculpture Walk", "Date": "banana"},
	}})
	met := chain("met",
		&fakeAdapter{name: "json", err: errors.New("503")},
		&fakeAdapter{name: "csv", records: []extract.RawRecord{{"title": "Talk A", "date": "2025-07-10"}}},
	)
	asia := chain("asia", &fakeAdapter{name: "html", panics: true})
	nyu := chain("nyu", &fakeAdapter{name: "csv", err: errors.New("no such file")})

	r := newTestRunner(t, extract.DatePolicyDrop, moma, met, asia, nyu)
	r.Monitor = monitor.New(nil, monitor.Thresholds{}, nil)

	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", report.RunID)
	}

	var ids []string
	for _, e := range report.Feed.Events {
		ids = append(ids, e.ID)
	}
	want := []string{"moma-1-20250710", "met-1-20250710"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}

	if len(report.Sources) != 4 {
		t.Fatalf("len(Sources) = %d, want 4", len(report.Sources))
	}

	momaReport := report.Sources[0]
	if momaReport.Records != 4 || momaReport.Events != 1 {
		t.Errorf("moma records/events = %d/%d, want 4/1", momaReport.Records, momaReport.Events)
	}
	wantSkipped := map[string]int{SkipBlankRow: 1, SkipMissingTitle: 1, SkipUnparseableDate: 1}
	if !reflect.DeepEqual(momaReport.Skipped, wantSkipped) {
		t.Errorf("moma skipped = %v, want %v", momaReport.Skipped, wantSkipped)
	}

	metReport := report.Sources[1]
	if metReport.Strategy != "csv" || len(metReport.Attempts) != 2 || metReport.Failure != source.FailureNone {
		t.Errorf("met report = %+v", metReport)
	}

	if report.Sources[2].Failure != source.FailurePanic {
		t.Errorf("asia failure = %q, want panic", report.Sources[2].Failure)
	}
	if report.Sources[3].Failure != source.FailureAllStrategiesFailed || report.Sources[3].Error != "no such file" {
		t.Errorf("nyu report = %+v", report.Sources[3])
	}

	failed := report.Failed()
	if len(failed) != 2 || failed[0].VenueID != "asia" || failed[1].VenueID != "nyu" {
		t.Errorf("Failed() = %+v", failed)
	}

	log := r.Monitor.Log()
	if log.LastRunID != "run-1" || log.LastFeedEvents != 2 {
		t.Errorf("health log run = %q/%d", log.LastRunID, log.LastFeedEvents)
	}
	if log.Venues["nyu"].ConsecutiveFailures != 1 || log.Venues["nyu"].LastError != "no such file" {
		t.Errorf("nyu health = %+v", log.Venues["nyu"])
	}
	if log.Venues["moma"].LastEventsCount != 1 || log.Venues["moma"].LastStrategy != "csv" {
		t.Errorf("moma health = %+v", log.Venues["moma"])
	}
}

func TestRunner_PlaceholderPolicy(t *testing.T) {
	moma := chain("moma", &fakeAdapter{name: "csv", records: []extract.RawRecord{
		{"Name": "Sculpture Walk", "Date": "banana"},
	}})

	report, err := newTestRunner(t, extract.DatePolicyPlaceholder, moma).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Feed.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(report.Feed.Events))
	}
	if got := report.Feed.Events[0].ID; got != "moma-1-20991231" {
		t.Errorf("ID = %q, want moma-1-20991231", got)
	}
}

func TestRunner_DeterministicAcrossTiming(t *testing.T) {
	records := func(title string) []extract.RawRecord {
		return []extract.RawRecord{
			{"Name": title + " 1", "Date": "2025-07-10"},
			{"Name": title + " 2", "Date": "2025-07-11"},
		}
	}

	ids := func(metDelay, momaDelay time.Duration) []string {
		r := newTestRunner(t, extract.DatePolicyDrop,
			chain("met", &fakeAdapter{name: "csv", records: records("Met"), delay: metDelay}),
			chain("moma", &fakeAdapter{name: "csv", records: records("MoMA"), delay: momaDelay}),
		)
		report, err := r.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		var out []string
		for _, e := range report.Feed.Events {
			out = append(out, e.ID)
		}
		return out
	}

	first := ids(30*time.Millisecond, 0)
	second := ids(0, 30*time.Millisecond)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ids depend on fetch timing: %v vs %v", first, second)
	}
}

func TestRunner_Errors(t *testing.T) {
	r := newTestRunner(t, extract.DatePolicyDrop)
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrNoChains) {
		t.Errorf("Run() error = %v, want ErrNoChains", err)
	}

	r = newTestRunner(t, extract.DatePolicyDrop, chain("met", &fakeAdapter{name: "csv"}))
	r.Extractor = nil
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrNoExtractor) {
		t.Errorf("Run() error = %v, want ErrNoExtractor", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r = newTestRunner(t, extract.DatePolicyDrop, chain("met", &fakeAdapter{name: "csv"}))
	if _, err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

const momaCSV = `Name,Date,Time,Event Type,Short Description,Location,More Info:,
Talk A,"July 10, 2025",6pm-8pm,Lecture,An evening talk,Titus Theater 1,www.moma.org/calendar/events/1,
Film B,08/02/2025,,Film,"A screening, with discussion",MoMA,,https://www.moma.org/calendar/film/2
,,,,,,,
Sculpture Walk,banana,2 PM,,,,,
`

func TestNew_FromConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "MoMA_events.csv"), []byte(momaCSV), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "unrelated.csv"), []byte("a,b\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Output.CSVDir = dir

	mon := monitor.New(nil, cfg.Thresholds(), nil)
	r, err := New(cfg, mon, fixedNow)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(r.Chains) != 7 {
		t.Fatalf("len(Chains) = %d, want 7", len(r.Chains))
	}

	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var ids []string
	for _, e := range report.Feed.Events {
		ids = append(ids, e.ID)
	}
	want := []string{"moma-1-20250710", "moma-2-20250802", "moma-3-20991231"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}

	talk := report.Feed.Events[0]
	if talk.Time != "6:00 PM - 8:00 PM" || talk.Type != "Lecture" || talk.URL != "https://www.moma.org/calendar/events/1" {
		t.Errorf("Talk A = %+v", talk)
	}
	film := report.Feed.Events[1]
	if film.Location != "MoMA, 11 West 53rd Street, New York, NY" {
		t.Errorf("Film B location = %q, want venue default", film.Location)
	}
	if film.Time != event.PlaceholderTime {
		t.Errorf("Film B time = %q, want placeholder", film.Time)
	}
	if !reflect.DeepEqual(report.Feed.Metadata.MuseumsScraped, []string{"moma"}) {
		t.Errorf("museums_scraped = %v", report.Feed.Metadata.MuseumsScraped)
	}

	if len(report.Failed()) != 6 {
		t.Errorf("len(Failed()) = %d, want 6", len(report.Failed()))
	}
}

func TestBuildChains(t *testing.T) {
	cfg := config.Default()
	cfg.Output.CSVDir = t.TempDir()
	cfg.Venues = []config.VenueConfig{
		{
			Profile: venue.Profile{ID: "moma", DisplayName: "MoMA"},
			Strategies: []config.StrategyConfig{
				{Type: config.StrategyJSON, URL: "https://example.org/events.json"},
				{Type: config.StrategyHTML, URL: "https://example.org/calendar"},
				{Type: config.StrategyCSV, Paths: []string{"a.csv"}},
			},
		},
		{Profile: venue.Profile{ID: "met"}, Disabled: true},
	}

	reg, err := cfg.Registry()
	if err != nil {
		t.Fatal(err)
	}
	chains, err := BuildChains(cfg, reg, source.NewFetcher(cfg.FetchOptions()))
	if err != nil {
		t.Fatalf("BuildChains() error = %v", err)
	}

	if len(chains) != 1 {
		t.Fatalf("len(chains) = %d, want 1", len(chains))
	}
	var names []string
	for _, s := range chains[0].Strategies {
		names = append(names, s.Name())
	}
	if !reflect.DeepEqual(names, []string{"json", "html", "csv"}) {
		t.Errorf("strategies = %v", names)
	}
	if chains[0].Timeout != cfg.Fetch.VenueTimeout {
		t.Errorf("Timeout = %v, want %v", chains[0].Timeout, cfg.Fetch.VenueTimeout)
	}
}
