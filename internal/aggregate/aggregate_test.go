package aggregate

import (
	"bytes"
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/extract"
	"github.com/pfrederiksen/museum-events/internal/logger"
	"github.com/pfrederiksen/museum-events/internal/venue"
)

var fixedNow = func() time.Time {
	return time.Date(2025, time.July, 1, 8, 0, 0, 0, time.UTC)
}

func evt(id, venueID, title, date string) *event.Event {
	return &event.Event{ID: id, VenueID: venueID, Title: title, Date: date}
}

func TestAggregate_Dedup(t *testing.T) {
	a := &Aggregator{Now: fixedNow}
	ctx := NewContext()

	first := evt("moma-1-20250710", "moma", "Talk A", "2025-07-10")
	second := evt("moma-2-20250710", "moma", "Talk A", "2025-07-10")

	feed := a.Aggregate(ctx, [][]*event.Event{{first}, {second}})

	if len(feed.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(feed.Events))
	}
	if feed.Events[0] != first {
		t.Error("expected the first occurrence to win")
	}
	if ctx.Stats().Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", ctx.Stats().Duplicates)
	}
}

func TestAggregate_LogsDroppedSignature(t *testing.T) {
	var buf bytes.Buffer
	logger.SetDefault(logger.New(logger.LevelDebug, &buf))
	defer logger.SetDefault(logger.New(logger.LevelInfo, os.Stderr))

	a := &Aggregator{Now: fixedNow}
	a.Aggregate(NewContext(), [][]*event.Event{{
		evt("moma-1-20250710", "moma", "Talk A", "2025-07-10"),
		evt("moma-2-20250710", "moma", "Talk A", "2025-07-10"),
	}})

	if !strings.Contains(buf.String(), "moma|2025-07-10|Talk A") {
		t.Errorf("expected the dropped signature in the log, got %s", buf.String())
	}
}

func TestAggregate_TitlePrefixSignature(t *testing.T) {
	a := &Aggregator{Now: fixedNow}
	prefix := strings.Repeat("x", 50)

	feed := a.Aggregate(NewContext(), [][]*event.Event{{
		evt("a", "met", prefix+" part one", "2025-07-10"),
		evt("b", "met", prefix+" part two", "2025-07-10"),
		evt("c", "moma", prefix+" part one", "2025-07-10"),
	}})

	if len(feed.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(feed.Events))
	}
}

func TestAggregate_DuplicateIDs(t *testing.T) {
	a := &Aggregator{Now: fixedNow}
	ctx := NewContext()

	feed := a.Aggregate(ctx, [][]*event.Event{{
		evt("met-1-20250710", "met", "Talk A", "2025-07-10"),
		evt("met-1-20250710", "met", "Talk B", "2025-07-10"),
	}})

	if len(feed.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(feed.Events))
	}
	if ctx.Stats().DuplicateIDs != 1 {
		t.Errorf("DuplicateIDs = %d, want 1", ctx.Stats().DuplicateIDs)
	}
}

func TestAggregate_Cutoff(t *testing.T) {
	a := &Aggregator{Cutoff: "2025-07-01", PlaceholderDate: "2099-12-31", Now: fixedNow}
	ctx := NewContext()

	feed := a.Aggregate(ctx, [][]*event.Event{{
		evt("1", "met", "Before", "2025-06-30"),
		evt("2", "met", "On", "2025-07-01"),
		evt("3", "met", "After", "2025-08-01"),
		evt("4", "met", "Placeholder", "2099-12-31"),
	}})

	var titles []string
	for _, e := range feed.Events {
		titles = append(titles, e.Title)
	}
	want := []string{"On", "After", "Placeholder"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
	if ctx.Stats().BeforeCutoff != 1 {
		t.Errorf("BeforeCutoff = %d, want 1", ctx.Stats().BeforeCutoff)
	}
}

func TestAggregate_SortedAndMetadata(t *testing.T) {
	a := &Aggregator{Now: fixedNow}

	feed := a.Aggregate(NewContext(), [][]*event.Event{
		{evt("m1", "moma", "Late", "2025-09-01"), evt("m2", "moma", "Same day first", "2025-07-10")},
		nil,
		{evt("e1", "met", "Early", "2025-07-02"), evt("e2", "met", "Same day second", "2025-07-10")},
	})

	var ids []string
	for i, e := range feed.Events {
		ids = append(ids, e.ID)
		if i > 0 && feed.Events[i-1].Date > e.Date {
			t.Errorf("events not sorted at %d: %s > %s", i, feed.Events[i-1].Date, e.Date)
		}
	}
	if want := []string{"e1", "m2", "e2", "m1"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v (stable by date)", ids, want)
	}

	if feed.Metadata.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", feed.Metadata.TotalEvents)
	}
	if want := []string{"met", "moma"}; !reflect.DeepEqual(feed.Metadata.MuseumsScraped, want) {
		t.Errorf("MuseumsScraped = %v, want %v", feed.Metadata.MuseumsScraped, want)
	}
	if !feed.LastUpdated.Equal(fixedNow()) {
		t.Errorf("LastUpdated = %v, want %v", feed.LastUpdated, fixedNow())
	}
}

func TestAggregate_Empty(t *testing.T) {
	feed := (&Aggregator{Now: fixedNow}).Aggregate(NewContext(), nil)

	if feed.Events == nil || len(feed.Events) != 0 {
		t.Errorf("Events = %v, want empty non-nil slice", feed.Events)
	}
	if feed.Metadata.MuseumsScraped == nil {
		t.Error("MuseumsScraped should be an empty list, not nil")
	}
}

func TestContext_NextSequence(t *testing.T) {
	ctx := NewContext()

	if got := ctx.NextSequence("met"); got != 1 {
		t.Errorf("first met sequence = %d, want 1", got)
	}
	if got := ctx.NextSequence("met"); got != 2 {
		t.Errorf("second met sequence = %d, want 2", got)
	}
	if got := ctx.NextSequence("moma"); got != 1 {
		t.Errorf("first moma sequence = %d, want 1", got)
	}
}

func TestResolveCutoff(t *testing.T) {
	now := time.Date(2025, time.July, 15, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		setting string
		want    string
		wantErr bool
	}{
		{"month", "2025-07-01", false},
		{"today", "2025-07-15", false},
		{"", "", false},
		{"none", "", false},
		{"2025-06-01", "2025-06-01", false},
		{"June", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			got, err := ResolveCutoff(tt.setting, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveCutoff(%q) error = %v, wantErr %v", tt.setting, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveCutoff(%q) = %q, want %q", tt.setting, got, tt.want)
			}
		})
	}
}

// run extracts, builds and aggregates rows the way the pipeline does
func run(t *testing.T, policy extract.DatePolicy, sources ...[]extract.RawRecord) *event.Feed {
	t.Helper()

	x, err := extract.New(extract.Options{DatePolicy: policy, PlaceholderDate: "2099-12-31", Now: fixedNow})
	if err != nil {
		t.Fatalf("extract.New() error = %v", err)
	}

	v := venue.Profile{ID: "moma", DisplayName: "MoMA", BaseURL: "https://www.moma.org"}
	ctx := NewContext()

	var lists [][]*event.Event
	for _, rows := range sources {
		var list []*event.Event
		for _, row := range rows {
			p, err := x.Extract(row, v)
			if err != nil {
				continue
			}
			list = append(list, event.Build(p, v, ctx.NextSequence(v.ID), event.BuildOptions{IDScheme: event.IDSchemeSequence}))
		}
		lists = append(lists, list)
	}

	a := &Aggregator{Cutoff: "2025-07-01", PlaceholderDate: "2099-12-31", Now: fixedNow}
	return a.Aggregate(ctx, lists)
}

func TestEndToEnd_CrossSourceDuplicate(t *testing.T) {
	feed := run(t, extract.DatePolicyDrop,
		[]extract.RawRecord{{"Name": "Talk A", "Date": "July 10, 2025"}},
		[]extract.RawRecord{{"title": "Talk A", "date": "2025-07-10"}},
	)

	if len(feed.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(feed.Events))
	}
	if feed.Events[0].Date != "2025-07-10" {
		t.Errorf("Date = %q, want 2025-07-10", feed.Events[0].Date)
	}
	if feed.Events[0].ID != "moma-1-20250710" {
		t.Errorf("ID = %q, want moma-1-20250710", feed.Events[0].ID)
	}
}

func TestEndToEnd_UnparseableDatePolicies(t *testing.T) {
	rows := []extract.RawRecord{{"Name": "Mystery Evening", "Date": "banana"}}

	dropped := run(t, extract.DatePolicyDrop, rows)
	if len(dropped.Events) != 0 {
		t.Errorf("drop policy: expected 0 events, got %d", len(dropped.Events))
	}

	kept := run(t, extract.DatePolicyPlaceholder, rows)
	if len(kept.Events) != 1 {
		t.Fatalf("placeholder policy: expected 1 event, got %d", len(kept.Events))
	}
	if kept.Events[0].Date != "2099-12-31" {
		t.Errorf("Date = %q, want placeholder 2099-12-31", kept.Events[0].Date)
	}
}

func TestFeed_RoundTrip(t *testing.T) {
	feed := run(t, extract.DatePolicyDrop, []extract.RawRecord{
		{"Name": "Talk A", "Date": "July 10, 2025", "Time": "6pm", "Description": "<b>bold</b> & more"},
		{"Name": "Film B", "Date": "08/02/2025", "More Info:": "www.moma.org/film"},
	})

	data, err := json.Marshal(feed)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded event.Feed
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(decoded.Events) != len(feed.Events) {
		t.Fatalf("decoded %d events, want %d", len(decoded.Events), len(feed.Events))
	}
	for i := range feed.Events {
		if *decoded.Events[i] != *feed.Events[i] {
			t.Errorf("event %d = %+v, want %+v", i, decoded.Events[i], feed.Events[i])
		}
	}
	if !reflect.DeepEqual(decoded.Metadata, feed.Metadata) {
		t.Errorf("Metadata = %+v, want %+v", decoded.Metadata, feed.Metadata)
	}
}
