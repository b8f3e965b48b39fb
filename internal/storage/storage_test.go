package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/monitor"
)

func testFeed() *event.Feed {
	return &event.Feed{
		LastUpdated: time.Date(2025, time.July, 1, 8, 0, 0, 0, time.UTC),
		Events: []*event.Event{
			{ID: "moma-1-20250710", VenueID: "moma", VenueName: "MoMA", Title: "Talk A & B", Date: "2025-07-10",
				Time: event.PlaceholderTime, URL: "https://www.moma.org/calendar?x=1&y=<2>"},
			{ID: "met-1-20250801", VenueID: "met", VenueName: "The Met", Title: "Gala", Date: "2025-08-01"},
		},
		Metadata: event.FeedMetadata{TotalEvents: 2, MuseumsScraped: []string{"met", "moma"}},
	}
}

func TestWriteFeed_LoadFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site", "events.json")

	if err := WriteFeed(path, testFeed()); err != nil {
		t.Fatalf("WriteFeed() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Talk A & B") || !strings.Contains(string(data), "y=<2>") {
		t.Errorf("feed should not escape HTML characters:\n%s", data)
	}
	if !strings.Contains(string(data), "\n  \"events\": [") {
		t.Errorf("feed should be indented with two spaces:\n%s", data)
	}

	loaded, err := LoadFeed(path)
	if err != nil {
		t.Fatalf("LoadFeed() error = %v", err)
	}
	if len(loaded.Events) != 2 || loaded.Events[0].ID != "moma-1-20250710" {
		t.Errorf("loaded events = %+v", loaded.Events)
	}
	if loaded.Metadata.TotalEvents != 2 {
		t.Errorf("TotalEvents = %d, want 2", loaded.Metadata.TotalEvents)
	}
}

func TestWriteFeed_Replaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.json")

	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFeed(path, testFeed()); err != nil {
		t.Fatalf("WriteFeed() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only events.json, found %v", names)
	}

	loaded, err := LoadFeed(path)
	if err != nil || loaded == nil {
		t.Fatalf("LoadFeed() = %v, %v", loaded, err)
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "events.json")
	if err := WriteFileAtomic(path, []byte("x"), 0644); err == nil {
		t.Error("expected error when directory does not exist")
	}
}

func TestLoadFeed(t *testing.T) {
	dir := t.TempDir()

	feed, err := LoadFeed(filepath.Join(dir, "absent.json"))
	if err != nil || feed != nil {
		t.Errorf("LoadFeed(absent) = %v, %v, want nil, nil", feed, err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFeed(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetEventByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := WriteFeed(path, testFeed()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		path          string
		eventID       string
		wantTitle     string
		wantErrString string
	}{
		{"found", path, "met-1-20250801", "Gala", ""},
		{"not found", path, "met-9-20250801", "", "event not found: met-9-20250801"},
		{"no feed", filepath.Join(t.TempDir(), "none.json"), "x", "", "event not found: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := GetEventByID(tt.path, tt.eventID)
			if tt.wantErrString != "" {
				if err == nil || err.Error() != tt.wantErrString {
					t.Errorf("GetEventByID() error = %v, want %q", err, tt.wantErrString)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetEventByID() error = %v", err)
			}
			if evt.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", evt.Title, tt.wantTitle)
			}
		})
	}
}

func TestStorage_Health(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	empty, err := s.LoadHealth()
	if err != nil {
		t.Fatalf("LoadHealth() error = %v", err)
	}
	if len(empty.Venues) != 0 {
		t.Errorf("expected empty log, got %v", empty.Venues)
	}

	m := monitor.New(empty, monitor.Thresholds{}, nil)
	m.Record("moma", 3, "csv", nil)
	m.RecordRun("run-1", 3)

	if err := s.SaveHealth(m.Log()); err != nil {
		t.Fatalf("SaveHealth() error = %v", err)
	}

	loaded, err := s.LoadHealth()
	if err != nil {
		t.Fatalf("LoadHealth() error = %v", err)
	}
	if loaded.Venues["moma"] == nil || loaded.Venues["moma"].LastEventsCount != 3 {
		t.Errorf("moma health = %+v", loaded.Venues["moma"])
	}
	if loaded.LastRunID != "run-1" {
		t.Errorf("LastRunID = %q, want run-1", loaded.LastRunID)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandHome("~/museum")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "museum") {
		t.Errorf("ExpandHome() = %q, want %q", got, filepath.Join(home, "museum"))
	}

	if got, _ := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome(/abs/path) = %q", got)
	}
}

func TestStorage_Path(t *testing.T) {
	s := &Storage{dataDir: "/data"}
	if got := s.Path("x.json"); got != filepath.Join("/data", "x.json") {
		t.Errorf("Path() = %q", got)
	}
	if got := s.Path("/abs/x.json"); got != "/abs/x.json" {
		t.Errorf("Path(abs) = %q", got)
	}
}
