package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/monitor"
)

const (
	// DefaultDataDir holds the health log and run state
	DefaultDataDir = "~/.local/share/museum-events"
	// HealthFile is the health log file name inside the data directory
	HealthFile = "scraper_logs.json"
)

// Storage handles persistence of run state in a data directory
type Storage struct {
	dataDir string
}

// New creates a new Storage instance, creating dataDir if needed
func New(dataDir string) (*Storage, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// DataDir returns the resolved data directory
func (s *Storage) DataDir() string {
	return s.dataDir
}

// Path resolves name inside the data directory. Absolute paths are returned
// unchanged.
func (s *Storage) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dataDir, name)
}

// LoadHealth reads the health log. A missing file yields an empty log.
func (s *Storage) LoadHealth() (*monitor.HealthLog, error) {
	data, err := os.ReadFile(s.Path(HealthFile))
	if err != nil {
		if os.IsNotExist(err) {
			return monitor.NewHealthLog(), nil
		}
		return nil, fmt.Errorf("reading health log: %w", err)
	}

	log := monitor.NewHealthLog()
	if err := json.Unmarshal(data, log); err != nil {
		return nil, fmt.Errorf("parsing health log: %w", err)
	}
	if log.Venues == nil {
		log.Venues = make(map[string]*monitor.VenueHealth)
	}
	return log, nil
}

// SaveHealth writes the health log atomically
func (s *Storage) SaveHealth(log *monitor.HealthLog) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding health log: %w", err)
	}
	if err := WriteFileAtomic(s.Path(HealthFile), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing health log: %w", err)
	}
	return nil
}

// EncodeFeed renders a feed as indented JSON without HTML escaping
func EncodeFeed(feed *event.Feed) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return nil, fmt.Errorf("encoding feed: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFeed replaces the feed file at path atomically
func WriteFeed(path string, feed *event.Feed) error {
	data, err := EncodeFeed(feed)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("writing feed: %w", err)
	}
	return nil
}

// LoadFeed reads a feed file. Returns nil, nil when the file does not exist.
func LoadFeed(path string) (*event.Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading feed: %w", err)
	}

	var feed event.Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	if feed.Events == nil {
		feed.Events = make([]*event.Event, 0)
	}
	return &feed, nil
}

// GetEventByID finds an event in the feed at path
func GetEventByID(path, eventID string) (*event.Event, error) {
	feed, err := LoadFeed(path)
	if err != nil {
		return nil, fmt.Errorf("loading feed: %w", err)
	}

	if feed != nil {
		for _, evt := range feed.Events {
			if evt.ID == eventID {
				return evt, nil
			}
		}
	}

	return nil, fmt.Errorf("event not found: %s", eventID)
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it into place
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()        // nolint:errcheck
		os.Remove(tmpName) // nolint:errcheck
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading ~/ with the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
