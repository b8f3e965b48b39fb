package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/venue"
)

// Record-level errors. Callers count and skip the record.
var (
	ErrBlankRow        = errors.New("blank row")
	ErrMissingTitle    = errors.New("missing title")
	ErrUnparseableDate = errors.New("unparseable date")
	ErrInvalidPolicy   = errors.New("invalid date policy")
)

// DatePolicy decides what happens to a record whose date cannot be parsed
type DatePolicy string

const (
	// DatePolicyDrop rejects the record with ErrUnparseableDate
	DatePolicyDrop DatePolicy = "drop"
	// DatePolicyPlaceholder keeps the record with Options.PlaceholderDate
	DatePolicyPlaceholder DatePolicy = "placeholder"
)

// DefaultDescriptionMax is the display limit for descriptions, in runes
const DefaultDescriptionMax = 200

// Options configures an Extractor
type Options struct {
	DatePolicy      DatePolicy
	PlaceholderDate string
	DescriptionMax  int
	WordBoundary    bool
	Now             func() time.Time
}

// Extractor turns raw records into event.Partial values
type Extractor struct {
	opts Options
}

// New creates an Extractor. The date policy must be set explicitly.
func New(opts Options) (*Extractor, error) {
	switch opts.DatePolicy {
	case DatePolicyDrop:
	case DatePolicyPlaceholder:
		if _, err := time.Parse(event.DateLayout, opts.PlaceholderDate); err != nil {
			return nil, fmt.Errorf("placeholder date %q: %w", opts.PlaceholderDate, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, opts.DatePolicy)
	}

	if opts.DescriptionMax <= 0 {
		opts.DescriptionMax = DefaultDescriptionMax
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Extractor{opts: opts}, nil
}

// Extract maps one raw record to event fields for venue v
func (x *Extractor) Extract(row RawRecord, v venue.Profile) (*event.Partial, error) {
	if row.IsBlank() {
		return nil, ErrBlankRow
	}

	title := cleanText(FirstNonEmpty(row, TitleKeys))
	if title == "" {
		return nil, ErrMissingTitle
	}

	p := &event.Partial{Title: title}

	rawDate := FirstNonEmpty(row, DateKeys)
	if date, ok := event.NormalizeDateAt(rawDate, x.opts.Now()); ok {
		p.Date = date
	} else if x.opts.DatePolicy == DatePolicyPlaceholder {
		p.Date = x.opts.PlaceholderDate
		p.DatePlaceholder = true
	} else {
		return nil, fmt.Errorf("%w: %q", ErrUnparseableDate, rawDate)
	}

	p.Time = extractTime(FirstNonEmpty(row, TimeKeys), rawDate)
	p.Type = cleanText(FirstNonEmpty(row, TypeKeys))
	p.Description = Truncate(cleanText(FirstNonEmpty(row, DescriptionKeys)), x.opts.DescriptionMax, x.opts.WordBoundary)

	location := cleanText(FirstNonEmpty(row, LocationKeys))
	if location == "" || v.IsSelfReference(location) {
		location = v.DefaultLocation
	}
	p.Location = location

	if u, ok := FindURL(row); ok {
		p.URL = u
	} else {
		p.URL = v.BaseURL
	}

	return p, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// extractTime normalizes the time column, falling back to the clock part of
// an ISO timestamp in the date column. Returns "" when no time is known.
func extractTime(rawTime, rawDate string) string {
	if rawTime != "" {
		if t := event.NormalizeTime(rawTime); t != event.PlaceholderTime {
			return t
		}
	}

	if len(rawDate) > len(event.DateLayout) {
		for _, layout := range timestampLayouts {
			ts, err := time.Parse(layout, rawDate)
			if err != nil {
				continue
			}
			if ts.Hour() == 0 && ts.Minute() == 0 {
				return ""
			}
			return event.Clock{Hour: ts.Hour(), Minute: ts.Minute()}.String()
		}
	}

	return ""
}
