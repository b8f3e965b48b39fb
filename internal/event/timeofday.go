package event

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	timeRangeRe  = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*([ap]\.?\s?m\.?)?\s*(?:-|–|—|to|until)\s*(\d{1,2})(?::(\d{2}))?\s*([ap]\.?\s?m\.?)?`)
	singleTimeRe = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*([ap]\.?\s?m\.?)`)
	clockRangeRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(?:-|–|—|to|until)\s*(\d{1,2}):(\d{2})\b`)
	clockTimeRe  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	noonRe       = regexp.MustCompile(`(?i)\bnoon\b`)
)

// Clock is a wall-clock time of day
type Clock struct {
	Hour   int // 0-23
	Minute int
}

// String formats the clock as "6:00 PM"
func (c Clock) String() string {
	meridiem := "AM"
	hour := c.Hour
	if hour >= 12 {
		meridiem = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, c.Minute, meridiem)
}

// TimeRange is a parsed start time with an optional end time
type TimeRange struct {
	Start  Clock
	End    Clock
	HasEnd bool
}

// String formats the range as "6:00 PM - 8:00 PM" or "2:00 PM"
func (r TimeRange) String() string {
	if !r.HasEnd {
		return r.Start.String()
	}
	return r.Start.String() + " - " + r.End.String()
}

// NormalizeTime converts a free-form time or time range into a display string.
// Returns PlaceholderTime when nothing can be parsed.
func NormalizeTime(raw string) string {
	r, ok := ParseTimeRange(raw)
	if !ok {
		return PlaceholderTime
	}
	return r.String()
}

// ParseTimeRange extracts start and end times from text such as "6pm-8pm",
// "6:00 – 7:30 PM" or "2 PM". A meridiem missing on one side is copied from
// the other; when neither side has one, PM is assumed.
func ParseTimeRange(raw string) (TimeRange, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return TimeRange{}, false
	}
	s = noonRe.ReplaceAllString(s, "12:00 PM")

	if m := timeRangeRe.FindStringSubmatch(s); m != nil {
		startMer, endMer := meridiem(m[3]), meridiem(m[6])
		if startMer == "" {
			startMer = endMer
		}
		if endMer == "" {
			endMer = startMer
		}
		if startMer == "" {
			startMer, endMer = "PM", "PM"
		}

		start, ok1 := toClock(m[1], m[2], startMer)
		end, ok2 := toClock(m[4], m[5], endMer)
		if ok1 && ok2 {
			return TimeRange{Start: start, End: end, HasEnd: true}, true
		}
	}

	if m := singleTimeRe.FindStringSubmatch(s); m != nil {
		if c, ok := toClock(m[1], m[2], meridiem(m[3])); ok {
			return TimeRange{Start: c}, true
		}
	}

	// 24-hour clock, range first
	if m := clockRangeRe.FindStringSubmatch(s); m != nil {
		start, ok1 := toClock24(m[1], m[2])
		end, ok2 := toClock24(m[3], m[4])
		if ok1 && ok2 {
			return TimeRange{Start: start, End: end, HasEnd: true}, true
		}
	}
	if m := clockTimeRe.FindStringSubmatch(s); m != nil {
		if c, ok := toClock24(m[1], m[2]); ok {
			return TimeRange{Start: c}, true
		}
	}

	return TimeRange{}, false
}

func meridiem(s string) string {
	if s == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(s), "a") {
		return "AM"
	}
	return "PM"
}

func toClock(hour, minute, mer string) (Clock, bool) {
	h := atoi(hour)
	mins := 0
	if minute != "" {
		mins = atoi(minute)
	}
	if h < 1 || h > 12 || mins < 0 || mins > 59 {
		return Clock{}, false
	}

	h %= 12
	if mer == "PM" {
		h += 12
	}
	return Clock{Hour: h, Minute: mins}, true
}

func toClock24(hour, minute string) (Clock, bool) {
	h, mins := atoi(hour), atoi(minute)
	if h < 0 || h > 23 || mins < 0 || mins > 59 {
		return Clock{}, false
	}
	return Clock{Hour: h, Minute: mins}, true
}
