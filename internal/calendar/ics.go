// Package calendar exports feed events as an RFC 5545 iCalendar file.
package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/museum-events/internal/event"
)

const (
	// TimeZone is the zone museum display times are given in
	TimeZone = "America/New_York"
	// ProdID identifies the producing application
	ProdID = "-//Museum Events//museum-events//EN"

	uidDomain     = "museum-events"
	maxLineOctets = 75
	dateLayout    = "20060102"
	localLayout   = "20060102T150405"
)

// GenerateICS renders events as one calendar. Events with a parseable time
// become timed events in TimeZone, the rest become all-day events. Events
// without a valid date are skipped.
func GenerateICS(events []*event.Event, now time.Time) string {
	var ics strings.Builder

	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:"+ProdID)
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")
	writeLine(&ics, "X-WR-CALNAME:Museum Events")
	writeLine(&ics, "X-WR-TIMEZONE:"+TimeZone)

	stamp := now.UTC().Format("20060102T150405Z")
	for _, evt := range events {
		date := evt.ParsedDate()
		if date.IsZero() {
			continue
		}
		writeEvent(&ics, evt, date, stamp)
	}

	writeLine(&ics, "END:VCALENDAR")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *event.Event, date time.Time, stamp string) {
	writeLine(ics, "BEGIN:VEVENT")
	writeLine(ics, fmt.Sprintf("UID:%s@%s", evt.ID, uidDomain))
	writeLine(ics, "DTSTAMP:"+stamp)

	if r, ok := event.ParseTimeRange(evt.Time); ok {
		start := at(date, r.Start)
		end := start.Add(time.Hour)
		if r.HasEnd {
			end = at(date, r.End)
			if !end.After(start) {
				// Ranges like "10 PM - 1 AM" end the next day
				end = end.AddDate(0, 0, 1)
			}
		}
		writeLine(ics, fmt.Sprintf("DTSTART;TZID=%s:%s", TimeZone, start.Format(localLayout)))
		writeLine(ics, fmt.Sprintf("DTEND;TZID=%s:%s", TimeZone, end.Format(localLayout)))
	} else {
		writeLine(ics, "DTSTART;VALUE=DATE:"+date.Format(dateLayout))
		writeLine(ics, "DTEND;VALUE=DATE:"+date.AddDate(0, 0, 1).Format(dateLayout))
	}

	summary := evt.Title
	if evt.VenueName != "" {
		summary = fmt.Sprintf("%s (%s)", evt.Title, evt.VenueName)
	}
	writeLine(ics, "SUMMARY:"+escapeICS(summary))

	description := evt.Description
	if evt.URL != "" {
		if description != "" {
			description += "\n\n"
		}
		description += "More info: " + evt.URL
	}
	if description != "" {
		writeLine(ics, "DESCRIPTION:"+escapeICS(description))
	}
	if evt.Location != "" {
		writeLine(ics, "LOCATION:"+escapeICS(evt.Location))
	}
	if evt.Type != "" {
		writeLine(ics, "CATEGORIES:"+escapeICS(evt.Type))
	}
	if evt.URL != "" {
		writeLine(ics, "URL:"+evt.URL)
	}

	writeLine(ics, "STATUS:CONFIRMED")
	writeLine(ics, "TRANSP:OPAQUE")
	writeLine(ics, "END:VEVENT")
}

func at(date time.Time, c event.Clock) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, time.UTC)
}

// writeLine folds content at 75 octets without splitting a UTF-8 sequence
// and terminates it with CRLF
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// Continuation lines carry a leading space
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

// escapeICS escapes special characters for iCalendar text values
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
