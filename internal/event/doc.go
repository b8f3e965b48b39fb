// Package event provides the canonical museum event record and the pure
// normalization steps that produce it.
//
// Free-form dates are normalized to ISO calendar dates through a fixed cascade of
// layouts followed by a regex fallback. Time ranges are normalized to a display
// string. Build combines extracted fields with a venue profile into an Event with
// a deterministic id, and Diff compares a fresh event list against a previously
// published Feed using stable keys derived from venue, title, and date.
package event
