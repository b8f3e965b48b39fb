// Package source produces raw records for a venue.
//
// An Adapter fetches records from one kind of source: a CSV export, an HTML
// page (JSON-LD blocks or CSS selectors, parsed with goquery), or a JSON
// endpoint. A Chain tries a venue's adapters in order and records every
// attempt, stopping at the first one that returns records. Web sources are
// best-effort; a failed chain yields an empty Result with a FailureReason
// instead of an error.
package source
