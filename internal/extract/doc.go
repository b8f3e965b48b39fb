// Package extract maps raw source records onto event fields.
//
// Each field has an ordered list of candidate keys; the first key holding a
// non-blank value wins. Values are cleaned and normalized here (dates through
// event.NormalizeDateAt, times through event.NormalizeTime, URLs through
// NormalizeURL) so that event.Build only has to apply venue defaults.
package extract
