// Package cli implements the command-line interface for museum-events.
//
// The cli package provides the Cobra-based CLI with commands to run the
// aggregation pipeline, list and filter a feed (text/JSON, sorted by
// date/venue/title), export a calendar, print source health, and debug date
// normalization. It coordinates the config, pipeline, storage, monitor and
// publish packages.
package cli
