// Package pipeline runs one aggregation pass: every venue's strategy chain is
// fetched concurrently, then records are extracted, built into events and
// aggregated into a feed in venue-configuration order so that sequence
// numbers and ids are reproducible.
package pipeline
