// Package venue defines the statically configured museums and institutions whose
// events are aggregated.
//
// A Profile is immutable once the Registry is built at startup. The Registry keeps
// venues in configuration order so that every run walks them in the same sequence,
// which keeps per-venue event ids stable across runs.
package venue
