package source

import (
	"context"
	"time"

	"github.com/pfrederiksen/museum-events/internal/extract"
)

// Adapter produces raw records from one source
type Adapter interface {
	Name() string
	FetchRawRecords(ctx context.Context) ([]extract.RawRecord, error)
}

// Outcome is the result of a single strategy attempt
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeEmpty   Outcome = "empty"
	OutcomePanic   Outcome = "panic"
	OutcomeTimeout Outcome = "timeout"
)

// FailureReason explains why a chain produced no records
type FailureReason string

const (
	FailureNone                FailureReason = ""
	FailureAllStrategiesFailed FailureReason = "all_strategies_failed"
	FailureTimeout             FailureReason = "timeout"
	FailurePanic               FailureReason = "panic"
	FailureNoStrategies        FailureReason = "no_strategies"
)

// Attempt records one strategy run
type Attempt struct {
	Strategy string        `json:"strategy"`
	Outcome  Outcome       `json:"outcome"`
	Records  int           `json:"records"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Result is what a chain produced for a venue
type Result struct {
	VenueID  string
	Strategy string // strategy that produced Records
	Records  []extract.RawRecord
	Attempts []Attempt
	Failure  FailureReason
}

// OK reports whether the chain produced records
func (r *Result) OK() bool {
	return r.Failure == FailureNone
}

// LastError returns the error of the last failed attempt, if any
func (r *Result) LastError() error {
	for i := len(r.Attempts) - 1; i >= 0; i-- {
		if r.Attempts[i].Err != nil {
			return r.Attempts[i].Err
		}
	}
	return nil
}
