package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/museum-events/internal/extract"
	"github.com/pfrederiksen/museum-events/internal/logger"
)

// ErrNoRecords is recorded when a strategy succeeds without records
var ErrNoRecords = errors.New("no records")

// DefaultChainTimeout bounds a chain that sets no Timeout of its own
const DefaultChainTimeout = 2 * time.Minute

// Chain is the ordered list of strategies for one venue
type Chain struct {
	VenueID    string
	Strategies []Adapter
	// Timeout bounds the whole chain. Zero means DefaultChainTimeout.
	Timeout time.Duration
}

type fetchOutcome struct {
	records  []extract.RawRecord
	err      error
	panicked bool
}

// Run tries each strategy in order until one returns records.
// A strategy that panics or outlives the chain timeout is recorded as a
// failed attempt; Run itself never panics because of a strategy.
func (c *Chain) Run(ctx context.Context) *Result {
	result := &Result{
		VenueID:  c.VenueID,
		Records:  make([]extract.RawRecord, 0),
		Attempts: make([]Attempt, 0, len(c.Strategies)),
	}

	if len(c.Strategies) == 0 {
		result.Failure = FailureNoStrategies
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	panicked := false
	for _, s := range c.Strategies {
		attempt, records := c.attempt(ctx, s)
		result.Attempts = append(result.Attempts, attempt)

		logger.Debug("Strategy attempt finished", logger.Fields{
			"venue":    c.VenueID,
			"strategy": attempt.Strategy,
			"outcome":  string(attempt.Outcome),
			"records":  attempt.Records,
			"duration": attempt.Duration.String(),
		})

		switch attempt.Outcome {
		case OutcomeSuccess:
			result.Strategy = attempt.Strategy
			result.Records = records
			return result
		case OutcomeTimeout:
			result.Failure = FailureTimeout
			return result
		case OutcomePanic:
			panicked = true
		}
	}

	if panicked {
		result.Failure = FailurePanic
	} else {
		result.Failure = FailureAllStrategiesFailed
	}
	return result
}

// timeout never returns zero so a hung strategy cannot block the run
func (c *Chain) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultChainTimeout
	}
	return c.Timeout
}

func (c *Chain) attempt(ctx context.Context, s Adapter) (Attempt, []extract.RawRecord) {
	attempt := Attempt{Strategy: s.Name()}
	start := time.Now()

	if err := ctx.Err(); err != nil {
		attempt.Outcome = OutcomeTimeout
		attempt.Err = err
		return attempt, nil
	}

	done := make(chan fetchOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchOutcome{err: fmt.Errorf("strategy %s panicked: %v", s.Name(), r), panicked: true}
			}
		}()
		records, err := s.FetchRawRecords(ctx)
		done <- fetchOutcome{records: records, err: err}
	}()

	select {
	case out := <-done:
		attempt.Duration = time.Since(start)
		attempt.Records = len(out.records)
		switch {
		case out.panicked:
			attempt.Outcome = OutcomePanic
			attempt.Err = out.err
		case out.err != nil && ctx.Err() != nil:
			attempt.Outcome = OutcomeTimeout
			attempt.Err = out.err
		case out.err != nil:
			attempt.Outcome = OutcomeError
			attempt.Err = out.err
		case len(out.records) == 0:
			attempt.Outcome = OutcomeEmpty
			attempt.Err = ErrNoRecords
		default:
			attempt.Outcome = OutcomeSuccess
			return attempt, out.records
		}
		return attempt, nil
	case <-ctx.Done():
		attempt.Duration = time.Since(start)
		attempt.Outcome = OutcomeTimeout
		attempt.Err = ctx.Err()
		return attempt, nil
	}
}
