package domain

import "time"

// Outcome classifies how much of a run made it into the database.
type Outcome string

const (
	OutcomeComplete Outcome = "complete" // every record inserted
	OutcomePartial  Outcome = "partial"  // some records inserted, some failed
	OutcomeFailed   Outcome = "failed"   // nothing inserted, or the run aborted
)

// RowFailure describes one record that could not be inserted.
type RowFailure struct {
	Index    int
	DateTime time.Time
	Err      error
}

// LoadResult summarizes a Load call.
type LoadResult struct {
	Attempted int
	Inserted  int
	Failures  []RowFailure
}

// Failed returns the number of records that were not inserted.
func (r LoadResult) Failed() int {
	return r.Attempted - r.Inserted
}

// Outcome derives the run outcome from insert counts. An empty batch is complete.
func (r LoadResult) Outcome() Outcome {
	switch {
	case r.Inserted == r.Attempted:
		return OutcomeComplete
	case r.Inserted == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}
