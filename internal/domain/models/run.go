package models

import "time"

// PairState is the terminal state of one matched pair in a run.
type PairState string

const (
	PairSkipped PairState = "skipped"
	PairApplied PairState = "applied"
	PairFailed  PairState = "failed"
)

// PairOutcome records what happened to one matched pair.
type PairOutcome struct {
	ProductID int64     `bson:"product_id" json:"product_id"`
	Code      string    `bson:"code" json:"code"`
	State     PairState `bson:"state" json:"state"`
	Detail    string    `bson:"detail,omitempty" json:"detail,omitempty"`
}

// Summary aggregates the per-pair terminal states of one reconciliation run
// plus the records that never formed a pair.
type Summary struct {
	Applied              int `bson:"applied" json:"applied"`
	Skipped              int `bson:"skipped" json:"skipped"`
	Failed               int `bson:"failed" json:"failed"`
	UnmatchedMissingCode int `bson:"unmatched_missing_code" json:"unmatched_missing_code"`
	UnmatchedNoSource    int `bson:"unmatched_no_source" json:"unmatched_no_source"`
}

// RunReport wraps a run summary with timing for persistence.
type RunReport struct {
	StartedAt  time.Time     `bson:"started_at" json:"started_at"`
	FinishedAt time.Time     `bson:"finished_at" json:"finished_at"`
	Applied    bool          `bson:"writes_enabled" json:"writes_enabled"`
	Summary    Summary       `bson:"summary" json:"summary"`
	Outcomes   []PairOutcome `bson:"outcomes,omitempty" json:"outcomes,omitempty"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
}
