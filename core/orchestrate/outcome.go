package orchestrate

import "time"

// Status classifies the outcome of a run node.
type Status string

const (
	// StatusApplied marks a version (or step) that completed.
	StatusApplied Status = "applied"
	// StatusSkipped marks a version at or below the persisted current one.
	StatusSkipped Status = "skipped"
	// StatusFailed marks the first failing version or step.
	StatusFailed Status = "failed"
	// StatusPending marks versions after a failure that were never attempted.
	StatusPending Status = "pending"
)

// Step names used in step results, in their execution order.
const (
	StepRemoveValidator = "remove_validator"
	StepDropIndex       = "drop_index"
	StepMigration       = "migration"
	StepAddIndex        = "add_index"
	StepApplyValidator  = "apply_validator"
	StepLoadTestData    = "load_test_data"
	StepRecordVersion   = "record_version"
)

// StepResult records one database operation within a version transition.
// Target carries the step's subject: an index name, a migration reference, a
// fixture reference.
type StepResult struct {
	Step   string `json:"step"`
	Target string `json:"target,omitempty"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// VersionResult records one version transition. Steps are present only for
// attempted versions, in execution order up to the first failure.
type VersionResult struct {
	Version string       `json:"version"`
	Status  Status       `json:"status"`
	Steps   []StepResult `json:"steps,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// CollectionResult records one collection's pipeline. A failure in one
// version leaves later versions pending and never affects other collections.
type CollectionResult struct {
	Collection string          `json:"collection"`
	Status     Status          `json:"status"`
	Versions   []VersionResult `json:"versions,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Failed reports whether any version in the collection failed.
func (r CollectionResult) Failed() bool { return r.Status == StatusFailed }

// RunResult is the root of the outcome tree for one orchestration run. It is
// built bottom-up and returned by value; nothing mutates it afterwards.
type RunResult struct {
	RunID       string             `json:"runId"`
	StartedAt   time.Time          `json:"startedAt"`
	FinishedAt  time.Time          `json:"finishedAt"`
	Collections []CollectionResult `json:"collections"`
}

// Failed reports whether any collection in the run failed.
func (r RunResult) Failed() bool {
	for _, c := range r.Collections {
		if c.Failed() {
			return true
		}
	}
	return false
}

// Applied counts versions that were applied across the run.
func (r RunResult) Applied() int {
	applied := 0
	for _, c := range r.Collections {
		for _, v := range c.Versions {
			if v.Status == StatusApplied {
				applied++
			}
		}
	}
	return applied
}
