package pipeline

// Stage identifies a step of the import pipeline. A Result carries the stage
// at which a run ended early; StageDone marks a run that went the distance.
type Stage string

const (
	StageTrigger  Stage = "trigger"
	StageFetch    Stage = "fetch"
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
	StageWrite    Stage = "write"
	StageDone     Stage = "done"
)

// Result is the explicit outcome of one invocation. The orchestrator never
// swallows failures; the host adapter decides whether to log-and-suppress.
type Result struct {
	// RowsRead is the number of data rows extracted from the sheet
	RowsRead int
	// RowsValid is the number of rows that passed validation
	RowsValid int
	// RowsSkipped is the number of rows rejected by validation
	RowsSkipped int
	// SkippedRows holds one diagnostic per rejected row, in input order
	SkippedRows []string

	// BatchesWritten is the number of batch write calls that succeeded
	BatchesWritten int
	// ItemsWritten is the number of items committed across those batches
	ItemsWritten int
	// FailedBatch is the index of the batch whose write failed, -1 when none.
	// Batches before it remain committed; batches after it were never sent.
	FailedBatch int

	// Stage is where the run ended
	Stage Stage
	// Err is the terminal failure cause; nil for clean early terminations
	Err error
	// Reason describes a clean early termination (empty sheet, no valid rows)
	Reason string
}

// Failed reports whether the run ended with a terminal error.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Terminated reports whether the run ended early without an error.
func (r Result) Terminated() bool {
	return r.Err == nil && r.Reason != ""
}

// Outcome names the terminal state for logging and metrics.
func (r Result) Outcome() string {
	switch {
	case r.Failed():
		return "failed"
	case r.Terminated():
		return "terminated"
	default:
		return "completed"
	}
}
