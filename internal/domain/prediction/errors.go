package prediction

import "fmt"

// DataValidationError reports malformed or incomplete case records found
// before training starts. Training aborts and no artifact is written.
type DataValidationError struct {
	Index int
	Err   error
}

func (e *DataValidationError) Error() string {
	return fmt.Sprintf("invalid training record %d: %v", e.Index, e.Err)
}

func (e *DataValidationError) Unwrap() error { return e.Err }

// TrainingError reports a fit failure with enough diagnostic detail for the
// operator to react: total samples and class balance. The previously loaded
// model, if any, stays in place.
type TrainingError struct {
	Reason        string
	Samples       int
	PositiveCount int
	NegativeCount int
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed: %s (%d samples, %d positive, %d negative)",
		e.Reason, e.Samples, e.PositiveCount, e.NegativeCount)
}

// PersistenceError reports an artifact read or write failure. On write the
// freshly trained model is still swapped in for the current process, but it
// will not survive a restart.
type PersistenceError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("model artifact %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
