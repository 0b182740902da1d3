package cluster

import (
	"errors"
	"fmt"
)

// Sentinel errors for clustering failures
var (
	// ErrInputShape is returned when candidates are not all the same length
	ErrInputShape = errors.New("candidates differ in length")

	// ErrWorkerFailure is returned when a neighbor search worker fails
	ErrWorkerFailure = errors.New("neighbor search worker failed")
)

// InputShapeError reports the first candidate whose length breaks the
// equal-length precondition of the distance oracle.
type InputShapeError struct {
	Index int
	Want  int
	Got   int
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("candidate %d has length %d, want %d", e.Index, e.Got, e.Want)
}

func (e *InputShapeError) Is(target error) bool {
	return target == ErrInputShape
}

// WorkerFailureError wraps the cause of a failed neighbor search.
// Worker is -1 when the search ran on the coordinating goroutine.
type WorkerFailureError struct {
	Worker int
	Cause  error
}

func (e *WorkerFailureError) Error() string {
	if e.Worker < 0 {
		return fmt.Sprintf("neighbor search failed: %v", e.Cause)
	}
	return fmt.Sprintf("neighbor search worker %d failed: %v", e.Worker, e.Cause)
}

func (e *WorkerFailureError) Is(target error) bool {
	return target == ErrWorkerFailure
}

func (e *WorkerFailureError) Unwrap() error {
	return e.Cause
}
