package attendance

import (
	"errors"
	"fmt"
)

// ErrInvalidPayload marks a scan that could not be decoded. The operator
// retries by re-presenting the QR code; nothing was written.
var ErrInvalidPayload = errors.New("invalid scan payload")

// ErrDuplicateDay is returned by the store when the per-day uniqueness
// constraint rejects an insert.
var ErrDuplicateDay = errors.New("attendance already recorded for this day")

// DuplicateScanError is a policy rejection, not a failure: the student was
// already marked present today.
type DuplicateScanError struct {
	StudentName string
}

func (e *DuplicateScanError) Error() string {
	return fmt.Sprintf("%s has already been marked present today", e.StudentName)
}

// PersistenceError wraps a store failure during the recording workflow.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("attendance %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
