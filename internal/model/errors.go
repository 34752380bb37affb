package model

import "fmt"

// The pipeline error taxonomy. Every failure surfaced by the orchestration
// core is one of these categories, so callers can decide fatality per stage
// with errors.As instead of string matching.

// ValidationError marks a malformed submission: missing RFP file, empty
// configuration, oversized or empty upload. Always fatal, detected before
// any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// StorageError is a per-file upload failure. It is isolated by the upload
// coordinator and fatal only when it eliminates every RFP success.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage: %v", e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PersistenceError is a job record or annotation write failure. Fatal, since
// downstream generation requires the persisted locator.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerationError is a remote engine failure: non-2xx status or a malformed
// response. Fatal on first generation, recoverable on regeneration.
type GenerationError struct {
	Status int
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generation: engine returned status %d", e.Status)
	}
	return fmt.Sprintf("generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// TimeoutError marks a network call that exceeded its deadline. Fatality
// follows the category of the operation that timed out.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
