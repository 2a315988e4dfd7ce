package services

import "fmt"

// PersistenceError reports a backend rejection of a create/update/delete.
// Local state is never mutated speculatively, so the caller's view stays
// consistent with what the backend actually holds.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UploadError reports that finalized bytes failed to persist remotely. The
// composited document is still handed to the user for local download.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to store finalized PDF: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
