package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("name and email are required")
	ErrNoSession     = errors.New("not signed in")
	ErrNotEditing    = errors.New("no create or edit form is open")
	ErrUnknownRecord = errors.New("employee is not in the loaded list")

	// ErrReloadFailed wraps a failed list reload that follows a successful
	// save. The change is stored; only the loaded list is stale.
	ErrReloadFailed = errors.New("saved, but the employee list could not be reloaded")
)

// PartialFailureError reports an edit whose course removal went through but
// whose update did not. The record is left without the Removed labels.
type PartialFailureError struct {
	ID      string
	Removed []string
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("employee %s: removed courses [%s] but update failed: %v",
		e.ID, strings.Join(e.Removed, ","), e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
