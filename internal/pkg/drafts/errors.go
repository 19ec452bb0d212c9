package drafts

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrNotFound means no service or version exists for the given id.
	ErrNotFound = errors.New("drafts: not found")
	// ErrAuthRequired means the request carried no resolvable credential.
	ErrAuthRequired = errors.New("drafts: authentication required")
	// ErrForbidden means the caller is authenticated but lacks the admin role.
	ErrForbidden = errors.New("drafts: forbidden")
	// ErrNotEditable means the targeted version is past the draft state.
	ErrNotEditable = errors.New("drafts: version is not editable")
)

// VersionConflictError reports a stale optimistic-concurrency write. The
// caller must re-fetch the draft and retry with fresh data; writes are
// rejected, never merged.
type VersionConflictError struct {
	Expected int
	Actual   int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("drafts: version conflict: expected row_version %d, current is %d", e.Expected, e.Actual)
}

// IsVersionConflict reports whether err is a stale-write rejection.
func IsVersionConflict(err error) bool {
	var vc *VersionConflictError
	return errors.As(err, &vc)
}

// FieldError pinpoints one schema violation.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries field-level schema violations. Always
// caller-fixable; never produced by concurrent edits.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "drafts: validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Path+": "+f.Message)
	}
	return "drafts: validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is a schema violation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UpstreamError wraps a persistence or collaborator failure. Treated as
// transient by callers; the vendor error is never surfaced to end users.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("drafts: upstream failure during %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
