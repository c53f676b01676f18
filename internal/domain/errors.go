package domain

import "errors"

// Sentinel errors let callers separate user-correctable input problems and
// expired pending runs from transient storage failures.
var (
	// ErrEmptyFeed marks a run rejected before aggregation because one of the
	// uploaded feeds contained no usable rows.
	ErrEmptyFeed = errors.New("feed contains no rows")

	// ErrPendingNotFound marks a resume or discard against a pending
	// reconciliation that does not exist (or was already consumed). The
	// operator must re-upload; retrying will not help.
	ErrPendingNotFound = errors.New("pending reconciliation not found")

	// ErrSessionNotFound marks a lookup of a nonexistent session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrProductNotFound marks a lookup of a nonexistent product record.
	ErrProductNotFound = errors.New("product not found")
)
