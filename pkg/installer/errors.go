// pkg/installer/errors.go - install-time error kinds.

package installer

import "errors"

var (
	// ErrCancelled reports a user-initiated abort. Everything done so
	// far has been rolled back when this is returned.
	ErrCancelled = errors.New("installation cancelled by user")

	// ErrCopyFailure reports a failed file copy.
	ErrCopyFailure = errors.New("file copy failed")

	// ErrRegistryWrite reports a failed registry operation.
	ErrRegistryWrite = errors.New("registry write failed")

	// ErrInsufficientPrivilege reports an operation the current user is
	// not allowed to perform.
	ErrInsufficientPrivilege = errors.New("insufficient privilege")

	// ErrBlockedByRunningApp reports that a file to be overwritten
	// belongs to a currently running program.
	ErrBlockedByRunningApp = errors.New("application is running")
)
