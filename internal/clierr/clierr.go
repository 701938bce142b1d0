// Package clierr carries the failures of cyberdeck commands to the user: a
// stable code that scripts match on, the message shown in the terminal and,
// for --json, details such as the offending gig or job reference.
package clierr

import (
	"fmt"
	"strconv"
)

// Lookups that found nothing, or more than one match for a short id.
const (
	GigNotFound        = "GIG_NOT_FOUND"
	JobNotFound        = "JOB_NOT_FOUND"
	SubtaskNotFound    = "SUBTASK_NOT_FOUND"
	AttachmentNotFound = "ATTACHMENT_NOT_FOUND"
)

// Rejected input.
const (
	InvalidInput    = "INVALID_INPUT"
	InvalidStatus   = "INVALID_STATUS"
	InvalidPriority = "INVALID_PRIORITY"
	InvalidDate     = "INVALID_DATE"
	InvalidTime     = "INVALID_TIME" // manual time entries like 1:30:00
	InvalidGroupBy  = "INVALID_GROUP_BY"
	InvalidSort     = "INVALID_SORT"
	NoChanges       = "NO_CHANGES"
	ConfirmationReq = "CONFIRMATION_REQUIRED"
	ImportInvalid   = "IMPORT_INVALID"
)

// Remote deck and backup bucket.
const (
	RemoteFailed   = "REMOTE_FAILED"
	NotSignedIn    = "NOT_SIGNED_IN"
	BackupDisabled = "BACKUP_DISABLED"
)

// InternalError is everything else. It exits with 2.
const InternalError = "INTERNAL_ERROR"

// Error is a command failure with a code.
type Error struct {
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string { return e.Message }

// New returns an Error.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf returns an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches details and returns e.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// ExitCode is 2 for InternalError and 1 otherwise.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // internal failures
	}
	return 1
}

// SilentError sets the exit code of a command whose outcome, such as a
// per-job batch report, is already on stdout.
type SilentError struct {
	Code int
}

func (e *SilentError) Error() string { return "exit " + strconv.Itoa(e.Code) }
