package core

// error_messages.go maps technical errors to user-facing messages with a
// code that support staff can look up.
//
//	SRC001  Could not fetch the scores resource    (network, permission, timeout on fetch)
//	SRC002  Scores resource not found              (missing file, 404, no such key/table)
//	SRC003  Unsupported resource location          (unknown locator scheme)
//	SRC004  Scores resource too large              (SOURCE_MAX_BYTES exceeded)
//	FILE002 Invalid CSV                            (unreadable header, no id column)
//	FILE005 Empty file                             (no header row)
//	TBL001  Table not found
//	REC001  Video not found
//	VIEW001 Unknown column in sort or filter
//	VIEW002 Operator not supported for the column
//	RATE001 Too many requests
//	RATE002 Too many exports running
//	UPL004  Request cancelled
//	UPL005  Request timed out
//	ERR000  Anything else
//
// Sentinel errors are matched with errors.Is first; remaining errors fall
// back to case-insensitive substring patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the loader, the sources and the web layer.
var (
	ErrFetchFailed       = errors.New("fetch failed")
	ErrResourceNotFound  = errors.New("resource not found")
	ErrUnsupportedSource = errors.New("unsupported locator")
	ErrTableNotFound     = errors.New("table not found")
	ErrRecordNotFound    = errors.New("record not found")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrUnsupportedOp     = errors.New("unsupported operator")
	ErrRateLimited       = errors.New("rate limit exceeded")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages is checked in order; more specific errors first.
var sentinelMessages = []sentinelMessage{
	{ErrResourceTooLarge, UserMessage{"The scores resource is larger than allowed", "Raise SOURCE_MAX_BYTES or trim the export", "SRC004"}},
	{ErrResourceNotFound, UserMessage{"The scores resource was not found", "Check DATA_SOURCE points at an existing file, object or table", "SRC002"}},
	{ErrUnsupportedSource, UserMessage{"The scores resource location is not supported", "Use a file path or an http(s), s3 or postgres URL", "SRC003"}},
	{ErrEmptyResource, UserMessage{"The scores resource is empty", "Export the data again including the header row", "FILE005"}},
	{ErrInvalidCSV, UserMessage{"The scores resource is not a valid CSV", "Ensure it is comma-separated with an id column in the header", "FILE002"}},
	{ErrTableNotFound, UserMessage{"The specified table does not exist", "Verify the table name is correct", "TBL001"}},
	{ErrRecordNotFound, UserMessage{"No video with this id was loaded", "Check the id against the current data", "REC001"}},
	{ErrUnknownColumn, UserMessage{"The view refers to an unknown column", "Reset the view to its defaults", "VIEW001"}},
	{ErrUnsupportedOp, UserMessage{"This filter is not available for the column", "Pick one of the listed operators", "VIEW002"}},
	{ErrRateLimited, UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
	{ErrTooManyExports, UserMessage{"Too many exports are running", "Please retry the download in a few seconds", "RATE002"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Please try again later", "UPL005"}},
	{ErrFetchFailed, UserMessage{"Could not fetch the scores resource", "Check connectivity and credentials for DATA_SOURCE", "SRC001"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors from libraries that do not wrap our sentinels.
var errorPatterns = []errorPattern{
	{"no such file", UserMessage{"The scores resource was not found", "Check DATA_SOURCE points at an existing file, object or table", "SRC002"}},
	{"connection refused", UserMessage{"Could not fetch the scores resource", "Check connectivity and credentials for DATA_SOURCE", "SRC001"}},
	{"permission denied", UserMessage{"Could not fetch the scores resource", "Check connectivity and credentials for DATA_SOURCE", "SRC001"}},
	{"timeout", UserMessage{"Request timed out", "Please try again later", "UPL005"}},
}

// defaultMessage is returned when no sentinel or pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders a message as "Message. Action. (Code)".
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	msg := MapError(err)
	if msg.Action == "" {
		return fmt.Sprintf("%s (%s)", msg.Message, msg.Code)
	}
	return fmt.Sprintf("%s. %s. (%s)", msg.Message, msg.Action, msg.Code)
}
