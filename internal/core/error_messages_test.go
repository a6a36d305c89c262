package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "fetch failure",
			err:         fmt.Errorf("get http://x: %w", ErrFetchFailed),
			wantCode:    "SRC001",
			wantMessage: "Could not fetch the scores resource",
		},
		{
			name:        "not found wins over fetch failed",
			err:         fmt.Errorf("%w: %w", ErrFetchFailed, ErrResourceNotFound),
			wantCode:    "SRC002",
			wantMessage: "The scores resource was not found",
		},
		{
			name:        "unsupported locator",
			err:         fmt.Errorf("%w: ftp", ErrUnsupportedSource),
			wantCode:    "SRC003",
			wantMessage: "The scores resource location is not supported",
		},
		{
			name:        "too large",
			err:         fmt.Errorf("parse: %w", ErrResourceTooLarge),
			wantCode:    "SRC004",
			wantMessage: "The scores resource is larger than allowed",
		},
		{
			name:        "empty resource",
			err:         ErrEmptyResource,
			wantCode:    "FILE005",
			wantMessage: "The scores resource is empty",
		},
		{
			name:        "invalid csv",
			err:         fmt.Errorf("%w: missing id", ErrInvalidCSV),
			wantCode:    "FILE002",
			wantMessage: "The scores resource is not a valid CSV",
		},
		{
			name:        "table not found",
			err:         errTable("nope"),
			wantCode:    "TBL001",
			wantMessage: "The specified table does not exist",
		},
		{
			name:     "record not found",
			err:      ErrRecordNotFound,
			wantCode: "REC001",
		},
		{
			name:     "unknown column",
			err:      fmt.Errorf("%w: sort by x", ErrUnknownColumn),
			wantCode: "VIEW001",
		},
		{
			name:     "unsupported operator",
			err:      ErrUnsupportedOp,
			wantCode: "VIEW002",
		},
		{
			name:        "rate limited",
			err:         ErrRateLimited,
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			wantCode: "UPL004",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("fetch: %w", context.DeadlineExceeded),
			wantCode: "UPL005",
		},
		{
			name:        "pattern: no such file",
			err:         errors.New("open scores.csv: no such file or directory"),
			wantCode:    "SRC002",
			wantMessage: "The scores resource was not found",
		},
		{
			name:     "pattern: connection refused",
			err:      errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode: "SRC001",
		},
		{
			name:     "pattern is case insensitive",
			err:      errors.New("i/o TIMEOUT"),
			wantCode: "UPL005",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrRateLimited)
	expected := "Too many requests. Please wait a moment before trying again. (RATE001)"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}
