package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/codeforge-ai/codeforge/internal/workspace"
)

// Kind classifies tool failures so the loop can report them to the model
// in a stable vocabulary.
type Kind string

const (
	KindAccessDenied     Kind = "access_denied"
	KindNotFound         Kind = "not_found"
	KindInvalidArguments Kind = "invalid_arguments"
	KindTimeout          Kind = "timeout"
	KindInternal         Kind = "internal"
)

// Error is a classified tool failure. Tool errors are conversational:
// the loop feeds them back to the model as tool results rather than
// aborting the run.
type Error struct {
	Kind    Kind
	Tool    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Tool, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error.
func NewError(kind Kind, tool, message string) *Error {
	return &Error{Kind: kind, Tool: tool, Message: message}
}

// WrapError classifies an underlying error for the given tool.
func WrapError(tool string, err error) *Error {
	if err == nil {
		return nil
	}

	var te *Error
	if errors.As(err, &te) {
		return te
	}

	kind := KindInternal
	switch {
	case errors.Is(err, workspace.ErrOutsideWorkspace):
		kind = KindAccessDenied
	case errors.Is(err, workspace.ErrInvalidPath):
		kind = KindInvalidArguments
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindAccessDenied
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	}

	return &Error{Kind: kind, Tool: tool, Message: err.Error(), Err: err}
}

// KindOf extracts the kind from any error chain, defaulting to internal.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}
