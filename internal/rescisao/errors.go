package rescisao

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind string

const (
	KindMissingInput      Kind = "MISSING_INPUT"
	KindExtractionFailed  Kind = "JSON_EXTRACTION_FAILED"
	KindParseFailed       Kind = "JSON_PARSE_FAILED"
	KindInvalidFormat     Kind = "INVALID_AI_RESPONSE_FORMAT"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidType       Kind = "INVALID_TYPE"
	KindInvalidJSON       Kind = "INVALID_JSON"
	KindDeleteFailed      Kind = "DELETE_FAILED"
	KindInsertFailed      Kind = "INSERT_FAILED"
	KindClearFieldFailed  Kind = "CLEAR_RESPONSE_FIELD_FAILED"
	KindPersistenceFailed Kind = "PERSISTENCE_FAILED"
)

// snippetLen bounds the input prefix carried by parse errors.
const snippetLen = 300

type Error struct {
	Kind    Kind
	Message string
	// Details carries the underlying parser or database message, if any.
	Details string
	// Snippet is a prefix of the offending input.
	Snippet string
	Err     error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, message string, err error) *Error {
	e := &Error{Kind: kind, Message: message, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen])
}
