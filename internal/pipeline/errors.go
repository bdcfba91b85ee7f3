package pipeline

import (
	"errors"
	"fmt"
)

// Category classifies why an analysis did not produce a result.
type Category string

const (
	CategoryNoFileProvided            Category = "NoFileProvided"
	CategoryUnsupportedLegacyFormat   Category = "UnsupportedLegacyFormat"
	CategoryEmptyOrUnreadableDocument Category = "EmptyOrUnreadableDocument"
	CategoryExtractionError           Category = "ExtractionError"
	CategoryEmptyExtraction           Category = "EmptyExtraction"
	CategoryNotResumeLike             Category = "NotResumeLike"
	CategoryInternalFailure           Category = "InternalFailure"
)

const (
	msgNoFile          = "No file uploaded"
	msgUploadProperly  = "Please upload the resume properly."
	msgReadFailure     = "Failed to read file content."
	msgInternalFailure = "Internal Server Error during analysis"
)

// Error is the failure returned by Analyze. Message is safe to show to the
// user; Err keeps the underlying detail for logs.
type Error struct {
	Category Category
	State    State
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Expected reports whether the failure is caused by the upload rather than
// by a defect.
func (e *Error) Expected() bool {
	return e.Category != CategoryInternalFailure
}

// CategoryOf returns the category of err, or an empty Category when err is
// not a pipeline error.
func CategoryOf(err error) Category {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// MessageOf returns the user-facing message for err. Errors that did not
// come from the pipeline get the generic internal message.
func MessageOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return msgInternalFailure
}

func newError(category Category, message string, err error) *Error {
	return &Error{
		Category: category,
		Message:  message,
		Err:      err,
	}
}
