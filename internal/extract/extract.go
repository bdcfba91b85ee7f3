// Package extract turns uploaded document bytes into plain text, choosing a
// decoder by the declared media type.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	MediaTypePDF    = "application/pdf"
	MediaTypeDOCX   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeMSWord = "application/msword"

	// wordprocessingMarker identifies OOXML word documents declared under a
	// non-canonical media type.
	wordprocessingMarker = "wordprocessingml"

	genericReadFailure = "failed to read file content"
)

var (
	// ErrUnsupportedLegacyFormat is returned for binary .doc uploads.
	ErrUnsupportedLegacyFormat = errors.New("Legacy Word (.doc) files are not supported. Please convert to .docx or PDF.")
	// ErrEmptyOrUnreadable is returned when a PDF yields no text, which is
	// the usual outcome for scanned documents.
	ErrEmptyOrUnreadable = errors.New("PDF content is empty or unreadable (scanned images not supported)")
)

// Decoder converts a whole document into text.
type Decoder interface {
	Decode(data []byte) (string, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (string, error)

func (f DecoderFunc) Decode(data []byte) (string, error) { return f(data) }

// DecodeError reports a failure inside a format decoder.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err == nil || strings.TrimSpace(e.Err.Error()) == "" {
		return genericReadFailure
	}
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Extractor struct {
	pdf  Decoder
	docx Decoder
}

// New returns an Extractor using the given decoders. Nil decoders fall back
// to the built-in PDF and DOCX implementations.
func New(pdf, docx Decoder) *Extractor {
	if pdf == nil {
		pdf = PDF{}
	}
	if docx == nil {
		docx = DOCX{}
	}
	return &Extractor{pdf: pdf, docx: docx}
}

// Extract returns the plain text of data according to mediaType.
func (e *Extractor) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case mediaType == MediaTypePDF:
		text, err := decode("pdf", e.pdf, data)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyOrUnreadable
		}
		return text, nil
	case mediaType == MediaTypeDOCX:
		return decode("docx", e.docx, data)
	case mediaType == MediaTypeMSWord:
		return "", ErrUnsupportedLegacyFormat
	case strings.Contains(mediaType, wordprocessingMarker):
		return decode("docx", e.docx, data)
	default:
		return plainText(data), nil
	}
}

// decode runs the decoder and converts both errors and panics into a
// DecodeError; third-party parsers panic on some malformed inputs.
func decode(format string, d Decoder, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &DecodeError{Format: format, Err: fmt.Errorf("%v", r)}
		}
	}()

	text, err = d.Decode(data)
	if err != nil {
		return "", &DecodeError{Format: format, Err: err}
	}
	return text, nil
}

// plainText decodes data as UTF-8. Every invalid byte becomes its own
// U+FFFD, so the rune count matches what browsers and Node report.
func plainText(data []byte) string {
	return string([]rune(string(data)))
}
