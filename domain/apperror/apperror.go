package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP layer can pick a status without
// looking at message text.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindTimeout
	KindTooLarge
	KindDownload
	KindUpload
	KindConfiguration
)

var kindNames = map[Kind]string{
	KindInternal:      "InternalError",
	KindValidation:    "ValidationError",
	KindNotFound:      "MetadataNotFoundError",
	KindTimeout:       "TimeoutError",
	KindTooLarge:      "TooLargeError",
	KindDownload:      "DownloadError",
	KindUpload:        "UploadError",
	KindConfiguration: "ConfigurationError",
}

var kindStatus = map[Kind]int{
	KindValidation: http.StatusBadRequest,
	KindNotFound:   http.StatusNotFound,
	KindTimeout:    http.StatusRequestTimeout,
	KindTooLarge:   http.StatusRequestEntityTooLarge,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindInternal]
}

// HTTPStatus returns the response status for the kind, 500 when unmapped.
func (k Kind) HTTPStatus() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is the tagged error carried through every layer of the pipeline.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with kind. A nil err yields nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost tagged error in the chain.
// Deadline errors without a tag count as timeouts.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
