package errcodes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

const (
	CodeConflict            = "conflict"
	CodeCycle               = "cycle"
	CodeInvalidTransition   = "invalid_transition"
	CodeNotFound            = "not_found"
	CodeReferentialConflict = "referential_conflict"
	CodeValidation          = "validation_error"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// HasCode reports whether err, or anything it wraps, is an *Error with the
// given code. Use this to tell error kinds apart when the message varies.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		CodeNotFound,
	}
}

// Conflict is returned when a write would break the single active read rule.
func Conflict(msg string) error {
	return &Error{
		http.StatusConflict,
		msg,
		CodeConflict,
	}
}

// InvalidTransition is returned for read status changes that aren't allowed.
func InvalidTransition(from, to string) error {
	return &Error{
		http.StatusConflict,
		fmt.Sprintf("Can't change read status from %s to %s.", from, to),
		CodeInvalidTransition,
	}
}

// ReferentialConflict is returned when a delete is blocked by rows that still
// reference the resource.
func ReferentialConflict(resource string, dependents ...string) error {
	return &Error{
		http.StatusConflict,
		fmt.Sprintf("%s is still referenced by %s.", resource, strings.Join(dependents, " and ")),
		CodeReferentialConflict,
	}
}

// Cycle is returned when an alias chain would loop back on itself.
func Cycle(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		CodeCycle,
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		CodeValidation,
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}

func PayloadTooLarge(limit string) error {
	return &Error{
		http.StatusRequestEntityTooLarge,
		"File is larger than " + limit + ".",
		"payload_too_large",
	}
}
