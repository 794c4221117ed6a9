package errcodes

import (
	"fmt"
	"net/http"
)

// Names of the error kinds exposed in the error envelope.
const (
	NameCapacityError        = "CapacityError"
	NameDuplicateKey         = "DuplicateKey"
	NameInternalError        = "InternalError"
	NameNotFound             = "NotFound"
	NameRouteNotFound        = "RouteNotFound"
	NameUnsupportedMediaType = "UnsupportedMediaType"
	NameValidationError      = "ValidationError"
)

// FieldError describes a single field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	HTTPCode int
	Message  string
	Code     string
	Name     string
	Detail   string
	Fields   []FieldError
}

func (err *Error) Error() string {
	if err.Detail != "" {
		return err.Message + ": " + err.Detail
	}
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	*te = *err
	return true
}

// Is matches on status, message and code. Detail and field errors are ignored
// so that errors.Is(err, NotFound("Book")) works regardless of context.
func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		HTTPCode: http.StatusNotFound,
		Message:  resource + " not found",
		Code:     "not_found",
		Name:     NameNotFound,
		Detail:   resource + " with the specified ID does not exist",
	}
}

// RouteNotFound is returned for any method and path combination that isn't
// registered.
func RouteNotFound(method, uri string) error {
	return &Error{
		HTTPCode: http.StatusNotFound,
		Message:  "Route not found",
		Code:     "route_not_found",
		Name:     NameRouteNotFound,
		Detail:   fmt.Sprintf("Cannot %s %s", method, uri),
	}
}

// InvalidID returns a 400 error for a path identifier that can't be parsed.
func InvalidID(resource string) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Invalid " + resource + " ID",
		Code:     "invalid_id",
		Name:     NameValidationError,
		Detail:   "Invalid identifier format",
	}
}

// DuplicateKey returns a 400 error for a unique constraint violation on the
// given field.
func DuplicateKey(field string) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  field + " already exists",
		Code:     "duplicate_key",
		Name:     NameDuplicateKey,
	}
}

// InsufficientCopies returns a 400 error when more copies are requested than
// are currently on the shelf.
func InsufficientCopies(available, requested int) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Insufficient copies available",
		Code:     "insufficient_copies",
		Name:     NameCapacityError,
		Detail:   fmt.Sprintf("Only %d copies available, but %d requested", available, requested),
	}
}

func UnsupportedMediaType() error {
	return &Error{
		HTTPCode: http.StatusUnsupportedMediaType,
		Message:  "Unsupported Media Type",
		Code:     "unsupported_media_type",
		Name:     NameUnsupportedMediaType,
	}
}

func UnknownParameter(param string) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  fmt.Sprintf("Unknown Parameter %q", param),
		Code:     "unknown_parameter",
		Name:     NameValidationError,
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  msg,
		Code:     "validation_type_error",
		Name:     NameValidationError,
	}
}

func ValidationError(msg string) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  msg,
		Code:     "validation_error",
		Name:     NameValidationError,
	}
}

// ValidationFailed returns a 400 error carrying every field that failed
// validation. The first field's message is used as the detail.
func ValidationFailed(fields []FieldError) error {
	err := &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Validation failed",
		Code:     "validation_error",
		Name:     NameValidationError,
		Fields:   fields,
	}
	if len(fields) > 0 {
		err.Detail = fields[0].Message
	}
	return err
}

func MalformedPayload() error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Malformed Payload",
		Code:     "malformed_payload",
		Name:     NameValidationError,
	}
}

func EmptyRequestBody() error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Request body can't be empty.",
		Code:     "empty_request_body",
		Name:     NameValidationError,
	}
}
