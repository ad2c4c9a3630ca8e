package service

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnauthenticated    = errors.New("authentication credentials were not provided")
	ErrInvalidToken       = errors.Wrap(ErrUnauthenticated, "invalid token")
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
	ErrPermissionDenied   = errors.New("you do not have permission to perform this action")
	ErrNotFound           = errors.New("not found")
)

const (
	MsgRequired   = "This field is required."
	MsgBlank      = "This field may not be blank."
	MsgEmailTaken = "user with this email already exists."
)

// ValidationError carries messages keyed by the offending field. Errors that
// are not tied to a single field use the "non_field_errors" key.
type ValidationError struct {
	Fields map[string][]string
}

const NonFieldErrors = "non_field_errors"

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add appends msg to field and returns v.
func (v *ValidationError) Add(field, msg string) *ValidationError {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
	return v
}

func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasFieldError reports whether err is a *ValidationError carrying msg on field.
func HasFieldError(err error, field, msg string) bool {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	for _, m := range verr.Fields[field] {
		if m == msg {
			return true
		}
	}
	return false
}

func errEmailRequired() *ValidationError {
	return NewValidationError("email", MsgRequired)
}

func errEmailTaken() *ValidationError {
	return NewValidationError("email", MsgEmailTaken)
}

func errNameBlank() *ValidationError {
	return NewValidationError("name", MsgBlank)
}

// IsUnauthenticated reports whether err means the caller is not logged in.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
