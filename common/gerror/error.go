package gerror

import (
	"fmt"
	"sort"
	"strings"
)

const (
	AudienceInternal Audience = "internal"
	AudienceExternal Audience = "external"
)

type Audience string
type Code string
type DetailKey string
type Details map[DetailKey]Detail

// Error is a typed error carrying a Code and an HTTP status so that an outer
// layer can translate it without inspecting error strings.
type Error struct {
	innerErr error
	// message is the human friendly error message suitable for display to a caller
	message        string
	details        Details
	audience       Audience
	code           Code
	httpStatusCode int
}

func NewError(message string, audience Audience, code Code, httpStatusCode int, inner error) Error {
	return NewErrorWithDetails(message, nil, audience, code, httpStatusCode, inner)
}

func NewErrorWithDetails(message string, details Details, audience Audience, code Code, httpStatusCode int, inner error) Error {
	return Error{
		innerErr:       inner,
		message:        message,
		details:        details,
		audience:       audience,
		code:           code,
		httpStatusCode: httpStatusCode,
	}
}

// Error returns the full error chain, suitable for logging.
func (e Error) Error() string {
	var b strings.Builder
	b.WriteString(e.message)
	if len(e.details) > 0 {
		keys := make([]string, 0, len(e.details))
		for k := range e.details {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.details[DetailKey(k)].value)
		}
		b.WriteString("]")
	}
	if e.innerErr != nil {
		fmt.Fprintf(&b, ": %v", e.innerErr)
	}
	return b.String()
}

func (e Error) Unwrap() error {
	return e.innerErr
}

func (e Error) Message() string {
	return e.message
}

func (e Error) Details() Details {
	m := make(Details, len(e.details))
	for k, v := range e.details {
		m[k] = v
	}
	return m
}

func (e Error) Audience() Audience {
	return e.audience
}

func (e Error) Code() Code {
	return e.code
}

func (e Error) HTTPStatusCode() int {
	return e.httpStatusCode
}

// HasHTTPStatusCode returns true iff err is a gerror.Error with the specified HTTP status code.
func HasHTTPStatusCode(err error, statusCode int) bool {
	gErr, ok := err.(Error)
	return ok && gErr.HTTPStatusCode() == statusCode
}

// Wrap returns a copy of the error with the inner error set to innerErr.
func (e Error) Wrap(innerErr error) Error {
	c := e
	c.details = e.Details()
	c.innerErr = innerErr
	return c
}

// IDetail returns a copy of the error with an internal detail added.
func (e Error) IDetail(key DetailKey, value interface{}) Error {
	return e.withDetail(AudienceInternal, key, value)
}

// EDetail returns a copy of the error with an external detail added.
func (e Error) EDetail(key DetailKey, value interface{}) Error {
	return e.withDetail(AudienceExternal, key, value)
}

func (e Error) withDetail(audience Audience, key DetailKey, value interface{}) Error {
	c := e
	c.details = e.Details()
	c.details[key] = NewDetail(audience, key, value)
	return c
}

type Detail struct {
	audience Audience
	key      DetailKey
	value    interface{}
}

func NewDetail(audience Audience, key DetailKey, value interface{}) Detail {
	return Detail{
		audience: audience,
		key:      key,
		value:    value,
	}
}

func (a Detail) Audience() Audience {
	return a.audience
}

func (a Detail) Key() DetailKey {
	return a.key
}

func (a Detail) Value() interface{} {
	return a.value
}
