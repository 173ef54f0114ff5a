package virk

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingCredentials  = errors.New("url and/or user credentials are missing")
	ErrMissingSearchFields = errors.New("search fields are missing")
	ErrAmbiguousOrNoMatch  = errors.New("no unique hit")
	ErrShapeViolation      = errors.New("unexpected response shape")
	ErrHTTP                = errors.New("http error")
	ErrTransport           = errors.New("transport error")
	ErrUnknownQueryKind    = errors.New("unknown query kind")
)

// FieldsError lists the parameters that failed validation. Kind is either
// ErrMissingCredentials or ErrMissingSearchFields.
type FieldsError struct {
	Kind   error
	Fields []string
}

func (e *FieldsError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Fields, ", "))
}

func (e *FieldsError) Unwrap() error {
	return e.Kind
}

// NoMatchError is returned by the single-result search when the register
// returns zero or several hits.
type NoMatchError struct {
	Name string
	Hits int
}

func (e *NoMatchError) Error() string {
	if e.Hits == 0 {
		return fmt.Sprintf("no hit for --> %s", e.Name)
	}

	return fmt.Sprintf("%d hits for --> %s, expected exactly one", e.Hits, e.Name)
}

func (e *NoMatchError) Unwrap() error {
	return ErrAmbiguousOrNoMatch
}

// ShapeError reports a required object that is absent from a response, or
// present with the wrong JSON type when Reason is set.
type ShapeError struct {
	Path   string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: %s: %s", ErrShapeViolation, e.Path, e.Reason)
	}

	return fmt.Sprintf("%v: %s is missing", ErrShapeViolation, e.Path)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeViolation
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error --> %d, http body --> %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error {
	return ErrHTTP
}

// TransportError wraps failures that happen before a status code is known,
// or while reading the body.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrTransport, e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrMissingCredentials, "missing_credentials"},
	{ErrMissingSearchFields, "missing_search_fields"},
	{ErrAmbiguousOrNoMatch, "ambiguous_or_no_match"},
	{ErrShapeViolation, "shape_violation"},
	{ErrHTTP, "http"},
	{ErrTransport, "transport"},
	{ErrUnknownQueryKind, "unknown_query_kind"},
}

// KindOf names the error category of err, or returns "internal" when err
// matches none of the package sentinels.
func KindOf(err error) string {
	if err == nil {
		return ""
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}

	return "internal"
}
