package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for provider operations.
var (
	// ErrTransport indicates the provider API could not be reached.
	ErrTransport = errors.New("provider unreachable")

	// ErrHTTPStatus indicates a response status outside 200-299.
	ErrHTTPStatus = errors.New("unsuccessful http status")

	// ErrBodyInvalid indicates the response envelope or its result could not be decoded.
	ErrBodyInvalid = errors.New("invalid response body")

	// ErrNoSuccess indicates the envelope decoded but reported success=false.
	ErrNoSuccess = errors.New("response did not report success")

	// ErrZoneNotFound indicates no provider zone matched the configured name.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrRecordNotFound indicates no address record matched the configured name.
	ErrRecordNotFound = errors.New("record not found")

	// ErrUnsupportedRecordType indicates a matching record that is neither A nor AAAA.
	ErrUnsupportedRecordType = errors.New("unsupported record type")
)

// Kind classifies the outcome of a provider API call.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindHTTPStatus
	KindBodyInvalid
	KindNoSuccess
)

// String returns the metric/log label of the kind.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindBodyInvalid:
		return "body_invalid"
	case KindNoSuccess:
		return "no_success"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindHTTPStatus:
		return ErrHTTPStatus
	case KindBodyInvalid:
		return ErrBodyInvalid
	case KindNoSuccess:
		return ErrNoSuccess
	default:
		return nil
	}
}

// APIError is a classified provider API failure.
type APIError struct {
	Kind       Kind
	Operation  string
	StatusCode int      // set for KindHTTPStatus
	Messages   []string // provider-reported error messages, if any
	Err        error
}

func (e *APIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Operation)
	sb.WriteString(": ")
	if s := e.Kind.sentinel(); s != nil {
		sb.WriteString(s.Error())
	} else {
		sb.WriteString(e.Kind.String())
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	if len(e.Messages) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Messages, "; "))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel corresponding to the error kind.
func (e *APIError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Fatal reports whether the failure must abort the whole run.
func (e *APIError) Fatal() bool {
	return e.Kind == KindTransport
}

// IsFatal returns true if err carries a provider failure that must abort the run.
func IsFatal(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Fatal()
}

// KindOf returns the kind of a provider failure, or 0 if err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// UnsupportedTypeError reports a record that matched by name but is not an address record.
type UnsupportedTypeError struct {
	Name     string
	Type     RecordType
	RecordID string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("record %s (%s) has type %q: %v", e.Name, e.RecordID, e.Type, ErrUnsupportedRecordType)
}

func (e *UnsupportedTypeError) Unwrap() error {
	return ErrUnsupportedRecordType
}
