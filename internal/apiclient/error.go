package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nkiryanov/sims/internal/apperrors"
)

type Code string

const (
	CodeAuthExpired       Code = "auth-expired"
	CodeAuthRefreshFailed Code = "auth-refresh-failed"
	CodeRequestFailed     Code = "request-failed"
	CodeNetworkFailure    Code = "network-failure"
)

// Error is the terminal outcome of a backend call.
// For auth codes StatusCode and Payload are the ones of the original 401 response.
type Error struct {
	Code       Code
	StatusCode int    // zero for network failures
	Message    string // human readable, taken from the payload when the backend sends one
	Payload    []byte // raw response body

	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("code: %s, status: %d, message: %s", e.Code, e.StatusCode, e.Message)
	if e.Err != nil {
		msg += ", error: " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, apperrors.ErrAuthExpired) and friends work
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeAuthExpired:
		return target == apperrors.ErrAuthExpired
	case CodeAuthRefreshFailed:
		return target == apperrors.ErrAuthRefreshFailed
	case CodeRequestFailed:
		return target == apperrors.ErrRequestFailed
	case CodeNetworkFailure:
		return target == apperrors.ErrNetworkFailure
	default:
		return false
	}
}

// Decode payload of failed request into v, e.g. field errors of a 400 response
func (e *Error) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", apperrors.ErrInvalidPayload)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}
	return nil
}

func newResponseError(code Code, resp *Response, err error) *Error {
	return &Error{
		Code:       code,
		StatusCode: resp.StatusCode,
		Message:    messageOf(resp),
		Payload:    resp.Body,
		Err:        err,
	}
}

func newNetworkError(err error) *Error {
	return &Error{
		Code:    CodeNetworkFailure,
		Message: "backend is unreachable",
		Err:     err,
	}
}

// Human readable message of failed response. Backends put it into one of several fields
func messageOf(resp *Response) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		for _, key := range []string{"message", "detail", "error"} {
			var s string
			if err := json.Unmarshal(body[key], &s); err == nil && s != "" {
				return s
			}
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", resp.StatusCode)
}
