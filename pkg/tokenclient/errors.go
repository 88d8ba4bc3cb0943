package tokenclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/puppetlabs/leg/errmap/pkg/errmark"
	"github.com/puppetlabs/oauthapp-token-client/pkg/oauth2ext/semerr"
	"golang.org/x/oauth2"
)

// maxBodyInError bounds how much of a response body ends up in an error
// message. The full body is always kept on the error value.
const maxBodyInError = 256

// HTTPError is returned when the token endpoint responds with a non-2xx
// status.
type HTTPError struct {
	StatusCode int
	Body       []byte

	// OAuthError is the parsed error envelope, if the body contained one.
	OAuthError *semerr.Error

	retrieve *oauth2.RetrieveError
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("token endpoint returned HTTP %d", e.StatusCode)
	switch {
	case e.OAuthError != nil:
		msg += ": " + e.OAuthError.Error()
	case len(e.Body) > maxBodyInError:
		msg += ": " + string(e.Body[:maxBodyInError]) + "..."
	case len(e.Body) > 0:
		msg += ": " + string(e.Body)
	}
	return msg
}

// Unwrap exposes the response as an *oauth2.RetrieveError.
func (e *HTTPError) Unwrap() error {
	return e.retrieve
}

// As allows errors.As to find the parsed error envelope.
func (e *HTTPError) As(target interface{}) bool {
	t, ok := target.(**semerr.Error)
	if !ok || e.OAuthError == nil {
		return false
	}

	*t = e.OAuthError
	return true
}

// DecodeError is returned when a successful response body is not a valid
// token response.
type DecodeError struct {
	Body    []byte
	Missing []string
	Cause   error
}

func (e *DecodeError) Error() string {
	if len(e.Missing) > 0 {
		return "token response missing required fields: " + missingFields(e.Missing)
	}
	return "cannot decode token response: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// TimeoutError is returned when no response arrives before the request
// deadline.
type TimeoutError struct {
	// Timeout is the time the request was allowed to take: the client's
	// timeout, or less if the caller's context had an earlier deadline.
	Timeout time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("token request timed out after %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// NetworkError is returned when the request could not be sent or the
// response could not be read, for example because of a DNS failure or a
// refused connection.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return "token request failed: " + e.Cause.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

func newHTTPError(rerr *oauth2.RetrieveError) error {
	err := &HTTPError{
		StatusCode: rerr.Response.StatusCode,
		Body:       rerr.Body,
		OAuthError: semerr.FromBody(rerr.Body),
		retrieve:   rerr,
	}

	return semerr.MapRetrieveError(err, rerr)
}

// transportError classifies a failure to complete the round trip. ctx is the
// request context carrying the deadline and timeout is the time the request
// was given.
func transportError(ctx context.Context, timeout time.Duration, cause error) error {
	var uerr *url.Error
	switch {
	case errors.Is(cause, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(cause, &uerr) && uerr.Timeout():
		return errmark.MarkTransient(&TimeoutError{Timeout: timeout, Cause: cause})
	default:
		return errmark.MarkTransient(&NetworkError{Cause: cause})
	}
}
