package semerr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/puppetlabs/leg/errmap/pkg/errmark"
	"github.com/puppetlabs/oauthapp-token-client/pkg/oauth2ext/interop"
	"golang.org/x/oauth2"
)

// Error is an RFC 6749 section 5.2 error reported by the token endpoint.
type Error struct {
	Code        string
	Description string
	URI         string
}

func (e *Error) Error() string {
	msg := "server rejected request: " + e.Code
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.URI != "" {
		msg += " (see " + e.URI + ")"
	}
	return msg
}

func IsCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	return e.Code == code
}

func RuleCode(code string) errmark.Rule {
	return errmark.RuleFunc(func(err error) bool {
		return IsCode(err, code)
	})
}

// FromBody parses an error envelope out of a response body. It returns nil if
// the body is not a JSON error envelope.
func FromBody(body []byte) *Error {
	var env interop.JSONError
	if json.Unmarshal(body, &env) != nil || env.Error == "" {
		return nil
	}

	return &Error{
		Code:        env.Error,
		Description: env.ErrorDescription,
		URI:         env.ErrorURI,
	}
}

// TransientStatus reports whether a token endpoint status code is worth trying
// again later.
func TransientStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

// UserRule matches the error codes that indicate the request itself was bad
// and will not succeed if repeated.
var UserRule = errmark.RuleAny(
	RuleCode("invalid_request"),
	RuleCode("invalid_client"),
	RuleCode("invalid_grant"),
	RuleCode("unauthorized_client"),
	RuleCode("unsupported_grant_type"),
	RuleCode("invalid_scope"),
)

// MapRetrieveError marks a non-2xx token endpoint response as either transient
// or caused by the user. The error passed in stays reachable with errors.As.
func MapRetrieveError(err error, rerr *oauth2.RetrieveError) error {
	if rerr == nil || rerr.Response == nil {
		return err
	}

	if TransientStatus(rerr.Response.StatusCode) {
		return errmark.MarkTransient(err)
	}

	switch rerr.Response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return errmark.MarkUserIf(err, UserRule)
	default:
		return err
	}
}
