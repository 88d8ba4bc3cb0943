package tokenclient

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/puppetlabs/oauthapp-token-client/pkg/oauth2ext/interop"
	"golang.org/x/oauth2"
)

// Token is the result of a successful token request. It cannot be modified
// after it is decoded; every request produces a new Token.
type Token struct {
	accessToken     string
	tokenType       string
	expiresIn       int64
	refreshToken    string
	hasRefreshToken bool
	issuedAt        time.Time
}

func (t *Token) AccessToken() string {
	return t.accessToken
}

func (t *Token) TokenType() string {
	return t.tokenType
}

// ExpiresIn is the lifetime of the access token in seconds, exactly as the
// provider reported it.
func (t *Token) ExpiresIn() int64 {
	return t.expiresIn
}

// RefreshToken returns the refresh token and whether the provider issued one.
func (t *Token) RefreshToken() (string, bool) {
	return t.refreshToken, t.hasRefreshToken
}

// IssuedAt is the time the response was decoded, according to the clock of
// the request context.
func (t *Token) IssuedAt() time.Time {
	return t.issuedAt
}

// Expiry returns the time the access token expires, or the zero time if the
// provider sent an expires_in of 0.
func (t *Token) Expiry() time.Time {
	if t.expiresIn == 0 {
		return time.Time{}
	}

	return t.issuedAt.Add(time.Duration(t.expiresIn) * time.Second)
}

// OAuth2 converts the token for use with the golang.org/x/oauth2 package, for
// example with oauth2.StaticTokenSource.
func (t *Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.accessToken,
		TokenType:    t.tokenType,
		RefreshToken: t.refreshToken,
		Expiry:       t.Expiry(),
	}
}

// MarshalJSON encodes the token in the same shape as a token endpoint
// response.
func (t *Token) MarshalJSON() ([]byte, error) {
	jt := interop.JSONToken{
		AccessToken: &t.accessToken,
		TokenType:   &t.tokenType,
		ExpiresIn:   &t.expiresIn,
	}
	if t.hasRefreshToken {
		jt.RefreshToken = &t.refreshToken
	}

	return json.Marshal(jt)
}

func decodeToken(body []byte, issuedAt time.Time) (*Token, error) {
	var jt interop.JSONToken
	if err := json.Unmarshal(body, &jt); err != nil {
		return nil, &DecodeError{Body: body, Cause: err}
	}

	if missing := jt.Missing(); len(missing) > 0 {
		return nil, &DecodeError{Body: body, Missing: missing}
	}

	tok := &Token{
		accessToken: *jt.AccessToken,
		tokenType:   *jt.TokenType,
		expiresIn:   *jt.ExpiresIn,
		issuedAt:    issuedAt,
	}
	if jt.RefreshToken != nil {
		tok.refreshToken = *jt.RefreshToken
		tok.hasRefreshToken = true
	}

	return tok, nil
}

func missingFields(missing []string) string {
	return strings.Join(missing, ", ")
}
