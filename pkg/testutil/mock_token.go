package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/puppetlabs/oauthapp-token-client/pkg/oauth2ext/interop"
)

// MockTokenResponse is what a mock token endpoint replies with.
type MockTokenResponse struct {
	StatusCode int
	Body       []byte
}

type MockTokenFunc func(form url.Values) MockTokenResponse

func StaticMockToken(statusCode int, body string) MockTokenFunc {
	return func(_ url.Values) MockTokenResponse {
		return MockTokenResponse{StatusCode: statusCode, Body: []byte(body)}
	}
}

// JSONMockToken replies 200 with the given value encoded as JSON.
func JSONMockToken(v interface{}) MockTokenFunc {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return StaticMockToken(http.StatusOK, string(b))
}

func MockErrorResponse(statusCode int, env *interop.JSONError) MockTokenFunc {
	b, err := json.Marshal(env)
	if err != nil {
		panic(err)
	}

	return StaticMockToken(statusCode, string(b))
}

// IncrementMockToken issues a new bearer token on every call, numbering the
// access tokens with the given prefix.
func IncrementMockToken(prefix string, expiresIn int) MockTokenFunc {
	var i int32

	return func(_ url.Values) MockTokenResponse {
		return JSONMockToken(map[string]interface{}{
			"access_token": fmt.Sprintf("%s%d", prefix, atomic.AddInt32(&i, 1)),
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})(nil)
	}
}

// SequenceMockToken replies with each function in turn, repeating the last
// one once the others are used up.
func SequenceMockToken(fns ...MockTokenFunc) MockTokenFunc {
	var i int32

	return func(form url.Values) MockTokenResponse {
		n := int(atomic.AddInt32(&i, 1)) - 1
		if n >= len(fns) {
			n = len(fns) - 1
		}

		return fns[n](form)
	}
}

// GrantTypeMockToken dispatches on the grant_type form field. Grant types
// without an entry get an unsupported_grant_type error.
func GrantTypeMockToken(m map[string]MockTokenFunc) MockTokenFunc {
	return func(form url.Values) MockTokenResponse {
		fn, found := m[form.Get("grant_type")]
		if !found {
			fn = MockErrorResponse(http.StatusBadRequest, &interop.JSONError{Error: "unsupported_grant_type"})
		}

		return fn(form)
	}
}

// MockTokenEndpoint is an http.Handler that behaves like an OAuth 2.0 token
// endpoint and records the forms it receives.
type MockTokenEndpoint struct {
	fn MockTokenFunc

	mut      sync.Mutex
	requests []*http.Request
	forms    []url.Values
}

var _ http.Handler = &MockTokenEndpoint{}

func (mte *MockTokenEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	func() {
		mte.mut.Lock()
		defer mte.mut.Unlock()

		mte.requests = append(mte.requests, r)
		mte.forms = append(mte.forms, r.PostForm)
	}()

	resp := mte.fn(r.PostForm)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// Forms returns a copy of the form bodies received so far.
func (mte *MockTokenEndpoint) Forms() []url.Values {
	mte.mut.Lock()
	defer mte.mut.Unlock()

	return append([]url.Values(nil), mte.forms...)
}

// LastRequest returns the most recent request, or nil.
func (mte *MockTokenEndpoint) LastRequest() *http.Request {
	mte.mut.Lock()
	defer mte.mut.Unlock()

	if len(mte.requests) == 0 {
		return nil
	}
	return mte.requests[len(mte.requests)-1]
}

func NewMockTokenEndpoint(fn MockTokenFunc) *MockTokenEndpoint {
	return &MockTokenEndpoint{fn: fn}
}
