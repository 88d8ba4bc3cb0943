package testutil

import (
	"net/http"
	"net/http/httptest"
)

/* #nosec G101 */
const (
	MockTokenURL     = "http://localhost/token"
	MockClientID     = "abc"
	MockClientSecret = "def"
)

// MockRoundTripper serves requests from Handler in process. A request whose
// context ends before the handler returns fails with the context error, so
// deadlines on a fake clock behave like they would on the network.
type MockRoundTripper struct {
	Handler http.Handler
}

func (mrt *MockRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	done := make(chan *http.Response, 1)
	go func() {
		rec := httptest.NewRecorder()
		mrt.Handler.ServeHTTP(rec, r)

		resp := rec.Result()
		resp.Request = r
		done <- resp
	}()

	select {
	case resp := <-done:
		return resp, nil
	case <-r.Context().Done():
		return nil, r.Context().Err()
	}
}

// MockHTTPClient returns an HTTP client that serves every request from the
// given handler without touching the network.
func MockHTTPClient(h http.Handler) *http.Client {
	return &http.Client{
		Transport: &MockRoundTripper{Handler: h},
	}
}
