package clientctx

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// RequestFunc amends an outgoing request. Returning an error aborts it.
type RequestFunc func(req *http.Request) error

type requestUpdater struct {
	next http.RoundTripper
	fns  []RequestFunc
}

func (ru *requestUpdater) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for _, fn := range ru.fns {
		if err := fn(req); err != nil {
			return nil, err
		}
	}
	return ru.next.RoundTrip(req)
}

// WithUpdatedRequest returns a context whose OAuth2 HTTP client runs fn on
// every request before sending it. Functions added by earlier calls run
// first.
func WithUpdatedRequest(ctx context.Context, fn RequestFunc) context.Context {
	client := *oauth2.NewClient(ctx, nil)

	var ru *requestUpdater
	switch t := client.Transport.(type) {
	case *requestUpdater:
		ru = &requestUpdater{
			next: t.next,
			fns:  append(append([]RequestFunc(nil), t.fns...), fn),
		}
	case nil:
		ru = &requestUpdater{next: http.DefaultTransport, fns: []RequestFunc{fn}}
	default:
		ru = &requestUpdater{next: t, fns: []RequestFunc{fn}}
	}
	client.Transport = ru

	return context.WithValue(ctx, oauth2.HTTPClient, &client)
}

// WithHeader returns a context whose OAuth2 HTTP client sets the given header
// on every outgoing request.
func WithHeader(ctx context.Context, key, value string) context.Context {
	return WithUpdatedRequest(ctx, func(req *http.Request) error {
		req.Header.Set(key, value)
		return nil
	})
}
