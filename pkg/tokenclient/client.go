package tokenclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/puppetlabs/leg/timeutil/pkg/clockctx"
	"golang.org/x/oauth2"
)

const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"

	DefaultTimeout = 30 * time.Second
)

type Options struct {
	Logger hclog.Logger

	// Timeout bounds each token request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient is used for token requests. If nil, the client from the
	// request context's oauth2.HTTPClient value is used, falling back to
	// http.DefaultClient.
	//
	// The request deadline is computed from the clock in the request context
	// (see clockctx.WithClock). A transport that dials the network must be
	// paired with a real clock.
	HTTPClient *http.Client
}

// Client obtains access tokens from a single OAuth 2.0 token endpoint and
// holds on to the most recent one.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string

	timeout    time.Duration
	httpClient *http.Client
	logger     hclog.Logger

	mut   sync.RWMutex
	token *Token
}

// New creates a client for the given credentials and token endpoint. The
// values are not validated; a bad token URL is reported by the first request.
func New(clientID, clientSecret, tokenURL string) *Client {
	return NewWithOptions(clientID, clientSecret, tokenURL, Options{})
}

func NewWithOptions(clientID, clientSecret, tokenURL string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,

		timeout:    timeout,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// ExchangeAuthorizationCode trades an authorization code for a token. The
// redirect URI must match the one used to obtain the code.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	return c.exchange(ctx, url.Values{
		"grant_type":   {GrantTypeAuthorizationCode},
		"code":         {code},
		"redirect_uri": {redirectURI},
	})
}

// ExchangeRefreshToken trades a refresh token for a new token. If the
// response does not include a refresh token, neither does the result.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	return c.exchange(ctx, url.Values{
		"grant_type":    {GrantTypeRefreshToken},
		"refresh_token": {refreshToken},
	})
}

// Token returns the token from the most recent successful exchange.
func (c *Client) Token() (*Token, bool) {
	c.mut.RLock()
	defer c.mut.RUnlock()

	return c.token, c.token != nil
}

// isTokenExpired only looks at the expires_in value the provider sent, not at
// how much time has passed since then.
func (c *Client) isTokenExpired() bool {
	tok, ok := c.Token()
	if !ok {
		return true
	}

	return tok.ExpiresIn() <= 0
}

func (c *Client) exchange(ctx context.Context, v url.Values) (*Token, error) {
	grantType := v.Get("grant_type")
	logger := c.logger.With("grant_type", grantType)

	v.Set("client_id", c.clientID)
	v.Set("client_secret", c.clientSecret)

	tok, err := c.retrieve(ctx, v)
	if err != nil {
		logger.Warn("token request failed", "error", err)
		return nil, err
	}

	c.mut.Lock()
	defer c.mut.Unlock()

	c.token = tok

	_, refreshed := tok.RefreshToken()
	logger.Debug("token issued", "token_type", tok.TokenType(), "expires_in", tok.ExpiresIn(), "refresh_token", refreshed)
	return tok, nil
}

func (c *Client) retrieve(ctx context.Context, v url.Values) (*Token, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		// The caller's deadline wins when it is sooner than ours.
		if d := deadline.Sub(clockctx.Clock(ctx).Now()); d < timeout {
			timeout = d
		}
	}
	if timeout < 0 {
		timeout = 0
	}

	ctx, cancel := clockctx.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(v.Encode()))
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting token", "token_url", c.tokenURL, "grant_type", v.Get("grant_type"))

	resp, err := oauth2.NewClient(ctx, nil).Do(req)
	if err != nil {
		return nil, transportError(ctx, timeout, err)
	}
	defer resp.Body.Close()

	// This is the same restriction as used by Go's OAuth2 package for
	// consistency.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, transportError(ctx, timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPError(&oauth2.RetrieveError{
			Response: resp,
			Body:     body,
		})
	}

	return decodeToken(body, clockctx.Clock(ctx).Now())
}
