package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/puppetlabs/oauthapp-token-client/pkg/oauth2ext/interop"
	"github.com/puppetlabs/oauthapp-token-client/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRefreshToken(t *testing.T) {
	endpoint := testutil.NewMockTokenEndpoint(testutil.StaticMockToken(http.StatusOK, `{"access_token":"a","token_type":"Bearer","expires_in":60,"refresh_token":"r2"}`))
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--token-url", srv.URL + "/token",
		"--client-id", testutil.MockClientID,
		"--client-secret", testutil.MockClientSecret,
		"--refresh-token", "r1",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.JSONEq(t, `{"access_token":"a","token_type":"Bearer","expires_in":60,"refresh_token":"r2"}`, stdout.String())

	req := endpoint.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "oauthapp-token/dev", req.Header.Get("User-Agent"))

	forms := endpoint.Forms()
	require.Len(t, forms, 1)
	assert.Equal(t, "refresh_token", forms[0].Get("grant_type"))
	assert.Equal(t, "r1", forms[0].Get("refresh_token"))
}

func TestRunAuthorizationCode(t *testing.T) {
	endpoint := testutil.NewMockTokenEndpoint(testutil.IncrementMockToken("token", 3600))
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--provider", "custom",
		"--provider-options", "token_url=" + srv.URL + "/token",
		"--client-id", testutil.MockClientID,
		"--client-secret", testutil.MockClientSecret,
		"--code", "code1",
		"--redirect-uri", "https://cb",
		"--debug",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.JSONEq(t, `{"access_token":"token1","token_type":"Bearer","expires_in":3600}`, stdout.String())
	assert.Contains(t, stderr.String(), "token issued")
	assert.NotContains(t, stderr.String(), testutil.MockClientSecret)

	forms := endpoint.Forms()
	require.Len(t, forms, 1)
	assert.Equal(t, "code1", forms[0].Get("code"))
	assert.Equal(t, "https://cb", forms[0].Get("redirect_uri"))
}

func TestRunUserErrors(t *testing.T) {
	endpoint := testutil.NewMockTokenEndpoint(testutil.MockErrorResponse(http.StatusBadRequest, &interop.JSONError{Error: "invalid_grant"}))
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	tests := []struct {
		Name     string
		Args     []string
		Expected string
	}{
		{
			Name:     "Invalid configuration",
			Args:     []string{"--refresh-token", "r"},
			Expected: "configuration is not valid",
		},
		{
			Name: "Unknown provider",
			Args: []string{
				"--provider", "nope",
				"--client-id", "a",
				"--client-secret", "b",
				"--refresh-token", "r",
			},
			Expected: "could not determine token URL",
		},
		{
			Name: "Rejected grant",
			Args: []string{
				"--token-url", srv.URL,
				"--client-id", "a",
				"--client-secret", "b",
				"--refresh-token", "r",
			},
			Expected: "token exchange failed",
		},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), test.Args, &stdout, &stderr)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout.String())
			assert.Contains(t, stderr.String(), test.Expected)
		})
	}
}

func TestRunServerError(t *testing.T) {
	srv := httptest.NewServer(testutil.NewMockTokenEndpoint(testutil.StaticMockToken(http.StatusServiceUnavailable, "")))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--token-url", srv.URL,
		"--client-id", "a",
		"--client-secret", "b",
		"--refresh-token", "r",
	}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "[ERROR]")
	assert.Contains(t, stderr.String(), "HTTP 503")
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"--help"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--token-url")
}
