package endpoint_test

import (
	"errors"
	"testing"

	"github.com/puppetlabs/leg/errmap/pkg/errmark"
	"github.com/puppetlabs/oauthapp-token-client/pkg/endpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

func TestRegistryRegister(t *testing.T) {
	r := endpoint.NewRegistry()
	require.NoError(t, r.Register("a", endpoint.StaticFactory(oauth2.Endpoint{TokenURL: "http://a/token"})))
	require.Error(t, r.Register("a", endpoint.StaticFactory(oauth2.Endpoint{})))
	assert.Panics(t, func() {
		r.MustRegister("a", endpoint.StaticFactory(oauth2.Endpoint{}))
	})

	r.MustRegister("b", endpoint.StaticFactory(oauth2.Endpoint{}))
	assert.Equal(t, []string{"a", "b"}, r.Names())

	ep, err := r.Resolve("a", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://a/token", ep.TokenURL)
}

func TestGlobalRegistry(t *testing.T) {
	tests := []struct {
		Name             string
		Options          map[string]string
		ExpectedTokenURL string
		ExpectedError    func(t *testing.T, err error)
	}{
		{
			Name:             "github",
			ExpectedTokenURL: github.Endpoint.TokenURL,
		},
		{
			Name:             "google",
			ExpectedTokenURL: "https://oauth2.googleapis.com/token",
		},
		{
			Name:    "github",
			Options: map[string]string{"tenant": "x"},
			ExpectedError: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, endpoint.ErrNoOptions))
			},
		},
		{
			Name:             "microsoft_azure_ad",
			Options:          map[string]string{"tenant": "contoso"},
			ExpectedTokenURL: "https://login.microsoftonline.com/contoso/oauth2/v2.0/token",
		},
		{
			Name: "microsoft_azure_ad",
			ExpectedError: func(t *testing.T, err error) {
				var oe *endpoint.OptionError
				require.True(t, errors.As(err, &oe))
				assert.Equal(t, "tenant", oe.Option)
			},
		},
		{
			Name:             "custom",
			Options:          map[string]string{"token_url": "https://idp.example.com/oauth/token"},
			ExpectedTokenURL: "https://idp.example.com/oauth/token",
		},
		{
			Name:    "custom",
			Options: map[string]string{"token_url": "/relative"},
			ExpectedError: func(t *testing.T, err error) {
				var oe *endpoint.OptionError
				require.True(t, errors.As(err, &oe))
				assert.Equal(t, "token_url", oe.Option)
			},
		},
		{
			Name: "nope",
			ExpectedError: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, endpoint.ErrNoSuchProvider))
				assert.Contains(t, err.Error(), `"nope"`)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			ep, err := endpoint.GlobalRegistry.Resolve(test.Name, test.Options)
			if test.ExpectedError != nil {
				require.Error(t, err)
				assert.True(t, errmark.MarkedUser(err))
				test.ExpectedError(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.ExpectedTokenURL, ep.TokenURL)
		})
	}
}

func TestResolveFactoryErrorNotUser(t *testing.T) {
	r := endpoint.NewRegistry()
	r.MustRegister("broken", func(opts map[string]string) (oauth2.Endpoint, error) {
		return oauth2.Endpoint{}, errors.New("boom")
	})

	_, err := r.Resolve("broken", nil)
	require.Error(t, err)
	assert.False(t, errmark.MarkedUser(err))
}
