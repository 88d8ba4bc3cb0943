package endpoint

import (
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/bitbucket"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/gitlab"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
	"golang.org/x/oauth2/slack"
)

func init() {
	GlobalRegistry.MustRegister("bitbucket", StaticFactory(bitbucket.Endpoint))
	GlobalRegistry.MustRegister("github", StaticFactory(github.Endpoint))
	GlobalRegistry.MustRegister("gitlab", StaticFactory(gitlab.Endpoint))
	GlobalRegistry.MustRegister("google", StaticFactory(google.Endpoint))
	GlobalRegistry.MustRegister("microsoft_azure_ad", azureADFactory)
	GlobalRegistry.MustRegister("slack", StaticFactory(slack.Endpoint))

	GlobalRegistry.MustRegister("custom", customFactory)
}

// StaticFactory returns a factory for an endpoint that takes no options.
func StaticFactory(ep oauth2.Endpoint) FactoryFunc {
	return func(opts map[string]string) (oauth2.Endpoint, error) {
		if len(opts) != 0 {
			return oauth2.Endpoint{}, ErrNoOptions
		}

		return ep, nil
	}
}

func azureADFactory(opts map[string]string) (oauth2.Endpoint, error) {
	tenant := opts["tenant"]
	if tenant == "" {
		return oauth2.Endpoint{}, &OptionError{Option: "tenant", Message: "tenant is required"}
	}

	return microsoft.AzureADEndpoint(tenant), nil
}

func customFactory(opts map[string]string) (oauth2.Endpoint, error) {
	tokenURL := opts["token_url"]
	if tokenURL == "" {
		return oauth2.Endpoint{}, &OptionError{Option: "token_url", Message: "token URL is required"}
	}

	u, err := url.Parse(tokenURL)
	if err != nil || !u.IsAbs() {
		return oauth2.Endpoint{}, &OptionError{Option: "token_url", Message: "token URL must be an absolute URL"}
	}

	return oauth2.Endpoint{
		AuthURL:  opts["auth_code_url"],
		TokenURL: tokenURL,
	}, nil
}
