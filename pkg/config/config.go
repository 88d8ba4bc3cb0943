package config

import (
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/puppetlabs/leg/errmap/pkg/errmark"
	"github.com/puppetlabs/oauthapp-token-client/pkg/endpoint"
	"github.com/puppetlabs/oauthapp-token-client/pkg/tokenclient"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "OAUTHAPP"

const (
	KeyProvider        = "provider"
	KeyProviderOptions = "provider-options"
	KeyTokenURL        = "token-url"
	KeyClientID        = "client-id"
	KeyClientSecret    = "client-secret"
	KeyCode            = "code"
	KeyRedirectURI     = "redirect-uri"
	KeyRefreshToken    = "refresh-token"
	KeyTimeout         = "timeout"
	KeyDebug           = "debug"
	KeyConfig          = "config"
)

type Config struct {
	Provider        string
	ProviderOptions map[string]string
	TokenURL        string

	ClientID     string
	ClientSecret string

	Code         string
	RedirectURI  string
	RefreshToken string

	Timeout time.Duration
	Debug   bool
}

// NewFlagSet returns the flags understood by Load.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String(KeyProvider, "", "Name of a known provider to take the token URL from")
	fs.StringToString(KeyProviderOptions, nil, "Provider options, for example tenant=contoso")
	fs.String(KeyTokenURL, "", "Token endpoint URL; overrides the provider")
	fs.String(KeyClientID, "", "OAuth 2.0 client ID")
	fs.String(KeyClientSecret, "", "OAuth 2.0 client secret")
	fs.String(KeyCode, "", "Authorization code to exchange")
	fs.String(KeyRedirectURI, "", "Redirect URI used to obtain the authorization code")
	fs.String(KeyRefreshToken, "", "Refresh token to exchange")
	fs.Duration(KeyTimeout, tokenclient.DefaultTimeout, "Token request timeout")
	fs.Bool(KeyDebug, false, "Enable debug logging")
	fs.String(KeyConfig, "", "Path to a config file")
	return fs
}

// Load parses args with the given flag set and merges the result with the
// config file named by --config and OAUTHAPP_* environment variables. Flags
// take precedence over the environment, which takes precedence over the
// file.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errmark.MarkUser(err)
		}
	}

	return &Config{
		Provider:        v.GetString(KeyProvider),
		ProviderOptions: v.GetStringMapString(KeyProviderOptions),
		TokenURL:        v.GetString(KeyTokenURL),
		ClientID:        v.GetString(KeyClientID),
		ClientSecret:    v.GetString(KeyClientSecret),
		Code:            v.GetString(KeyCode),
		RedirectURI:     v.GetString(KeyRedirectURI),
		RefreshToken:    v.GetString(KeyRefreshToken),
		Timeout:         v.GetDuration(KeyTimeout),
		Debug:           v.GetBool(KeyDebug),
	}, nil
}

func validationErrorFormat(es []error) string {
	if len(es) == 1 {
		return "invalid configuration: " + es[0].Error()
	}

	var buf strings.Builder
	buf.WriteString("invalid configuration:")
	for _, err := range es {
		buf.WriteString("\n\t* ")
		buf.WriteString(err.Error())
	}

	return buf.String()
}

// Validate reports every problem with the configuration at once. The
// returned error is marked as a user error.
func (c *Config) Validate() error {
	err := &multierror.Error{ErrorFormat: validationErrorFormat}

	if c.ClientID == "" {
		err = multierror.Append(err, errors.New(KeyClientID+" is required"))
	}
	if c.ClientSecret == "" {
		err = multierror.Append(err, errors.New(KeyClientSecret+" is required"))
	}

	switch {
	case c.Code != "" && c.RefreshToken != "":
		err = multierror.Append(err, errors.New("only one of "+KeyCode+" or "+KeyRefreshToken+" may be given"))
	case c.Code == "" && c.RefreshToken == "":
		err = multierror.Append(err, errors.New("one of "+KeyCode+" or "+KeyRefreshToken+" is required"))
	case c.Code != "" && c.RedirectURI == "":
		err = multierror.Append(err, errors.New(KeyRedirectURI+" is required with "+KeyCode))
	}

	if c.TokenURL == "" && c.Provider == "" {
		err = multierror.Append(err, errors.New("one of "+KeyTokenURL+" or "+KeyProvider+" is required"))
	}

	if c.Timeout < 0 {
		err = multierror.Append(err, errors.New(KeyTimeout+" must not be negative"))
	}

	if rerr := err.ErrorOrNil(); rerr != nil {
		return errmark.MarkUser(rerr)
	}

	return nil
}

// ResolveTokenURL returns the configured token URL, or the token URL of the
// configured provider looked up in the given registry.
func (c *Config) ResolveTokenURL(r *endpoint.Registry) (string, error) {
	if c.TokenURL != "" {
		return c.TokenURL, nil
	}

	ep, err := r.Resolve(c.Provider, c.ProviderOptions)
	if err != nil {
		return "", err
	}

	return ep.TokenURL, nil
}
