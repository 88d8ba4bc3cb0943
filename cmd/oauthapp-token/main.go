package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/puppetlabs/leg/errmap/pkg/errmap"
	"github.com/puppetlabs/leg/errmap/pkg/errmark"
	"github.com/puppetlabs/oauthapp-token-client/pkg/config"
	"github.com/puppetlabs/oauthapp-token-client/pkg/endpoint"
	"github.com/puppetlabs/oauthapp-token-client/pkg/oauth2ext/clientctx"
	"github.com/puppetlabs/oauthapp-token-client/pkg/tokenclient"
	"github.com/spf13/pflag"
)

const name = "oauthapp-token"

// Set with -ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := config.NewFlagSet(name)
	fs.SetOutput(stderr)

	cfg, err := config.Load(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	} else if err != nil {
		return fail(stderr, nil, err, "failed to load configuration")
	}

	level := hclog.Info
	if cfg.Debug {
		level = hclog.Debug
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  level,
		Output: stderr,
	})

	if err := cfg.Validate(); err != nil {
		return fail(stderr, logger, err, "configuration is not valid")
	}

	tokenURL, err := cfg.ResolveTokenURL(endpoint.GlobalRegistry)
	if err != nil {
		return fail(stderr, logger, err, "could not determine token URL")
	}

	c := tokenclient.NewWithOptions(cfg.ClientID, cfg.ClientSecret, tokenURL, tokenclient.Options{
		Logger:  logger.Named("client"),
		Timeout: cfg.Timeout,
	})

	ctx = clientctx.WithHeader(ctx, "User-Agent", name+"/"+version)

	var tok *tokenclient.Token
	if cfg.Code != "" {
		tok, err = c.ExchangeAuthorizationCode(ctx, cfg.Code, cfg.RedirectURI)
	} else {
		tok, err = c.ExchangeRefreshToken(ctx, cfg.RefreshToken)
	}
	if err != nil {
		return fail(stderr, logger, err, "token exchange failed")
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tok); err != nil {
		return fail(stderr, logger, err, "could not write token")
	}

	return 0
}

// fail reports err and returns the process exit code. User errors get only
// their short message; anything else is logged in full.
func fail(stderr io.Writer, logger hclog.Logger, err error, msg string) int {
	if errmark.MarkedUser(err) || logger == nil {
		fmt.Fprintln(stderr, errmap.Wrap(errmark.MarkShort(err), msg).Error())
		return 1
	}

	logger.Error(msg, "error", err)
	return 1
}
