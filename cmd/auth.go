package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin verifies an identity assertion and stores the resulting session.
//
// The assertion comes from --assertion, then identity.assertion in config, then the browser flow
// when an OIDC client is configured.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	source, err := r.assertionSource(cmd.String("assertion"), cmd.Bool("browser"))
	if err != nil {
		return err
	}

	session, err := r.engine.Verify(ctx, source, nil)
	if err != nil {
		return err
	}

	r.writePlain("✓ Signed in as %s (%s)\n", session.Email, session.UserID)
	return nil
}

func (r *Runner) assertionSource(flag string, browser bool) (services.AssertionSource, error) {
	if !browser {
		if flag != "" {
			return services.StaticAssertion(flag), nil
		}
		if r.config.Identity.Assertion != "" {
			r.logger.Debug("using assertion from config")
			return services.StaticAssertion(r.config.Identity.Assertion), nil
		}
	}

	if !r.config.Identity.OIDC.Enabled() {
		return nil, fmt.Errorf("%w: pass --assertion or configure identity.oidc issuer and client_id", shared.ErrNoAssertion)
	}
	return services.AssertionFunc(r.doSignIn), nil
}

// AuthLogout ends the session. The local session is removed even when the remote logout fails.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	wasSignedIn := r.engine.Verified()
	if err := r.engine.Logout(ctx, nil); err != nil {
		return err
	}

	if !wasSignedIn {
		return r.writePlain("Not signed in\n")
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus prints the stored session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	session := r.engine.Session()
	if cmd.Bool("json") {
		session.AccessToken = ""
		return r.writeJSON(session, cmd.Bool("pretty"))
	}

	if !session.Authenticated() {
		r.writePlain("✗ Not signed in\n")
		return r.writePlain("Run 'mtx auth login' to sign in\n")
	}

	r.writePlain("✓ Signed in\n")
	r.writePlain("User: %s\n", session.UserID)
	if session.Email != "" {
		r.writePlain("Email: %s\n", session.Email)
	}
	return r.writePlain("Server: %s\n", r.client().BaseURL())
}
