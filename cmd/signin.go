package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/desertthunder/mtx/internal/server"
	"github.com/desertthunder/mtx/internal/shared"
	"golang.org/x/oauth2"
)

const signInTimeout = 2 * time.Minute

// doSignIn runs the OpenID Connect authorization code flow with a local callback server and
// returns the verified ID token as the identity assertion.
func (r *Runner) doSignIn(ctx context.Context) (string, error) {
	oc := r.config.Identity.OIDC

	provider, err := oidc.NewProvider(ctx, oc.Issuer)
	if err != nil {
		return "", fmt.Errorf("%w: failed to discover %s: %v", shared.ErrServiceUnavailable, oc.Issuer, err)
	}

	scopes := oc.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email"}
	}

	config := &oauth2.Config{
		ClientID:     oc.ClientID,
		ClientSecret: oc.ClientSecret,
		RedirectURL:  oc.RedirectURI,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: oc.ClientID})

	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	nonce, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	handler := server.NewAssertionHandler(config, server.OIDCVerifier(verifier), state, nonce)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(shared.WithLogger(r.logger, "component", "signin")))
	router.Handler(handler)

	serverAddr := r.config.Server.Addr()
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting sign-in server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	time.Sleep(100 * time.Millisecond)

	authURL := handler.AuthCodeURL()
	r.writePlain("→ Opening browser to sign in...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for sign-in (2 minute timeout)...\n")

	timeout := time.NewTimer(signInTimeout)
	defer timeout.Stop()

	var result server.AssertionResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: sign-in timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := result.Error(); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return result.Assertion, nil
}
