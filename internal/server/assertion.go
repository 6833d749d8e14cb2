package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const defaultCallbackPath = "/callback"

// TokenVerifier checks a raw ID token and returns the nonce it carries.
type TokenVerifier func(ctx context.Context, rawIDToken string) (nonce string, err error)

// OIDCVerifier adapts an [oidc.IDTokenVerifier] to a [TokenVerifier].
func OIDCVerifier(v *oidc.IDTokenVerifier) TokenVerifier {
	return func(ctx context.Context, rawIDToken string) (string, error) {
		token, err := v.Verify(ctx, rawIDToken)
		if err != nil {
			return "", err
		}
		return token.Nonce, nil
	}
}

// AssertionResult contains the outcome of a sign-in flow: the verified raw ID token, or an error.
type AssertionResult struct {
	Assertion string
	err       error
}

func (a *AssertionResult) Error() error {
	return a.err
}

// AssertionHandler handles the OpenID Connect authorization code callback and yields the ID token
// as an identity assertion.
// Implements the Handler interface for registration with a Router.
type AssertionHandler struct {
	config      *oauth2.Config
	verify      TokenVerifier
	state       string
	nonce       string
	resultChan  chan AssertionResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewAssertionHandler creates a handler for config's redirect URL.
//
// state and nonce should be random per flow; an empty nonce skips the nonce check.
func NewAssertionHandler(config *oauth2.Config, verify TokenVerifier, state, nonce string) *AssertionHandler {
	return &AssertionHandler{
		config:     config,
		verify:     verify,
		state:      state,
		nonce:      nonce,
		resultChan: make(chan AssertionResult, 1),
	}
}

// AuthCodeURL is the provider URL the user signs in at.
func (h *AssertionHandler) AuthCodeURL() string {
	if h.nonce == "" {
		return h.config.AuthCodeURL(h.state)
	}
	return h.config.AuthCodeURL(h.state, oidc.Nonce(h.nonce))
}

// Routes returns the path of the configured redirect URL, or "/callback".
func (h *AssertionHandler) Routes() []string {
	if u, err := url.Parse(h.config.RedirectURL); err == nil && u.Path != "" && u.Path != "/" {
		return []string{u.Path}
	}
	return []string{defaultCallbackPath}
}

// ServeHTTP validates the state, exchanges the code, verifies the ID token and sends the result.
// Only the first callback is processed.
func (h *AssertionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.Send(AssertionResult{err: errors.New("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization failed: %s - %s", query.Get("error"), query.Get("error_description"))
		h.Send(AssertionResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.Send(AssertionResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		h.Send(AssertionResult{err: errors.New("token response carried no id_token")})
		http.Error(w, "Missing ID token", http.StatusBadGateway)
		return
	}

	if h.verify != nil {
		nonce, err := h.verify(r.Context(), rawIDToken)
		if err != nil {
			h.Send(AssertionResult{err: fmt.Errorf("id token verification failed: %w", err)})
			http.Error(w, "ID token verification failed", http.StatusUnauthorized)
			return
		}
		if h.nonce != "" && nonce != h.nonce {
			h.Send(AssertionResult{err: errors.New("id token nonce mismatch")})
			http.Error(w, "ID token verification failed", http.StatusUnauthorized)
			return
		}
	}

	h.Send(AssertionResult{Assertion: rawIDToken})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, signedInPage)
}

// Send sends the result through the channel (only once).
func (h *AssertionHandler) Send(result AssertionResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving sign-in completion.
//
// Channel will receive exactly one result and then be closed.
func (h *AssertionHandler) Result() <-chan AssertionResult {
	return h.resultChan
}

const signedInPage = `<!DOCTYPE html>
<html>
<head>
    <title>Signed In</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #7c3aed; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Signed in to mtx</h1>
        <p>Your progress is tracked under this identity. You can close this window.</p>
    </div>
</body>
</html>
`
