package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
)

const defaultVerifyURL = "/api/persona/verify"

// AssertionSource produces a signed identity assertion, typically by running an external sign-in flow.
type AssertionSource interface {
	Assertion(ctx context.Context) (string, error)
}

// AssertionFunc adapts a function to [AssertionSource].
type AssertionFunc func(ctx context.Context) (string, error)

func (f AssertionFunc) Assertion(ctx context.Context) (string, error) { return f(ctx) }

// StaticAssertion is an assertion obtained out of band (a flag or the config file).
type StaticAssertion string

func (s StaticAssertion) Assertion(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", shared.ErrNoAssertion
	}
	return strings.TrimSpace(string(s)), nil
}

// SessionStore is what the identity service needs from [session.Store].
type SessionStore interface {
	Session() models.Session
	Save(session *models.Session) error
	End() (bool, error)
}

// IdentityService verifies assertions against the identity endpoint and manages the local session.
type IdentityService struct {
	api       *APIService
	verifyURL string
	logoutURL string
	sessions  SessionStore
	logger    *log.Logger
}

// NewIdentityService creates an [IdentityService]. Relative verify and logout URLs resolve against the API base URL.
func NewIdentityService(api *APIService, cfg shared.IdentityConfig, sessions SessionStore, logger *log.Logger) *IdentityService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	verifyURL := cfg.VerifyURL
	if verifyURL == "" {
		verifyURL = defaultVerifyURL
	}
	return &IdentityService{
		api:       api,
		verifyURL: verifyURL,
		logoutURL: cfg.LogoutURL,
		sessions:  sessions,
		logger:    logger,
	}
}

type verifyRequest struct {
	Assertion string `json:"assertion"`
}

// Verify obtains an assertion from source, posts it to the verify URL and stores the returned session.
//
// Rejections carry the server's reason and wrap [shared.ErrAuthFailed]. Storage is only written on success.
func (s *IdentityService) Verify(ctx context.Context, source AssertionSource) (*models.Session, error) {
	if source == nil {
		return nil, shared.ErrNoAssertion
	}

	assertion, err := source.Assertion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain assertion: %w", err)
	}
	if assertion == "" {
		return nil, shared.ErrNoAssertion
	}

	resp, err := s.api.PostJSON(ctx, s.verifyURL, verifyRequest{Assertion: assertion})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	var session models.Session
	if err := decodeEnvelope(resp, &session); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Reason != "" {
			return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, apiErr.Reason)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if !session.Authenticated() {
		return nil, fmt.Errorf("%w: verify response carried no access token", shared.ErrAuthFailed)
	}

	if err := s.sessions.Save(&session); err != nil {
		return nil, err
	}

	s.logger.Info("verified", "user", session.UserID, "email", session.Email)
	return &session, nil
}

// Logout notifies the logout URL when one is configured and ends the local session.
//
// A failed remote logout is logged; the local session is ended regardless.
func (s *IdentityService) Logout(ctx context.Context) error {
	if s.logoutURL != "" {
		current := s.sessions.Session()
		resp, err := s.api.Post(ctx, s.logoutURL, nil, WithToken(current.AccessToken))
		if err == nil {
			err = decodeEnvelope(resp, nil)
		}
		if err != nil {
			s.logger.Warn("remote logout failed", "url", s.logoutURL, "error", err)
		}
	}

	existed, err := s.sessions.End()
	if err != nil {
		return err
	}

	s.logger.Info("logged out", "had_session", existed)
	return nil
}
