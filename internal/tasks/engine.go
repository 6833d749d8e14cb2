package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/desertthunder/mtx/internal/viewmodel"
)

// Action is a progress write against the tracker.
type Action string

const (
	ActionStart  Action = "start"
	ActionFinish Action = "finish"
	ActionClear  Action = "clear"
)

// ParseAction maps a command name onto an [Action].
func ParseAction(name string) (Action, error) {
	switch a := Action(name); a {
	case ActionStart, ActionFinish, ActionClear:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", shared.ErrInvalidArgument, name)
	}
}

// Phase is the progress phase reported for a single write.
func (a Action) Phase() Phase {
	switch a {
	case ActionFinish:
		return FinishMedia
	case ActionClear:
		return ClearMedia
	default:
		return StartMedia
	}
}

// Past is the past-tense verb used in messages.
func (a Action) Past() string {
	switch a {
	case ActionFinish:
		return "Finished"
	case ActionClear:
		return "Cleared"
	default:
		return "Started"
	}
}

// Identity is the sign-in surface the engine drives.
type Identity interface {
	Verify(ctx context.Context, source services.AssertionSource) (*models.Session, error)
	Logout(ctx context.Context) error
}

// Sessions reads the current session.
type Sessions interface {
	Session() models.Session
}

// ProgressEngine is the controller behind every view: it owns the view model and keeps it in sync
// with the tracker for the signed-in user.
type ProgressEngine struct {
	tracker  services.Tracker
	identity Identity
	sessions Sessions
	view     *viewmodel.Progress
	logger   *log.Logger

	mu       sync.Mutex
	verified bool
}

// NewProgressEngine creates a new [ProgressEngine] with an empty view model.
func NewProgressEngine(tracker services.Tracker, identity Identity, sessions Sessions, logger *log.Logger) *ProgressEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ProgressEngine{
		tracker:  tracker,
		identity: identity,
		sessions: sessions,
		view:     viewmodel.New(),
		logger:   logger,
	}
}

// View returns the view model the engine keeps current.
func (e *ProgressEngine) View() *viewmodel.Progress {
	return e.view
}

// Verified reports whether a signed-in session is active.
func (e *ProgressEngine) Verified() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.verified
}

// UserID returns the signed-in user, or "" when nobody is.
func (e *ProgressEngine) UserID() string {
	return e.view.User()
}

// Session returns the stored session.
func (e *ProgressEngine) Session() models.Session {
	return e.sessions.Session()
}

// Restore marks the engine verified when the stored session carries an access token.
func (e *ProgressEngine) Restore() bool {
	session := e.sessions.Session()
	if !session.Authenticated() {
		return false
	}
	e.setUser(session.UserID, true)
	e.logger.Debug("restored session", "user", session.UserID)
	return true
}

// Verify signs in with an assertion from source.
func (e *ProgressEngine) Verify(ctx context.Context, source services.AssertionSource, progress chan<- ProgressUpdate) (*models.Session, error) {
	if e.identity == nil {
		return nil, fmt.Errorf("%w: identity service not initialized", shared.ErrServiceUnavailable)
	}

	session, err := e.identity.Verify(ctx, source)
	if err != nil {
		e.logger.Error("verification failure", "error", err)
		return nil, err
	}

	e.setUser(session.UserID, true)
	e.sendProgress(progress, verifyUpdate(session.Email))
	return session, nil
}

// Logout signs out. The engine forgets the user even if the identity service reports an error.
func (e *ProgressEngine) Logout(ctx context.Context, progress chan<- ProgressUpdate) error {
	if e.identity == nil {
		return fmt.Errorf("%w: identity service not initialized", shared.ErrServiceUnavailable)
	}

	err := e.identity.Logout(ctx)
	e.setUser("", false)
	if err != nil {
		e.logger.Error("logout failure", "error", err)
		return err
	}

	e.sendProgress(progress, logoutUpdate())
	return nil
}

// RefreshMedia fetches the catalog into the view model. On failure the previous catalog is kept.
func (e *ProgressEngine) RefreshMedia(ctx context.Context, progress chan<- ProgressUpdate) error {
	media, err := e.tracker.Media(ctx)
	if err != nil {
		e.logger.Error("failed to fetch media", "error", err)
		return err
	}

	e.view.SetMedia(media)
	e.sendProgress(progress, fetchMediaUpdate(len(media)))
	return nil
}

// RefreshProgress fetches every progress record into the view model.
func (e *ProgressEngine) RefreshProgress(ctx context.Context, progress chan<- ProgressUpdate) error {
	records, err := e.tracker.Progress(ctx)
	if err != nil {
		e.logger.Error("failed to fetch progress", "error", err)
		return err
	}

	e.view.SetProgress(records)
	e.sendProgress(progress, fetchProgressUpdate(len(records)))
	return nil
}

// Refresh fetches media then progress. Both fetches run regardless of the other's outcome.
func (e *ProgressEngine) Refresh(ctx context.Context, progress chan<- ProgressUpdate) error {
	mediaErr := e.RefreshMedia(ctx, progress)
	progressErr := e.RefreshProgress(ctx, progress)
	return errors.Join(mediaErr, progressErr)
}

// Start marks mediaID as started for the session user and re-fetches progress.
func (e *ProgressEngine) Start(ctx context.Context, mediaID string, progress chan<- ProgressUpdate) error {
	return e.Mark(ctx, ActionStart, mediaID, progress)
}

// Finish marks mediaID as finished for the session user and re-fetches progress.
func (e *ProgressEngine) Finish(ctx context.Context, mediaID string, progress chan<- ProgressUpdate) error {
	return e.Mark(ctx, ActionFinish, mediaID, progress)
}

// Clear removes the session user's progress on mediaID and re-fetches progress.
func (e *ProgressEngine) Clear(ctx context.Context, mediaID string, progress chan<- ProgressUpdate) error {
	return e.Mark(ctx, ActionClear, mediaID, progress)
}

// Mark applies action to mediaID and re-fetches progress on success.
func (e *ProgressEngine) Mark(ctx context.Context, action Action, mediaID string, progress chan<- ProgressUpdate) error {
	session, err := e.authenticated()
	if err != nil {
		return err
	}

	if err := e.write(ctx, action, session, mediaID); err != nil {
		e.logger.Error(string(action)+" failed", "media", mediaID, "error", err)
		return err
	}

	e.sendProgress(progress, markUpdate(action, mediaID))
	return e.RefreshProgress(ctx, progress)
}

func (e *ProgressEngine) write(ctx context.Context, action Action, session models.Session, mediaID string) error {
	switch action {
	case ActionStart:
		return e.tracker.Start(ctx, session, mediaID)
	case ActionFinish:
		return e.tracker.Finish(ctx, session, mediaID)
	case ActionClear:
		return e.tracker.Clear(ctx, session, mediaID)
	default:
		return fmt.Errorf("%w: unknown action %q", shared.ErrInvalidArgument, action)
	}
}

func (e *ProgressEngine) authenticated() (models.Session, error) {
	session := e.sessions.Session()
	if !session.Authenticated() {
		return session, fmt.Errorf("%w: sign in first", shared.ErrNotAuthenticated)
	}
	return session, nil
}

func (e *ProgressEngine) setUser(userID string, verified bool) {
	e.mu.Lock()
	e.verified = verified
	e.mu.Unlock()
	e.view.SetUser(userID)
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ProgressEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
