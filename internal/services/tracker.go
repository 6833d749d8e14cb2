package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
)

const (
	pathMedia      = "/api/media"
	pathProgress   = "/api/media/progress"
	pathInProgress = "/api/in_progress"
	pathFinished   = "/api/finished"
	pathStart      = "/api/start"
	pathFinish     = "/api/finish"
	pathClear      = "/api/clear"
)

// Tracker is the set of mtrack calls the progress engine depends on.
type Tracker interface {
	Media(ctx context.Context) ([]models.MediaItem, error)
	Progress(ctx context.Context) ([]models.ProgressRecord, error)
	Start(ctx context.Context, session models.Session, mediaID string) error
	Finish(ctx context.Context, session models.Session, mediaID string) error
	Clear(ctx context.Context, session models.Session, mediaID string) error
}

// TrackerService implements [Tracker] over an [APIService].
type TrackerService struct {
	api *APIService
}

type mediaResults struct {
	Results []models.MediaItem `json:"results"`
}

type progressResults struct {
	Results []models.ProgressRecord `json:"results"`
}

// progressRequest is the body of start, finish and clear.
type progressRequest struct {
	UserID  string `json:"userId"`
	MediaID string `json:"mediaId"`
}

// NewTrackerService creates a new [TrackerService].
func NewTrackerService(api *APIService) *TrackerService {
	return &TrackerService{api: api}
}

// Media fetches the media catalog.
func (t *TrackerService) Media(ctx context.Context) ([]models.MediaItem, error) {
	var out mediaResults
	if err := t.get(ctx, pathMedia, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Progress fetches every user's progress records.
func (t *TrackerService) Progress(ctx context.Context) ([]models.ProgressRecord, error) {
	return t.records(ctx, pathProgress)
}

// InProgress fetches only the records without a finished mark.
func (t *TrackerService) InProgress(ctx context.Context) ([]models.ProgressRecord, error) {
	return t.records(ctx, pathInProgress)
}

// Finished fetches only the finished records.
func (t *TrackerService) Finished(ctx context.Context) ([]models.ProgressRecord, error) {
	records, err := t.records(ctx, pathFinished)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Finished = true
	}
	return records, nil
}

// Start marks mediaID as started for the session user.
func (t *TrackerService) Start(ctx context.Context, session models.Session, mediaID string) error {
	return t.post(ctx, pathStart, session, mediaID)
}

// Finish marks mediaID as finished for the session user.
func (t *TrackerService) Finish(ctx context.Context, session models.Session, mediaID string) error {
	return t.post(ctx, pathFinish, session, mediaID)
}

// Clear removes the session user's progress on mediaID.
func (t *TrackerService) Clear(ctx context.Context, session models.Session, mediaID string) error {
	return t.post(ctx, pathClear, session, mediaID)
}

func (t *TrackerService) records(ctx context.Context, path string) ([]models.ProgressRecord, error) {
	var out progressResults
	if err := t.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (t *TrackerService) get(ctx context.Context, path string, v any) error {
	resp, err := t.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if err := decodeEnvelope(resp, v); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}

func (t *TrackerService) post(ctx context.Context, path string, session models.Session, mediaID string) error {
	if !session.Authenticated() {
		return fmt.Errorf("%w: %s requires a session", shared.ErrNotAuthenticated, path)
	}
	if mediaID == "" {
		return fmt.Errorf("%w: media id", shared.ErrMissingArgument)
	}

	body := progressRequest{UserID: session.UserID, MediaID: mediaID}
	resp, err := t.api.PostJSON(ctx, path, body, WithToken(session.AccessToken))
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if err := decodeEnvelope(resp, nil); err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	return nil
}
