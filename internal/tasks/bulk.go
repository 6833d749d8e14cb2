package tasks

import (
	"context"
	"sync"

	"github.com/desertthunder/mtx/internal/models"
	"golang.org/x/time/rate"
)

// BulkMarkOpts configures [ProgressEngine.BulkMark].
type BulkMarkOpts struct {
	NumWorkers int     // Concurrent writers (default: 3, max: 10)
	RateLimit  float64 // Writes per second (default: 5)
}

// MarkResult is the outcome of one write in a bulk run.
type MarkResult struct {
	MediaID string
	Error   error
}

// BulkMarkResult summarizes a bulk run.
type BulkMarkResult struct {
	Action    Action
	Total     int
	Succeeded int
	Failed    int
	Results   []MarkResult
}

// BulkMark applies action to every id in mediaIDs through a rate-limited worker pool, then re-fetches
// progress once.
//
// Individual failures are collected in the result; the returned error is only set when the run could
// not happen at all or the final refresh failed.
func (e *ProgressEngine) BulkMark(
	ctx context.Context,
	action Action,
	mediaIDs []string,
	opts BulkMarkOpts,
	progress chan<- ProgressUpdate,
) (*BulkMarkResult, error) {
	session, err := e.authenticated()
	if err != nil {
		return nil, err
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	result := &BulkMarkResult{
		Action:  action,
		Total:   len(mediaIDs),
		Results: make([]MarkResult, 0, len(mediaIDs)),
	}
	if len(mediaIDs) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan string, len(mediaIDs))
	results := make(chan MarkResult, len(mediaIDs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.markWorker(ctx, &wg, limiter, action, session, jobs, results)
	}

	for _, id := range mediaIDs {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Results = append(result.Results, res)
		if res.Error != nil {
			result.Failed++
			e.logger.Warn(string(action)+" failed", "media", res.MediaID, "error", res.Error)
		} else {
			result.Succeeded++
		}
		e.sendProgress(progress, bulkMarkUpdate(len(result.Results), result.Total, action, res.MediaID, res.Error))
	}

	if result.Succeeded == 0 {
		return result, nil
	}
	return result, e.RefreshProgress(ctx, progress)
}

func (e *ProgressEngine) markWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	action Action,
	session models.Session,
	jobs <-chan string,
	results chan<- MarkResult,
) {
	defer wg.Done()

	for id := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- MarkResult{MediaID: id, Error: err}
			continue
		}
		results <- MarkResult{MediaID: id, Error: e.write(ctx, action, session, id)}
	}
}
