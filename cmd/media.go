package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mtx/internal/formatter"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/desertthunder/mtx/internal/tasks"
	"github.com/desertthunder/mtx/internal/viewmodel"
	"github.com/urfave/cli/v3"
)

// MediaList fetches media and progress and renders them grouped by root.
func (r *Runner) MediaList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	root := cmd.String("root")
	format := cmd.String("format")
	outputFile := cmd.String("output")

	r.logger.Info("listing media", "root", root, "format", format)

	if err := r.engine.Refresh(ctx, nil); err != nil {
		return err
	}

	snap := r.engine.View().Snapshot(root)
	if root != "" && len(snap.Groups) == 0 {
		return fmt.Errorf("%w: no root named %q", shared.ErrMediaNotFound, root)
	}

	if outputFile != "" {
		if err := formatter.WriteExport(snap, format, outputFile); err != nil {
			return err
		}
		r.logger.Info("media exported", "file", outputFile, "items", len(snap.Rows()))
		return r.writePlain("✓ Exported %d media items to %s\n", len(snap.Rows()), outputFile)
	}

	data, err := formatter.Export(snap, format)
	if err != nil {
		return err
	}
	return r.writeRaw(data)
}

type rootSummary struct {
	Root      string `json:"root"`
	Total     int    `json:"total"`
	Started   int    `json:"started"`
	Finished  int    `json:"finished"`
	Unwatched int    `json:"unwatched"`
}

// MediaRoots lists the media roots in first-appearance order with the signed-in user's counts.
func (r *Runner) MediaRoots(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	if err := r.engine.Refresh(ctx, nil); err != nil {
		return err
	}

	var summaries []rootSummary
	for _, group := range r.engine.View().Snapshot("").Groups {
		counts := viewmodel.Snapshot{Groups: []viewmodel.RootGroup{group}}.Counts()
		summaries = append(summaries, rootSummary{
			Root:      group.Root,
			Total:     len(group.Rows),
			Started:   counts[viewmodel.Started],
			Finished:  counts[viewmodel.Finished],
			Unwatched: counts[viewmodel.Unwatched],
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(summaries) == 0 {
		return r.writePlain("No media.\n")
	}
	for _, s := range summaries {
		r.writePlain("%-24s %4d items  %d finished, %d started\n", s.Root, s.Total, s.Finished, s.Started)
	}
	return nil
}

// MediaProgress lists every user's progress records.
func (r *Runner) MediaProgress(ctx context.Context, cmd *cli.Command) error {
	return r.listRecords(ctx, cmd, "progress", func(ctx context.Context) ([]models.ProgressRecord, error) {
		return r.tracker.Progress(ctx)
	})
}

// MediaInProgress lists records nobody has finished yet.
func (r *Runner) MediaInProgress(ctx context.Context, cmd *cli.Command) error {
	return r.listRecords(ctx, cmd, "in progress", func(ctx context.Context) ([]models.ProgressRecord, error) {
		return r.tracker.InProgress(ctx)
	})
}

// MediaFinished lists finished records.
func (r *Runner) MediaFinished(ctx context.Context, cmd *cli.Command) error {
	return r.listRecords(ctx, cmd, "finished", func(ctx context.Context) ([]models.ProgressRecord, error) {
		return r.tracker.Finished(ctx)
	})
}

func (r *Runner) listRecords(
	ctx context.Context,
	cmd *cli.Command,
	title string,
	fetch func(context.Context) ([]models.ProgressRecord, error),
) error {
	if err := r.open(); err != nil {
		return err
	}

	records, err := fetch(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	// Names are a nicety; a failed catalog fetch falls back to raw ids.
	if err := r.engine.RefreshMedia(ctx, nil); err != nil {
		r.logger.Warn("media names unavailable", "error", err)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d)", title, len(records)))
	return r.writeRaw(formatter.FormatRecords(records, r.engine.View().Lookup, cmd.String("time")))
}

// MediaMark applies the command's action (start, finish or clear) to one media id.
func (r *Runner) MediaMark(ctx context.Context, cmd *cli.Command) error {
	action, err := tasks.ParseAction(cmd.Name)
	if err != nil {
		return err
	}

	mediaID := cmd.StringArg("id")
	if mediaID == "" {
		return fmt.Errorf("%w: media id", shared.ErrMissingArgument)
	}

	if err := r.open(); err != nil {
		return err
	}

	r.logger.Info(string(action), "media", mediaID)
	if err := r.engine.Mark(ctx, action, mediaID, nil); err != nil {
		return err
	}

	return r.writePlain("✓ %s %s\n", action.Past(), mediaID)
}

// MediaBulk applies one action to every listed id and, with --root, every media item under that root.
func (r *Runner) MediaBulk(ctx context.Context, cmd *cli.Command) error {
	action, err := tasks.ParseAction(cmd.String("action"))
	if err != nil {
		return err
	}

	if err := r.open(); err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if root := cmd.String("root"); root != "" {
		if err := r.engine.RefreshMedia(ctx, nil); err != nil {
			return err
		}
		items := r.engine.View().MediaByRoot(root)
		if len(items) == 0 {
			return fmt.Errorf("%w: no media under root %q", shared.ErrMediaNotFound, root)
		}
		for _, item := range items {
			ids = append(ids, item.MediaID)
		}
	}

	if len(ids) == 0 {
		return fmt.Errorf("%w: pass media ids or --root", shared.ErrMissingArgument)
	}

	r.writePlain("Applying %s to %d media items...\n", action, len(ids))

	progressCh, stop := r.reportProgress()
	result, err := r.engine.BulkMark(ctx, action, ids, tasks.BulkMarkOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}, progressCh)
	stop()

	if result != nil {
		r.writePlain("\n")
		r.writePlainHeader("Bulk Complete")
		r.writePlain("%s: %d/%d\n", action.Past(), result.Succeeded, result.Total)
		if result.Failed > 0 {
			r.writePlain("\nFailed %d:\n", result.Failed)
			for _, res := range result.Results {
				if res.Error != nil {
					r.writePlain("  - %s: %v\n", res.MediaID, res.Error)
				}
			}
		}
	}

	return err
}
