// Package tasks implements the progress controller that ties the session, the identity service, the
// tracker API and the view model together.
//
// # Core Operations
//
// [ProgressEngine] exposes what a view can ask for:
//
//  1. [ProgressEngine.Restore] : pick up a stored session at start
//  2. [ProgressEngine.Verify] / [ProgressEngine.Logout] : sign in and out
//  3. [ProgressEngine.Refresh] : fetch the catalog and every progress record into the view model
//  4. [ProgressEngine.Start], [ProgressEngine.Finish], [ProgressEngine.Clear] : mark one media item for the
//     session user, then re-fetch progress
//  5. [ProgressEngine.BulkMark] : mark many media items through a small rate-limited worker pool
//
// # Progress Reporting
//
// Operations take an optional channel of [ProgressUpdate]. Sends never block: when the consumer is
// not ready the update is dropped.
//
// # Errors
//
// Every failure is logged through the engine's logger and returned. A failed catalog fetch does not
// stop the progress fetch in [ProgressEngine.Refresh]; both errors are joined.
package tasks
