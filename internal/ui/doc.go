// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a single filterable list of media, grouped by root in first-appearance order, with a
// status badge per row for the signed-in user. The selected row can be started (s), finished (f) or
// cleared (c); r re-fetches media and progress and tab cycles the root filter.
//
// Engine calls run in the background and report through a [tasks.ProgressUpdate] channel which the
// (view) [Model] drains one message at a time, in the same way as the rest of the bubbletea loop.
package ui
