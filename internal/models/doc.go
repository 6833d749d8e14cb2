// Package models defines the data carried between the mtrack API, local storage and the views.
//
// The package contains three types, all decoded from or encoded to the API's JSON:
//
//   - [MediaItem] : a catalog entry, grouped by its root directory
//   - [ProgressRecord] : one user's started or finished mark on one media item
//   - [Session] : the locally cached proof of a logged-in user
//
// Models are plain values. They are rebuilt wholesale on every fetch and never mutated in place
// by the view model, so copies can be handed to the UI without locking.
package models
