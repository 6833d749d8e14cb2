// Package repositories implements SQLite persistence for client-side state.
//
// [LocalStorage] is a string key/value table (local_storage) that plays the role of browser
// local storage: the session store keeps its JSON document there under a single key.
package repositories
