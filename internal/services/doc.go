// Package services wraps the HTTP endpoints this client consumes.
//
// # API Service
//
// [APIService] is the transport: it resolves paths against the configured base URL, applies a
// client-side rate limit and returns the raw [APIResponse]. It backs the raw `mtx api` command.
//
// # Tracker Service
//
// [TrackerService] maps the mtrack endpoints onto typed calls:
//   - GET /api/media : the media catalog
//   - GET /api/media/progress : every progress record
//   - GET /api/in_progress, GET /api/finished : the partitioned lists
//   - POST /api/start, /api/finish, /api/clear : mark a media item for the session user
//
// Writes carry {userId, mediaId} and the "Authorization: token <accessToken>" header.
//
// # Identity Service
//
// [IdentityService] posts an assertion from an [AssertionSource] to the verify URL and stores the
// returned session. Logout optionally notifies the logout URL and always ends the local session.
//
// # Error Handling
//
// The server wraps results in {"status":"success", ...} or {"status":"failure","reason":"..."}.
// Non-2xx responses and failure envelopes become [*APIError], which wraps [shared.ErrAPIRequest].
// Transport failures are returned as-is with context.
package services
