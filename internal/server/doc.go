// Package server provides the local HTTP plumbing behind browser sign-in.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Sign-in Callback
//
// [AssertionHandler] receives the OpenID Connect authorization code callback. It checks the state
// parameter, exchanges the code, verifies the returned ID token (signature, audience and nonce via
// go-oidc) and sends the raw ID token through a channel. That token is the identity assertion the
// client posts to the mtrack verify endpoint.
//
// Only the first callback is processed. `mtx auth signin` starts a temporary server on the
// configured host and port, waits for one result and shuts the server down.
package server
