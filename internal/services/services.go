// package services implements clients for the mtrack API and the identity verifier
package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/mtx/internal/shared"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// APIError is a failure reported by the server, either as a non-2xx status or a
// {"status":"failure"} envelope. It wraps [shared.ErrAPIRequest].
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%v: %d %s", shared.ErrAPIRequest, e.StatusCode, reason)
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// envelope is the status/reason pair every mtrack response carries.
type envelope struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// decodeEnvelope checks resp for a failure and, when v is non-nil, decodes the body into v.
func decodeEnvelope(resp *APIResponse, v any) error {
	var env envelope
	if resp.IsJSON {
		// Bodies that are not objects (e.g. a bare array) carry no envelope.
		_ = json.Unmarshal(resp.Body, &env)
	}

	if !resp.OK() || env.Status == statusFailure {
		return &APIError{StatusCode: resp.StatusCode, Reason: env.Reason}
	}

	if v == nil {
		return nil
	}
	if !resp.IsJSON {
		return fmt.Errorf("%w: response is not JSON", shared.ErrAPIRequest)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}
