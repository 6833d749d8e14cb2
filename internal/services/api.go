// API service for making HTTP requests to the mtrack API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/mtx/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL string = "http://localhost:7890"

// RequestOption decorates an outgoing request.
type RequestOption func(*http.Request)

// WithToken sets the "Authorization: token <accessToken>" header expected by the mtrack API.
// An empty token leaves the request anonymous.
func WithToken(accessToken string) RequestOption {
	return func(r *http.Request) {
		if accessToken != "" {
			r.Header.Set("Authorization", "token "+accessToken)
		}
	}
}

// WithHeader sets a single request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// APIService provides methods for making raw HTTP requests to the mtrack API.
//
// Paths are resolved against the base URL; absolute URLs (such as an identity provider's
// verify endpoint) are used as given.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIService creates a new API service instance.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// NewAPIServiceFromConfig creates an API service with the timeout and client-side rate limit from cfg.
func NewAPIServiceFromConfig(cfg shared.APIConfig) *APIService {
	client := &http.Client{Timeout: cfg.Timeout()}
	return NewAPIService(cfg.BaseURL, client).WithRateLimit(cfg.RateLimit)
}

// WithRateLimit caps outgoing requests at rps per second. Non-positive values disable the limit.
func (a *APIService) WithRateLimit(rps float64) *APIService {
	if rps <= 0 {
		a.limiter = nil
		return a
	}
	a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return a
}

// BaseURL returns the URL relative paths are resolved against.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status code.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, opts ...RequestOption) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil, opts)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte, opts ...RequestOption) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data, opts)
}

// PostJSON encodes v and posts it to path.
func (a *APIService) PostJSON(ctx context.Context, path string, v any, opts ...RequestOption) (*APIResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return a.Post(ctx, path, data, opts...)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte, opts []RequestOption) (*APIResponse, error) {
	fullURL, err := shared.ResolveURL(a.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
