package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mtx/internal/shared"
	tu "github.com/desertthunder/mtx/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com", customClient)

			if srv.BaseURL() != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.BaseURL())
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL And Nil Client", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.BaseURL() != "http://localhost:7890" {
				t.Errorf("expected default baseURL 'http://localhost:7890', got %s", srv.BaseURL())
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("From Config", func(t *testing.T) {
			srv := NewAPIServiceFromConfig(shared.APIConfig{
				BaseURL:        "http://tracker.local",
				RateLimit:      2,
				TimeoutSeconds: 7,
			})

			if srv.httpClient.Timeout != 7*time.Second {
				t.Errorf("expected 7s timeout, got %v", srv.httpClient.Timeout)
			}
			if srv.limiter == nil {
				t.Error("expected rate limiter to be configured")
			}
		})

		t.Run("Without Rate Limit", func(t *testing.T) {
			srv := NewAPIService("", nil).WithRateLimit(0)
			if srv.limiter != nil {
				t.Error("expected rate limiter to be disabled")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/api/media" {
					t.Errorf("expected path '/api/media', got %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "" {
					t.Errorf("expected anonymous request, got %q", r.Header.Get("Authorization"))
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{"status": "success", "results": []any{}})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/api/media")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected response to be JSON")
			}
		})

		t.Run("Successful Request With Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("expected body 'plain text response', got %s", string(resp.Body))
			}
		})

		t.Run("Absolute URL Bypasses Base", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			srv := NewAPIService("http://unreachable.invalid", nil)
			if _, err := srv.Get(context.Background(), server.URL+"/verify"); err != nil {
				t.Fatalf("expected absolute URL to be used as given, got %v", err)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)
			_, err := srv.Get(context.Background(), "/test\x00invalid")

			if err == nil {
				t.Fatal("expected error for invalid URL")
			}
			if !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
			}

			srv := NewAPIService("http://example.com", client)
			_, err := srv.Get(context.Background(), "/test")

			if err == nil {
				t.Fatal("expected error for failed request")
			}
			if !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			srv := NewAPIService("http://example.com", client)
			_, err := srv.Get(context.Background(), "/test")

			if err == nil {
				t.Fatal("expected error for failed body read")
			}
			if !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			srv := NewAPIService(server.URL, nil).WithRateLimit(1)
			if _, err := srv.Get(ctx, "/test"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON And Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("expected Content-Type 'application/json', got %s", r.Header.Get("Content-Type"))
				}
				if r.Header.Get("Authorization") != "token abc" {
					t.Errorf("expected token header, got %q", r.Header.Get("Authorization"))
				}

				var data map[string]string
				if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
					t.Errorf("failed to decode request body: %v", err)
				}
				if data["mediaId"] != "m1" {
					t.Errorf("expected mediaId m1, got %v", data)
				}

				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"status":"success"}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.PostJSON(context.Background(), "/api/start", map[string]string{"mediaId": "m1"}, WithToken("abc"))

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("expected status 201, got %d", resp.StatusCode)
			}
		})

		t.Run("Empty Token Is Anonymous", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := r.Header["Authorization"]; ok {
					t.Error("expected no Authorization header")
				}
				if r.Header.Get("X-Trace") != "1" {
					t.Errorf("expected custom header, got %q", r.Header.Get("X-Trace"))
				}
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			if _, err := srv.Post(context.Background(), "/", []byte("{}"), WithToken(""), WithHeader("X-Trace", "1")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Empty Request Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if len(body) != 0 {
					t.Errorf("expected empty body, got %d bytes", len(body))
				}
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			if _, err := srv.Post(context.Background(), "/api/persona/logout", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Unencodable Value", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)
			_, err := srv.PostJSON(context.Background(), "/", map[string]any{"c": make(chan int)})
			if err == nil || !strings.Contains(err.Error(), "failed to encode request") {
				t.Errorf("expected encode error, got %v", err)
			}
		})
	})
}

func TestDecodeEnvelope(t *testing.T) {
	tc := []struct {
		name       string
		status     int
		body       string
		wantReason string
		wantErr    bool
	}{
		{name: "success", status: 200, body: `{"status":"success","results":[]}`},
		{name: "bare array", status: 200, body: `[1,2]`},
		{name: "failure envelope", status: 200, body: `{"status":"failure","reason":"already finished"}`, wantErr: true, wantReason: "already finished"},
		{name: "unauthorized", status: 401, body: `{"status":"failure","reason":"unauthorized"}`, wantErr: true, wantReason: "unauthorized"},
		{name: "non-JSON error", status: 502, body: `bad gateway`, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			resp := &APIResponse{StatusCode: tt.status, Body: []byte(tt.body)}
			var js any
			resp.IsJSON = json.Unmarshal(resp.Body, &js) == nil

			err := decodeEnvelope(resp, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeEnvelope() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.Reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, apiErr.Reason)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected error to wrap ErrAPIRequest")
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
		})
	}

	t.Run("Decode Into Non-JSON Body", func(t *testing.T) {
		var v map[string]any
		err := decodeEnvelope(&APIResponse{StatusCode: 200, Body: []byte("ok")}, &v)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
