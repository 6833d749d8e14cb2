package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/session"
	"github.com/desertthunder/mtx/internal/shared"
	tu "github.com/desertthunder/mtx/internal/testing"
)

func newIdentity(t *testing.T, baseURL string, cfg shared.IdentityConfig) (*IdentityService, *session.Store, *tu.MemoryStorage) {
	t.Helper()
	storage := tu.NewMemoryStorage()
	logger := shared.NewLogger(io.Discard)
	store := session.NewStore(storage, logger)
	return NewIdentityService(NewAPIService(baseURL, nil), cfg, store, logger), store, storage
}

func TestAssertionSources(t *testing.T) {
	t.Run("StaticAssertion", func(t *testing.T) {
		got, err := StaticAssertion("  abc \n").Assertion(context.Background())
		if err != nil || got != "abc" {
			t.Errorf("expected trimmed assertion, got %q, %v", got, err)
		}

		if _, err := StaticAssertion("").Assertion(context.Background()); !errors.Is(err, shared.ErrNoAssertion) {
			t.Errorf("expected ErrNoAssertion, got %v", err)
		}
	})

	t.Run("AssertionFunc", func(t *testing.T) {
		src := AssertionFunc(func(context.Context) (string, error) { return "xyz", nil })
		if got, _ := src.Assertion(context.Background()); got != "xyz" {
			t.Errorf("expected xyz, got %q", got)
		}
	})
}

func TestIdentityService(t *testing.T) {
	t.Run("Verify Stores Session", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/persona/verify" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body verifyRequest
			json.NewDecoder(r.Body).Decode(&body)
			if body.Assertion != "signed" {
				t.Errorf("expected assertion 'signed', got %q", body.Assertion)
			}
			w.Write([]byte(`{"status":"success","accessToken":"tok","email":"a@example.com","userId":"u1"}`))
		}))
		defer server.Close()

		identity, store, _ := newIdentity(t, server.URL, shared.IdentityConfig{})
		got, err := identity.Verify(context.Background(), StaticAssertion("signed"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.UserID != "u1" || got.AccessToken != "tok" {
			t.Errorf("unexpected session %+v", got)
		}
		if store.Session().AccessToken != "tok" {
			t.Error("expected session to be stored")
		}
	})

	t.Run("Verify Absolute URL", func(t *testing.T) {
		verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"success","accessToken":"tok","userId":"u1"}`))
		}))
		defer verifier.Close()

		identity, _, _ := newIdentity(t, "http://unreachable.invalid", shared.IdentityConfig{VerifyURL: verifier.URL + "/verify"})
		if _, err := identity.Verify(context.Background(), StaticAssertion("signed")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Verify Rejected Leaves Storage Untouched", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":"failure","reason":"invalid assertion"}`))
		}))
		defer server.Close()

		identity, _, storage := newIdentity(t, server.URL, shared.IdentityConfig{})
		_, err := identity.Verify(context.Background(), StaticAssertion("forged"))
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if err.Error() != "authentication failed: invalid assertion" {
			t.Errorf("expected server reason in error, got %q", err.Error())
		}
		if storage.Writes != 0 {
			t.Errorf("expected no storage writes, got %d", storage.Writes)
		}
	})

	t.Run("Verify Without Token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"success","userId":"u1"}`))
		}))
		defer server.Close()

		identity, _, storage := newIdentity(t, server.URL, shared.IdentityConfig{})
		if _, err := identity.Verify(context.Background(), StaticAssertion("signed")); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if storage.Writes != 0 {
			t.Error("expected storage untouched")
		}
	})

	t.Run("Verify Without Assertion", func(t *testing.T) {
		identity, _, _ := newIdentity(t, "http://unreachable.invalid", shared.IdentityConfig{})

		if _, err := identity.Verify(context.Background(), nil); !errors.Is(err, shared.ErrNoAssertion) {
			t.Errorf("expected ErrNoAssertion for nil source, got %v", err)
		}

		failing := AssertionFunc(func(context.Context) (string, error) { return "", shared.ErrTimeout })
		if _, err := identity.Verify(context.Background(), failing); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected source error to propagate, got %v", err)
		}
	})

	t.Run("Logout Without URL", func(t *testing.T) {
		identity, store, storage := newIdentity(t, "http://unreachable.invalid", shared.IdentityConfig{})
		store.Save(&models.Session{UserID: "u1", AccessToken: "tok"})

		if err := identity.Logout(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(storage.Keys()) != 0 {
			t.Error("expected session to be removed")
		}
	})

	t.Run("Logout Notifies Server", func(t *testing.T) {
		var called bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			if r.URL.Path != "/api/persona/logout" || r.Method != http.MethodPost {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("Authorization") != "token tok" {
				t.Errorf("expected token header, got %q", r.Header.Get("Authorization"))
			}
			w.Write([]byte(`{"status":"success"}`))
		}))
		defer server.Close()

		identity, store, _ := newIdentity(t, server.URL, shared.IdentityConfig{LogoutURL: "/api/persona/logout"})
		store.Save(&models.Session{UserID: "u1", AccessToken: "tok"})

		if err := identity.Logout(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !called {
			t.Error("expected logout URL to be called")
		}
		if store.Session().Authenticated() {
			t.Error("expected session to be ended")
		}
	})

	t.Run("Logout Remote Failure Still Ends Session", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		identity, store, storage := newIdentity(t, server.URL, shared.IdentityConfig{LogoutURL: "/logout"})
		store.Save(&models.Session{UserID: "u1", AccessToken: "tok"})

		if err := identity.Logout(context.Background()); err != nil {
			t.Fatalf("expected logout to succeed, got %v", err)
		}
		if len(storage.Keys()) != 0 {
			t.Error("expected session to be removed despite remote failure")
		}
	})
}
