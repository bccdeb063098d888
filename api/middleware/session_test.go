package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukastore/backend/internal/identity"
	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/logger"
)

type touchRecorder struct {
	touched []string
	err     error
}

func (t *touchRecorder) Touch(ctx context.Context, token string) error {
	t.touched = append(t.touched, token)
	return t.err
}

func sessionCfg() config.SessionConfig {
	return config.SessionConfig{CookieName: "duka_session", TTL: time.Hour, Secure: false}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestIdentifyMintsGuestToken(t *testing.T) {
	t.Parallel()

	sessions := &touchRecorder{}
	var captured identity.Owner
	handler := Identify(sessionCfg(), sessions, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = OwnerFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if captured.IsZero() || captured.IsUser() {
		t.Fatalf("expected session owner, got %s", captured)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "duka_session" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	if cookies[0].Value != captured.SessionToken() {
		t.Fatal("cookie does not match resolved owner token")
	}
	if len(sessions.touched) != 1 || sessions.touched[0] != captured.SessionToken() {
		t.Fatalf("session store not touched with minted token: %v", sessions.touched)
	}
}

func TestIdentifyReusesExistingCookie(t *testing.T) {
	t.Parallel()

	sessions := &touchRecorder{}
	var captured identity.Owner
	handler := Identify(sessionCfg(), sessions, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = OwnerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "duka_session", Value: "tok-existing"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured.SessionToken() != "tok-existing" {
		t.Fatalf("owner token %q, want existing cookie", captured.SessionToken())
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("no new cookie expected when one already exists")
	}
}

func TestIdentifyPrefersAuthenticatedUser(t *testing.T) {
	t.Parallel()

	sessions := &touchRecorder{}
	var captured identity.Owner
	handler := Identify(sessionCfg(), sessions, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = OwnerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "duka_session", Value: "tok-guest"})
	req = req.WithContext(WithUserID(req.Context(), 42))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !captured.IsUser() || captured.UserID() != 42 {
		t.Fatalf("expected user owner, got %s", captured)
	}
	if len(sessions.touched) != 0 {
		t.Fatal("user requests should not touch the guest session store")
	}
}

func TestIdentifySurvivesSessionStoreFailure(t *testing.T) {
	t.Parallel()

	sessions := &touchRecorder{err: context.DeadlineExceeded}
	var status int
	handler := Identify(sessionCfg(), sessions, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status = http.StatusOK
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart", nil))
	if status != http.StatusOK {
		t.Fatal("request should proceed despite session store failure")
	}
}
