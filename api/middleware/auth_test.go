package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukastore/backend/pkg/config"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject string, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthSeedsUserID(t *testing.T) {
	t.Parallel()

	var captured *uint64
	handler := Auth(config.JWTConfig{Secret: testSecret}, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "42", testSecret))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured == nil || *captured != 42 {
		t.Fatalf("expected user id 42, got %v", captured)
	}
}

func TestAuthAllowsGuests(t *testing.T) {
	t.Parallel()

	called := false
	handler := Auth(config.JWTConfig{Secret: testSecret}, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if UserIDFromContext(r.Context()) != nil {
			t.Error("guest request should carry no user id")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart", nil))
	if !called {
		t.Fatal("guest request should pass through")
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	t.Parallel()

	handler := Auth(config.JWTConfig{Secret: testSecret}, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "42", "wrong-secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestAuthRejectsNonNumericSubject(t *testing.T) {
	t.Parallel()

	handler := Auth(config.JWTConfig{Secret: testSecret}, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "not-a-number", testSecret))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestRequireUserBlocksGuests(t *testing.T) {
	t.Parallel()

	handler := RequireUser(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for guests")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/merge", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}
