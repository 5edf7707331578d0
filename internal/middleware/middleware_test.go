package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/document-requests-api/internal/audit"
	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/middleware"
	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims middleware.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func claimsFor(id int64, role domain.Role) middleware.Claims {
	return middleware.Claims{
		Role:       string(role),
		Department: "IT",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestAuthenticate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var got domain.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = middleware.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := middleware.Authenticate(secret, logger, "/health")(next)

	expired := claimsFor(7, domain.RoleHR)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"public path", "/health", "", http.StatusNoContent},
		{"missing token", "/notifications", "", http.StatusUnauthorized},
		{"valid token", "/notifications", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, claimsFor(7, domain.RoleHR)), http.StatusNoContent},
		{"wrong secret", "/notifications", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), claimsFor(7, domain.RoleHR)), http.StatusUnauthorized},
		{"wrong algorithm", "/notifications", "Bearer " + sign(t, jwt.SigningMethodHS512, secret, claimsFor(7, domain.RoleHR)), http.StatusUnauthorized},
		{"expired", "/notifications", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, expired), http.StatusUnauthorized},
		{"unknown role", "/notifications", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, claimsFor(7, "SUPERUSER")), http.StatusUnauthorized},
		{"non-numeric subject", "/notifications", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, middleware.Claims{Role: "HR", RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}

	if got.ID != 7 || got.Role != domain.RoleHR || got.Department != "IT" {
		t.Errorf("unexpected principal %+v", got)
	}
}

func TestRequestIDAndClientIP(t *testing.T) {
	var requestID, ip string
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = audit.RequestIDFromContext(r.Context())
		ip = audit.ClientIPFromContext(r.Context())
	})
	handler := middleware.RequestID(middleware.ClientIP(true)(capture))

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if requestID == "" || w.Header().Get(middleware.RequestIDHeader) != requestID {
		t.Errorf("expected generated request id in context and header, got %q / %q", requestID, w.Header().Get(middleware.RequestIDHeader))
	}
	if ip != "203.0.113.9" {
		t.Errorf("expected forwarded client ip, got %q", ip)
	}

	req = httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	middleware.RequestID(middleware.ClientIP(false)(capture)).ServeHTTP(httptest.NewRecorder(), req)

	if requestID != "abc-123" {
		t.Errorf("expected incoming request id, got %q", requestID)
	}
	if ip != "10.0.0.1" {
		t.Errorf("expected remote address when proxy is not trusted, got %q", ip)
	}
}
