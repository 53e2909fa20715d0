package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	ctxutil "3tcapital/phonecheck/internal/infrastructure/context"

	"3tcapital/phonecheck/internal/infrastructure/config"
	"3tcapital/phonecheck/internal/testutil"
)

func TestNewJWTAuthenticator_AuthDisabled(t *testing.T) {
	cfg := config.AuthSettings{
		Enabled: false,
	}
	logger := testutil.NewTestLogger()

	auth, err := NewJWTAuthenticator(cfg, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if auth == nil {
		t.Fatal("expected authenticator to be created, got nil")
	}

	if auth.cfg.Enabled {
		t.Error("expected auth to be disabled")
	}
}

func TestNewJWTAuthenticator_AuthEnabled_InvalidJWKSetURI(t *testing.T) {
	cfg := config.AuthSettings{
		Enabled:   true,
		IssuerURI: "https://issuer.example.com",
		JWKSetURI: "invalid-uri",
	}
	logger := testutil.NewTestLogger()

	_, err := NewJWTAuthenticator(cfg, logger)
	if err == nil {
		t.Fatal("expected error for invalid JWKSetURI")
	}
}

func TestJWTAuthenticator_Middleware_AuthDisabled(t *testing.T) {
	cfg := config.AuthSettings{
		Enabled: false,
	}
	logger := testutil.NewTestLogger()

	auth, _ := NewJWTAuthenticator(cfg, logger)
	middleware := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	middleware.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestJWTAuthenticator_shouldBypass(t *testing.T) {
	cfg := config.AuthSettings{
		BypassPaths: []string{"/health", "/public"},
	}
	logger := testutil.NewTestLogger()

	auth, _ := NewJWTAuthenticator(cfg, logger)

	tests := []struct {
		path     string
		expected bool
	}{
		{"/health", true},
		{"/public", true},
		{"/api/test", false},
		{"/health/status", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := auth.shouldBypass(tt.path)
			if result != tt.expected {
				t.Errorf("expected shouldBypass(%q)=%v, got %v", tt.path, tt.expected, result)
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		expectedTok string
		expectedErr bool
	}{
		{
			name:        "empty header",
			header:      "",
			expectedErr: true,
		},
		{
			name:        "no Bearer prefix",
			header:      "token123",
			expectedErr: true,
		},
		{
			name:        "invalid format - no space",
			header:      "Bearertoken",
			expectedErr: true,
		},
		{
			name:        "invalid format - too many parts",
			header:      "Bearer token extra",
			expectedErr: true,
		},
		{
			name:        "valid Bearer token",
			header:      "Bearer token123",
			expectedTok: "token123",
			expectedErr: false,
		},
		{
			name:        "valid Bearer token - case insensitive",
			header:      "bearer token123",
			expectedTok: "token123",
			expectedErr: false,
		},
		{
			name:        "valid Bearer token - mixed case",
			header:      "BeArEr token123",
			expectedTok: "token123",
			expectedErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := extractBearerToken(tt.header)

			if tt.expectedErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if token != tt.expectedTok {
				t.Errorf("expected token %q, got %q", tt.expectedTok, token)
			}
		})
	}
}

func TestJWTAuthenticator_Close(t *testing.T) {
	cfg := config.AuthSettings{
		Enabled: false,
	}
	logger := testutil.NewTestLogger()

	auth, _ := NewJWTAuthenticator(cfg, logger)

	// Should not panic
	auth.Close()
}

const testIssuer = "https://issuer.example.com"

// newTestAuthenticator returns an enabled authenticator that verifies tokens
// signed by the returned key instead of a remote JWKS.
func newTestAuthenticator(t *testing.T, bypass ...string) (*JWTAuthenticator, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	auth, err := NewJWTAuthenticator(config.AuthSettings{BypassPaths: bypass}, testutil.NewTestLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	auth.cfg.Enabled = true
	auth.cfg.IssuerURI = testIssuer
	auth.keyFunc = func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}
	return auth, key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestJWTAuthenticator_Middleware_OptionalAuth(t *testing.T) {
	auth, key := newTestAuthenticator(t, "/health")
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	valid := jwt.MapClaims{
		"iss":                testIssuer,
		"sub":                "user-1",
		"preferred_username": "alice",
		"exp":                time.Now().Add(time.Hour).Unix(),
	}
	expired := jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	wrongIssuer := jwt.MapClaims{
		"iss": "https://elsewhere.example.com",
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	noSubject := jwt.MapClaims{
		"iss": testIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name             string
		path             string
		header           string
		expectedStatus   int
		expectedSubject  string
		expectedUsername string
	}{
		{name: "no header is anonymous", path: "/api/v1/phones/check", expectedStatus: http.StatusOK},
		{name: "valid token", path: "/api/v1/history", header: "Bearer " + signToken(t, key, valid), expectedStatus: http.StatusOK, expectedSubject: "user-1", expectedUsername: "alice"},
		{name: "malformed header", path: "/api/v1/history", header: "Token abc", expectedStatus: http.StatusUnauthorized},
		{name: "garbage token", path: "/api/v1/history", header: "Bearer invalid.token.here", expectedStatus: http.StatusUnauthorized},
		{name: "expired token", path: "/api/v1/history", header: "Bearer " + signToken(t, key, expired), expectedStatus: http.StatusUnauthorized},
		{name: "wrong issuer", path: "/api/v1/history", header: "Bearer " + signToken(t, key, wrongIssuer), expectedStatus: http.StatusUnauthorized},
		{name: "wrong signing key", path: "/api/v1/history", header: "Bearer " + signToken(t, other, valid), expectedStatus: http.StatusUnauthorized},
		{name: "missing subject", path: "/api/v1/history", header: "Bearer " + signToken(t, key, noSubject), expectedStatus: http.StatusUnauthorized},
		{name: "bypass path ignores bad token", path: "/health", header: "Bearer invalid.token.here", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSubject, gotUsername string
			handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if identity := ctxutil.GetRequester(r.Context()); identity != nil {
					gotSubject, gotUsername = identity.Subject, identity.Username
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if gotSubject != tt.expectedSubject {
				t.Errorf("expected subject %q, got %q", tt.expectedSubject, gotSubject)
			}
			if gotUsername != tt.expectedUsername {
				t.Errorf("expected username %q, got %q", tt.expectedUsername, gotUsername)
			}
		})
	}
}
