package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"3tcapital/phonecheck/internal/core/audit"
	"3tcapital/phonecheck/internal/infrastructure/config"
	ctxutil "3tcapital/phonecheck/internal/infrastructure/context"
	httperrors "3tcapital/phonecheck/internal/infrastructure/http"
)

// ContextKeyToken exposes the verified JWT token via request context.
type ContextKeyToken struct{}

// JWTAuthenticator validates bearer tokens against a remote JWKS.
// Requests without an Authorization header pass through as anonymous;
// a present but invalid token is rejected with 401.
type JWTAuthenticator struct {
	cfg        config.AuthSettings
	log        *slog.Logger
	keyFunc    jwt.Keyfunc
	cancel     context.CancelFunc
	bypassPath map[string]struct{}
}

func NewJWTAuthenticator(cfg config.AuthSettings, log *slog.Logger) (*JWTAuthenticator, error) {
	auth := &JWTAuthenticator{
		cfg:        cfg,
		log:        log,
		bypassPath: make(map[string]struct{}),
	}

	for _, path := range cfg.BypassPaths {
		if path != "" {
			auth.bypassPath[path] = struct{}{}
		}
	}

	if !cfg.Enabled {
		return auth, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	override := keyfunc.Override{
		RefreshInterval: 6 * time.Hour,
		RefreshErrorHandlerFunc: func(url string) func(context.Context, error) {
			return func(c context.Context, err error) {
				log.Error("Failed to refresh JWKS", "url", url, "error", err)
			}
		},
		HTTPTimeout: 10 * time.Second,
	}

	jwks, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{cfg.JWKSetURI}, override)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("unable to load JWKS: %w", err)
	}
	auth.keyFunc = jwks.Keyfunc
	auth.cancel = cancel

	return auth, nil
}

// Middleware attaches the verified requester identity to the request context.
func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	if !a.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || a.shouldBypass(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := extractBearerToken(header)
		if err != nil {
			httperrors.WriteError(w, http.StatusUnauthorized, "Authentication error", []string{"Invalid access credentials"}, a.log)
			return
		}

		token, err := a.parse(tokenString)
		if err != nil || !token.Valid {
			a.log.Warn("Token validation failed", "error", err, "correlation_id", ctxutil.GetCorrelationID(r.Context()))
			httperrors.WriteError(w, http.StatusUnauthorized, "Authentication error", []string{"Invalid or expired token"}, a.log)
			return
		}

		identity, ok := identityFromClaims(token.Claims)
		if !ok {
			httperrors.WriteError(w, http.StatusUnauthorized, "Authentication error", []string{"Token has no subject"}, a.log)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyToken{}, token)
		ctx = ctxutil.WithRequester(ctx, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Close stops background JWKS refreshers.
func (a *JWTAuthenticator) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *JWTAuthenticator) parse(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, a.keyFunc,
		jwt.WithIssuer(a.cfg.IssuerURI),
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithValidMethods([]string{
			jwt.SigningMethodRS256.Alg(),
			jwt.SigningMethodRS384.Alg(),
			jwt.SigningMethodRS512.Alg(),
			jwt.SigningMethodPS256.Alg(),
			jwt.SigningMethodES256.Alg(),
		}),
	)
}

func (a *JWTAuthenticator) shouldBypass(path string) bool {
	_, ok := a.bypassPath[path]
	return ok
}

// identityFromClaims reads sub and preferred_username from a verified token.
func identityFromClaims(claims jwt.Claims) (audit.Identity, bool) {
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return audit.Identity{}, false
	}

	identity := audit.Identity{Subject: subject}
	if mapClaims, ok := claims.(jwt.MapClaims); ok {
		if username, ok := mapClaims["preferred_username"].(string); ok {
			identity.Username = username
		}
	}
	return identity, true
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid Authorization header format")
	}
	return parts[1], nil
}
