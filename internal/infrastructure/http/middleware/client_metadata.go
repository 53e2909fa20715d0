package middleware

import (
	"net"
	"net/http"
	"strings"

	ctxutil "3tcapital/phonecheck/internal/infrastructure/context"
)

// ClientMetadata stores the caller's IP address and user agent in the request context.
// The address is the first X-Forwarded-For entry, then X-Real-IP, then the host of RemoteAddr.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := ctxutil.ClientMetadata{
			IPAddress: clientIP(r),
			UserAgent: r.Header.Get("User-Agent"),
		}
		next.ServeHTTP(w, r.WithContext(ctxutil.WithClientMetadata(r.Context(), meta)))
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
