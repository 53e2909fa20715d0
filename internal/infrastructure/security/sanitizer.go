package security

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Sensitive header names that should be redacted.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// Query and JSON field names whose values are credentials.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"authorization",
	"credential",
}

// Query and JSON field names that carry a phone number.
var numberFields = map[string]bool{
	"num":   true,
	"phone": true,
}

const (
	redactedValue = "[REDACTED]"
	visibleDigits = 4
)

// MaskNumber hides all but the last four characters of a phone number.
func MaskNumber(number string) string {
	if len(number) <= visibleDigits {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-visibleDigits) + number[len(number)-visibleDigits:]
}

// SanitizeHeaders removes sensitive headers from an HTTP header map.
// Returns a new map with sensitive values redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeURL masks phone numbers and redacts credentials in the query string.
// Unparseable input is returned fully redacted.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return redactedValue
	}
	if u.RawQuery == "" {
		return u.String()
	}

	query := u.Query()
	for key, values := range query {
		for i, v := range values {
			values[i] = sanitizeField(key, v)
		}
		query[key] = values
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// SanitizeBody renders a response or request body safe for logging.
// JSON objects get sensitive fields redacted; other text is truncated to maxSize.
func SanitizeBody(body []byte, maxSize int) string {
	if len(body) == 0 {
		return ""
	}
	if !utf8.Valid(body) {
		return "[binary]"
	}

	var data any
	if err := json.Unmarshal(body, &data); err == nil {
		if out, err := json.Marshal(sanitizeValue(data)); err == nil {
			body = out
		}
	}

	if maxSize > 0 && len(body) > maxSize {
		return string(body[:maxSize]) + "...(truncated)"
	}
	return string(body)
}

func sanitizeField(key, value string) string {
	lowerKey := strings.ToLower(key)
	if numberFields[lowerKey] {
		return MaskNumber(value)
	}
	for _, field := range sensitiveFields {
		if strings.Contains(lowerKey, field) {
			return redactedValue
		}
	}
	return value
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, value := range val {
			if s, ok := value.(string); ok {
				out[key] = sanitizeField(key, s)
				continue
			}
			out[key] = sanitizeValue(value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, value := range val {
			out[i] = sanitizeValue(value)
		}
		return out
	default:
		return val
	}
}
