package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	ctxutil "3tcapital/phonecheck/internal/infrastructure/context"
	"3tcapital/phonecheck/internal/infrastructure/metrics"
	"3tcapital/phonecheck/internal/infrastructure/security"
)

// CorrelationHeader carries the correlation ID to downstream services.
const CorrelationHeader = "X-Correlation-ID"

// RequestObserver records the outcome and latency of outbound requests.
type RequestObserver interface {
	ObserveProviderRequest(operation, outcome string, elapsed time.Duration)
}

// TracedClient wraps an HTTP client with request/response logging and metrics.
// Phone numbers and credentials in URLs and bodies are masked before logging.
type TracedClient struct {
	client      *http.Client
	log         *slog.Logger
	observer    RequestObserver
	provider    string
	logRespBody bool
	maxBodySize int
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int
	Transport       http.RoundTripper
}

// NewTracedClient creates a traced client over a pooled transport.
// observer may be nil.
func NewTracedClient(cfg *TracedClientConfig, log *slog.Logger, observer RequestObserver, provider string) *TracedClient {
	if cfg == nil {
		cfg = &TracedClientConfig{}
	}
	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 4096
	}

	return &TracedClient{
		client: NewClient(&ClientConfig{
			Timeout:         cfg.Timeout,
			Transport:       cfg.Transport,
			MaxConnsPerHost: cfg.MaxConnsPerHost,
		}),
		log:         log,
		observer:    observer,
		provider:    provider,
		logRespBody: cfg.LogResponseBody,
		maxBodySize: maxBodySize,
	}
}

// Do executes an HTTP request, tagging it with the correlation ID and
// logging and measuring the exchange. The response body stays readable.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	correlationID := ctxutil.GetCorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	req.Header.Set(CorrelationHeader, correlationID)

	operation := ctxutil.GetOperation(ctx)
	if operation == "" {
		operation = c.extractOperation(req)
	}
	sanitizedURL := security.SanitizeURL(req.URL.String())

	c.log.Debug("provider_request",
		"correlation_id", correlationID,
		"provider", c.provider,
		"operation", operation,
		"method", req.Method,
		"url", sanitizedURL,
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if err == nil && c.logRespBody && resp.Body != nil {
		responseBody, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
	}

	c.logResponse(correlationID, operation, req.Method, sanitizedURL, resp, err, duration, responseBody)

	if c.observer != nil {
		outcome := metrics.OutcomeSuccess
		if err != nil || resp.StatusCode >= http.StatusBadRequest {
			outcome = metrics.OutcomeFailure
		}
		c.observer.ObserveProviderRequest(operation, outcome, duration)
	}

	return resp, err
}

func (c *TracedClient) logResponse(correlationID, operation, method, sanitizedURL string, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"provider", c.provider,
		"operation", operation,
		"method", method,
		"url", sanitizedURL,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.Error("provider_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode)
	if c.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", security.SanitizeBody(body, c.maxBodySize))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.Error("provider_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("provider_response", attrs...)
	default:
		c.log.Info("provider_response", attrs...)
	}
}

// extractOperation falls back to the last path segment, then to method_provider.
func (c *TracedClient) extractOperation(req *http.Request) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return req.Method + "_" + c.provider
}

// Client returns the underlying HTTP client.
func (c *TracedClient) Client() *http.Client {
	return c.client
}
