package http

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds every outbound request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// ClientConfig holds configuration for HTTP clients.
type ClientConfig struct {
	Timeout         time.Duration
	Transport       http.RoundTripper
	MaxConnsPerHost int // 0 uses 50
}

// NewClient creates an HTTP client with a pooled transport.
// A nil config uses DefaultTimeout and the default pool size.
func NewClient(config *ClientConfig) *http.Client {
	if config == nil {
		config = &ClientConfig{}
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := config.Transport
	if transport == nil {
		transport = newPooledTransport(config.MaxConnsPerHost, timeout)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func newPooledTransport(maxConnsPerHost int, timeout time.Duration) *http.Transport {
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = 50
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
