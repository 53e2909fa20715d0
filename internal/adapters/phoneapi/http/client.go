package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"3tcapital/phonecheck/internal/core/phone"
	ctxutil "3tcapital/phonecheck/internal/infrastructure/context"
	"3tcapital/phonecheck/internal/infrastructure/security"
)

const (
	// DefaultTimeout is the default timeout for lookup API requests
	DefaultTimeout = 10 * time.Second

	// OperationFullRecord and OperationField name the two lookup calls in logs and metrics.
	OperationFullRecord = "full_record"
	OperationField      = "field"

	maxBodyBytes = 1 << 20
)

// Doer executes HTTP requests. *http.Client and the traced client both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements the phone.Provider interface against the remote lookup API.
// It neither caches nor retries.
type Client struct {
	baseURL string
	client  Doer
	log     *slog.Logger
	now     func() time.Time
}

// NewClient creates a new lookup API client.
// If httpClient is nil, a plain client with DefaultTimeout is used.
func NewClient(baseURL string, httpClient Doer, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}

	return &Client{
		baseURL: baseURL,
		client:  httpClient,
		log:     log,
		now:     time.Now,
	}
}

// FetchFullRecord retrieves the structured record for a normalized number.
func (c *Client) FetchFullRecord(ctx context.Context, normalized string) (*phone.RawRecord, error) {
	if normalized == "" {
		return nil, fmt.Errorf("%s: empty number: %w", OperationFullRecord, phone.ErrInvalidArgument)
	}

	query := url.Values{}
	query.Set("num", normalized)

	body, err := c.get(ctx, OperationFullRecord, normalized, "", query)
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		c.log.Warn("Lookup API returned empty body", "operation", OperationFullRecord, "number", security.MaskNumber(normalized))
		return nil, fmt.Errorf("%s: %w", OperationFullRecord, phone.ErrNoData)
	}

	var record phone.RawRecord
	if err := json.Unmarshal(body, &record); err != nil {
		c.log.Warn("Failed to parse lookup API response",
			"error", err,
			"operation", OperationFullRecord,
			"number", security.MaskNumber(normalized),
			"body", security.SanitizeBody(body, 512))
		return nil, &phone.LookupError{Op: OperationFullRecord, Number: normalized, Err: fmt.Errorf("decode response: %w", err)}
	}

	if record.Empty() {
		c.log.Warn("Lookup API returned no data", "operation", OperationFullRecord, "number", security.MaskNumber(normalized))
		return nil, fmt.Errorf("%s: %w", OperationFullRecord, phone.ErrNoData)
	}

	record.FetchedAt = c.now().UTC()

	c.log.Debug("Retrieved phone record from lookup API",
		"number", security.MaskNumber(normalized),
		"operator", record.Operator,
		"region", record.Region)

	return &record, nil
}

// FetchField retrieves a single scalar field as trimmed plain text.
func (c *Client) FetchField(ctx context.Context, normalized, field string, translit bool) (string, error) {
	if normalized == "" || field == "" {
		return "", fmt.Errorf("%s: number and field are required: %w", OperationField, phone.ErrInvalidArgument)
	}

	query := url.Values{}
	query.Set("num", normalized)
	query.Set("field", field)
	if translit {
		query.Set("translit", "1")
	}

	body, err := c.get(ctx, OperationField, normalized, field, query)
	if err != nil {
		return "", err
	}

	value := strings.TrimSpace(string(body))
	if value == "" {
		c.log.Warn("Lookup API returned empty field", "field", field, "number", security.MaskNumber(normalized))
		return "", fmt.Errorf("%s %s: %w", OperationField, field, phone.ErrNoData)
	}

	return value, nil
}

// get performs one GET against the base URL and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, operation, normalized, field string, query url.Values) ([]byte, error) {
	apiURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &phone.LookupError{Op: operation, Number: normalized, Field: field, Err: fmt.Errorf("invalid base URL: %w", err)}
	}
	apiURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctxutil.WithOperation(ctx, operation), http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return nil, &phone.LookupError{Op: operation, Number: normalized, Field: field, Err: fmt.Errorf("create request: %w", err)}
	}
	if operation == OperationField {
		req.Header.Set("Accept", "text/plain")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("Error consulting lookup API",
			"error", err,
			"operation", operation,
			"field", field,
			"number", security.MaskNumber(normalized))
		return nil, &phone.LookupError{Op: operation, Number: normalized, Field: field, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("Lookup API returned non-2xx status",
			"status", resp.StatusCode,
			"operation", operation,
			"field", field,
			"number", security.MaskNumber(normalized))
		return nil, &phone.LookupError{Op: operation, Number: normalized, Field: field, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &phone.LookupError{Op: operation, Number: normalized, Field: field, Err: fmt.Errorf("read response body: %w", err)}
	}

	return body, nil
}
