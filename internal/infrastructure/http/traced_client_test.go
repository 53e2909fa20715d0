package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ctxutil "3tcapital/phonecheck/internal/infrastructure/context"
	"3tcapital/phonecheck/internal/infrastructure/metrics"
)

// recordingObserver captures ObserveProviderRequest calls.
type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveProviderRequest(operation, outcome string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, operation+":"+outcome)
}

func TestTracedClientDo(t *testing.T) {
	var gotCorrelation string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCorrelation = r.Header.Get(CorrelationHeader)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"operator":"MTS"}`))
	}))
	defer server.Close()

	observer := &recordingObserver{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewTracedClient(&TracedClientConfig{LogResponseBody: true, MaxBodySize: 1024}, log, observer, "phoneapi")

	ctx := ctxutil.WithCorrelationID(context.Background(), "test-correlation-123")
	ctx = ctxutil.WithOperation(ctx, "full_record")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?num=79991234567", nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if gotCorrelation != "test-correlation-123" {
		t.Errorf("expected correlation header test-correlation-123, got %q", gotCorrelation)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "MTS") {
		t.Error("response body not properly restored")
	}

	if len(observer.calls) != 1 || observer.calls[0] != "full_record:"+metrics.OutcomeSuccess {
		t.Errorf("unexpected observations %v", observer.calls)
	}
}

func TestTracedClientDo_GeneratesCorrelationID(t *testing.T) {
	var gotCorrelation string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCorrelation = r.Header.Get(CorrelationHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewTracedClient(nil, log, nil, "phoneapi")

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotCorrelation == "" {
		t.Error("expected a generated X-Correlation-ID header")
	}
}

func TestTracedClientDo_FailureOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	observer := &recordingObserver{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewTracedClient(&TracedClientConfig{Timeout: time.Second}, log, observer, "phoneapi")

	ctx := ctxutil.WithOperation(context.Background(), "field")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	// closed server produces a transport error
	server.Close()
	req, _ = http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if _, err := client.Do(req); err == nil {
		t.Fatal("expected transport error against closed server")
	}

	expected := []string{"field:" + metrics.OutcomeFailure, "field:" + metrics.OutcomeFailure}
	if len(observer.calls) != len(expected) {
		t.Fatalf("expected %d observations, got %v", len(expected), observer.calls)
	}
}

func TestTracedClientDo_MasksNumberInLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"num":"9991234567"}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := NewTracedClient(&TracedClientConfig{LogResponseBody: true}, log, nil, "phoneapi")

	req, _ := http.NewRequest(http.MethodGet, server.URL+"?num=79991234567", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if strings.Contains(buf.String(), "9991234567") {
		t.Errorf("phone number leaked into logs: %s", buf.String())
	}
}

func TestTracedClientExtractOperation(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewTracedClient(&TracedClientConfig{}, log, nil, "phoneapi")

	tests := []struct {
		name     string
		url      string
		method   string
		expected string
	}{
		{
			name:     "extracts operation from path",
			url:      "https://api.example.com/v1/lookup",
			method:   "GET",
			expected: "lookup",
		},
		{
			name:     "handles trailing slash",
			url:      "https://api.example.com/v1/phones/",
			method:   "GET",
			expected: "phones",
		},
		{
			name:     "falls back to method",
			url:      "https://api.example.com/",
			method:   "GET",
			expected: "GET_phoneapi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.url, nil)
			if operation := client.extractOperation(req); operation != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, operation)
			}
		})
	}
}
