package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/phonecheck/internal/core/phone"
	"3tcapital/phonecheck/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/api", server.Client(), testutil.NewNullLogger())
	client.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	return client, &calls
}

func TestClient_FetchFullRecord(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api", r.URL.Path)
		assert.Equal(t, "79991234567", r.URL.Query().Get("num"))
		assert.Empty(t, r.URL.Query().Get("field"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"999","num":"1234567","operator":"MTS","old_operator":"Beeline","region":"Moscow"}`))
	})

	record, err := client.FetchFullRecord(context.Background(), "79991234567")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "999", record.Code)
	assert.Equal(t, "1234567", record.Num)
	assert.Equal(t, "MTS", record.Operator)
	require.NotNil(t, record.OldOperator)
	assert.Equal(t, "Beeline", *record.OldOperator)
	assert.Equal(t, "Moscow", record.Region)
	assert.Equal(t, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), record.FetchedAt)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FetchFullRecord_Failures(t *testing.T) {
	tests := []struct {
		name            string
		handler         http.HandlerFunc
		wantUnreachable bool
		wantNoData      bool
		wantStatus      int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantUnreachable: true,
			wantStatus:      http.StatusInternalServerError,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantUnreachable: true,
			wantStatus:      http.StatusNotFound,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"operator":`))
			},
			wantUnreachable: true,
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantNoData: true,
		},
		{
			name: "empty object",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
			wantNoData: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, tt.handler)

			record, err := client.FetchFullRecord(context.Background(), "79991234567")
			require.Error(t, err)
			assert.Nil(t, record)
			assert.Equal(t, tt.wantUnreachable, errors.Is(err, phone.ErrUnreachable))
			assert.Equal(t, tt.wantNoData, errors.Is(err, phone.ErrNoData))
			assert.Equal(t, int32(1), calls.Load(), "failures are never retried")

			if tt.wantStatus != 0 {
				var lookupErr *phone.LookupError
				require.True(t, errors.As(err, &lookupErr))
				assert.Equal(t, tt.wantStatus, lookupErr.Status)
				assert.Equal(t, OperationFullRecord, lookupErr.Op)
			}
		})
	}
}

func TestClient_FetchFullRecord_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, &http.Client{Timeout: 50 * time.Millisecond}, testutil.NewNullLogger())

	record, err := client.FetchFullRecord(context.Background(), "79991234567")
	require.Error(t, err)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, phone.ErrUnreachable)
}

func TestClient_FetchFullRecord_EmptyNumber(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.FetchFullRecord(context.Background(), "")
	assert.ErrorIs(t, err, phone.ErrInvalidArgument)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_FetchField(t *testing.T) {
	tests := []struct {
		name         string
		field        string
		translit     bool
		body         string
		wantTranslit string
		want         string
	}{
		{name: "operator", field: "operator", body: "  МТС\n", want: "МТС"},
		{name: "region translit", field: "region", translit: true, body: "Moskva\n", wantTranslit: "1", want: "Moskva"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "79991234567", r.URL.Query().Get("num"))
				assert.Equal(t, tt.field, r.URL.Query().Get("field"))
				assert.Equal(t, tt.wantTranslit, r.URL.Query().Get("translit"))
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Write([]byte(tt.body))
			})

			value, err := client.FetchField(context.Background(), "79991234567", tt.field, tt.translit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestClient_FetchField_Errors(t *testing.T) {
	t.Run("missing field makes no request", func(t *testing.T) {
		client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := client.FetchField(context.Background(), "79991234567", "", false)
		assert.ErrorIs(t, err, phone.ErrInvalidArgument)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("blank body is no data", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("   \n"))
		})
		_, err := client.FetchField(context.Background(), "79991234567", "operator", false)
		assert.ErrorIs(t, err, phone.ErrNoData)
	})

	t.Run("bad gateway is unreachable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := client.FetchField(context.Background(), "79991234567", "operator", false)
		assert.ErrorIs(t, err, phone.ErrUnreachable)

		var lookupErr *phone.LookupError
		require.ErrorAs(t, err, &lookupErr)
		assert.Equal(t, "operator", lookupErr.Field)
	})
}
