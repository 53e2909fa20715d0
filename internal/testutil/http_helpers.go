package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
)

// TestingT is the subset of testing.TB the helpers need.
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
}

// ReadJSONResponse checks the status code and unmarshals the JSON body into v.
func ReadJSONResponse(t TestingT, w *httptest.ResponseRecorder, status int, v interface{}) {
	if w.Code != status {
		t.Errorf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
		t.FailNow()
	}

	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Errorf("failed to decode JSON response: %v", err)
		t.FailNow()
	}
}

// ReadErrorResponse reads an error response from a ResponseRecorder.
func ReadErrorResponse(t TestingT, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Errorf("failed to decode error response: %v", err)
		t.FailNow()
	}
	return response
}

// CreateRequest creates an HTTP request with an optional JSON body and headers.
func CreateRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var bodyReader *bytes.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonData)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// CreateFormRequest creates a form-encoded HTTP request.
func CreateFormRequest(method, path string, form url.Values, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}
