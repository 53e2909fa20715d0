package testutil

import (
	"context"
	"sync/atomic"

	"3tcapital/phonecheck/internal/core/phone"
)

// MockPhoneProvider is a mock implementation of phone.Provider for testing.
// It counts calls so tests can assert the remote was or was not contacted.
type MockPhoneProvider struct {
	FetchFullRecordFunc func(ctx context.Context, normalized string) (*phone.RawRecord, error)
	FetchFieldFunc      func(ctx context.Context, normalized, field string, translit bool) (string, error)

	fullCalls  atomic.Int32
	fieldCalls atomic.Int32
}

// FetchFullRecord calls the mock function if set, otherwise returns phone.ErrNoData.
func (m *MockPhoneProvider) FetchFullRecord(ctx context.Context, normalized string) (*phone.RawRecord, error) {
	m.fullCalls.Add(1)
	if m.FetchFullRecordFunc != nil {
		return m.FetchFullRecordFunc(ctx, normalized)
	}
	return nil, phone.ErrNoData
}

// FetchField calls the mock function if set, otherwise returns phone.ErrNoData.
func (m *MockPhoneProvider) FetchField(ctx context.Context, normalized, field string, translit bool) (string, error) {
	m.fieldCalls.Add(1)
	if m.FetchFieldFunc != nil {
		return m.FetchFieldFunc(ctx, normalized, field, translit)
	}
	return "", phone.ErrNoData
}

// FullRecordCalls returns how many times FetchFullRecord ran.
func (m *MockPhoneProvider) FullRecordCalls() int {
	return int(m.fullCalls.Load())
}

// FieldCalls returns how many times FetchField ran.
func (m *MockPhoneProvider) FieldCalls() int {
	return int(m.fieldCalls.Load())
}
