package testutil

import (
	"context"
	"sync"
	"time"

	"3tcapital/phonecheck/internal/core/audit"
	"3tcapital/phonecheck/internal/core/phone"
)

// MockPhoneRepository is a mock implementation of phone.Repository for testing.
type MockPhoneRepository struct {
	FindByKeyFunc func(ctx context.Context, key phone.Key) (*phone.Record, error)
	CreateFunc    func(ctx context.Context, key phone.Key, fields phone.Fields) (*phone.Record, error)
}

// FindByKey calls the mock function if set, otherwise reports not found.
func (m *MockPhoneRepository) FindByKey(ctx context.Context, key phone.Key) (*phone.Record, error) {
	if m.FindByKeyFunc != nil {
		return m.FindByKeyFunc(ctx, key)
	}
	return nil, nil
}

// Create calls the mock function if set, otherwise echoes a record with ID 1.
func (m *MockPhoneRepository) Create(ctx context.Context, key phone.Key, fields phone.Fields) (*phone.Record, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, key, fields)
	}
	return &phone.Record{
		ID:               1,
		Key:              key,
		CountryCode:      fields.CountryCode,
		LocalNumber:      fields.LocalNumber,
		Operator:         fields.Operator,
		PreviousOperator: fields.PreviousOperator,
		Region:           fields.Region,
	}, nil
}

// MockAuditRepository is a mock implementation of audit.Repository for testing.
type MockAuditRepository struct {
	AppendFunc       func(ctx context.Context, entry audit.Entry) error
	ListByRecordFunc func(ctx context.Context, recordID int64, limit int) ([]audit.Entry, error)
	ListByActorFunc  func(ctx context.Context, subject string, limit int) ([]audit.Entry, error)
}

// Append calls the mock function if set, otherwise succeeds.
func (m *MockAuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	return nil
}

// ListByRecord calls the mock function if set, otherwise returns an empty slice.
func (m *MockAuditRepository) ListByRecord(ctx context.Context, recordID int64, limit int) ([]audit.Entry, error) {
	if m.ListByRecordFunc != nil {
		return m.ListByRecordFunc(ctx, recordID, limit)
	}
	return []audit.Entry{}, nil
}

// ListByActor calls the mock function if set, otherwise returns an empty slice.
func (m *MockAuditRepository) ListByActor(ctx context.Context, subject string, limit int) ([]audit.Entry, error) {
	if m.ListByActorFunc != nil {
		return m.ListByActorFunc(ctx, subject, limit)
	}
	return []audit.Entry{}, nil
}

// MockCache is a mock implementation of cache.Store for testing.
type MockCache struct {
	GetFunc func(ctx context.Context, key string) ([]byte, bool, error)
	SetFunc func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Get calls the mock function if set, otherwise reports a miss.
func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, false, nil
}

// Set calls the mock function if set, otherwise succeeds.
func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	return nil
}

// RecordingRecorder is a synchronous audit.Recorder that keeps every entry.
type RecordingRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

// Record stores the entry.
func (r *RecordingRecorder) Record(entry audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

// Entries returns a copy of the recorded entries.
func (r *RecordingRecorder) Entries() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...)
}
