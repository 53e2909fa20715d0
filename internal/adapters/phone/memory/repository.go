package memory

import (
	"context"
	"sync"
	"time"

	"3tcapital/phonecheck/internal/core/phone"
)

// Repository is an in-memory phone.Repository for local runs and tests.
type Repository struct {
	mu      sync.RWMutex
	records map[phone.Key]phone.Record
	nextID  int64
	now     func() time.Time
}

var _ phone.Repository = (*Repository)(nil)

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		records: make(map[phone.Key]phone.Record),
		now:     time.Now,
	}
}

// FindByKey returns a copy of the stored record, or nil if not found.
func (r *Repository) FindByKey(_ context.Context, key phone.Key) (*phone.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Create stores a new record, or returns phone.ErrDuplicateKey if the key is taken.
func (r *Repository) Create(_ context.Context, key phone.Key, fields phone.Fields) (*phone.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[key]; exists {
		return nil, phone.ErrDuplicateKey
	}

	r.nextID++
	now := r.now().UTC()
	record := phone.Record{
		ID:               r.nextID,
		Key:              key,
		CountryCode:      fields.CountryCode,
		LocalNumber:      fields.LocalNumber,
		Operator:         fields.Operator,
		PreviousOperator: fields.PreviousOperator,
		Region:           fields.Region,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.records[key] = record
	return &record, nil
}

// Len returns the number of stored records.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
