package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"3tcapital/phonecheck/internal/core/audit"
)

// Repository is an in-memory audit.Repository for local runs and tests.
type Repository struct {
	mu      sync.RWMutex
	entries []audit.Entry
	now     func() time.Time
}

var _ audit.Repository = (*Repository)(nil)

// NewRepository creates an empty in-memory audit log.
func NewRepository() *Repository {
	return &Repository{now: time.Now}
}

// Append stores the entry, assigning an ID and timestamp when missing.
func (r *Repository) Append(_ context.Context, entry audit.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// ListByRecord returns the newest entries for a phone record, up to limit.
func (r *Repository) ListByRecord(_ context.Context, recordID int64, limit int) ([]audit.Entry, error) {
	return r.filter(limit, func(e audit.Entry) bool {
		return e.Record.ID == recordID
	}), nil
}

// ListByActor returns the newest entries made by a requester, up to limit.
func (r *Repository) ListByActor(_ context.Context, subject string, limit int) ([]audit.Entry, error) {
	return r.filter(limit, func(e audit.Entry) bool {
		return e.Actor != nil && e.Actor.Subject == subject
	}), nil
}

// Len returns the number of stored entries.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Repository) filter(limit int, match func(audit.Entry) bool) []audit.Entry {
	r.mu.RLock()
	matched := []audit.Entry{}
	for _, e := range r.entries {
		if match(e) {
			matched = append(matched, e)
		}
	}
	r.mu.RUnlock()

	// newest first
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
