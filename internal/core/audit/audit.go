package audit

import (
	"context"
	"time"

	"3tcapital/phonecheck/internal/core/phone"
)

// Identity is the authenticated requester behind a query.
type Identity struct {
	Subject  string `json:"subject"`
	Username string `json:"username,omitempty"`
}

// Entry records that a phone record was queried, by whom, when and from where.
// Entries are append-only; Actor is nil for anonymous requests.
type Entry struct {
	ID            string       `json:"id"`
	Actor         *Identity    `json:"actor,omitempty"`
	Record        phone.Record `json:"record"`
	Timestamp     time.Time    `json:"timestamp"`
	SourceAddress *string      `json:"source_address,omitempty"`
	AgentString   *string      `json:"agent_string,omitempty"`
}

// Repository defines the contract for persisting and retrieving query audit entries.
type Repository interface {
	// Append persists an entry. ID and Timestamp are assigned when empty.
	Append(ctx context.Context, entry Entry) error

	// ListByRecord returns the newest entries for a phone record, up to limit.
	ListByRecord(ctx context.Context, recordID int64, limit int) ([]Entry, error)

	// ListByActor returns the newest entries made by a requester, up to limit.
	ListByActor(ctx context.Context, subject string, limit int) ([]Entry, error)
}

// Recorder accepts audit entries without blocking the caller.
type Recorder interface {
	Record(entry Entry)
}
