package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/phonecheck/internal/core/audit"
	"3tcapital/phonecheck/internal/core/phone"
)

const listQuery = `
	SELECT q.id::text, q.requester_subject, COALESCE(r.username, ''), q.queried_at,
	       host(q.ip_address), q.user_agent,
	       p.id, p.key, p.code, p.num, p.operator, p.old_operator, p.region, p.created_at, p.updated_at
	FROM query_audit_log q
	JOIN phone_records p ON p.id = q.phone_record_id
	LEFT JOIN requesters r ON r.subject = q.requester_subject
`

// Repository implements the audit.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
	now  func() time.Time
}

var _ audit.Repository = (*Repository)(nil)

// NewRepository creates a new PostgreSQL query audit repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log, now: time.Now}
}

// Append persists an audit entry, upserting the requester row when an actor is present.
func (r *Repository) Append(ctx context.Context, entry audit.Entry) error {
	id, err := entryID(entry.ID)
	if err != nil {
		return err
	}
	queriedAt := entry.Timestamp
	if queriedAt.IsZero() {
		queriedAt = r.now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var subject *string
	if entry.Actor != nil && entry.Actor.Subject != "" {
		subject = &entry.Actor.Subject
		_, err = tx.Exec(ctx, `
			INSERT INTO requesters (subject, username)
			VALUES ($1, $2)
			ON CONFLICT (subject) DO UPDATE
			SET username = EXCLUDED.username
			WHERE EXCLUDED.username <> ''`,
			entry.Actor.Subject, entry.Actor.Username,
		)
		if err != nil {
			return fmt.Errorf("upsert requester: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO query_audit_log (id, requester_subject, phone_record_id, queried_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, CAST($5::text AS inet), $6)`,
		id,
		subject,
		entry.Record.ID,
		queriedAt,
		r.ipAddress(entry),
		entry.AgentString,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit audit entry: %w", err)
	}
	return nil
}

// ListByRecord returns the newest entries for a phone record, up to limit.
func (r *Repository) ListByRecord(ctx context.Context, recordID int64, limit int) ([]audit.Entry, error) {
	return r.list(ctx, listQuery+`WHERE q.phone_record_id = $1 ORDER BY q.queried_at DESC LIMIT $2`, recordID, limit)
}

// ListByActor returns the newest entries made by a requester, up to limit.
func (r *Repository) ListByActor(ctx context.Context, subject string, limit int) ([]audit.Entry, error) {
	return r.list(ctx, listQuery+`WHERE q.requester_subject = $1 ORDER BY q.queried_at DESC LIMIT $2`, subject, limit)
}

func (r *Repository) list(ctx context.Context, query string, arg any, limit int) ([]audit.Entry, error) {
	rows, err := r.pool.Query(ctx, query, arg, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []audit.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func scanEntry(rows pgx.Rows) (audit.Entry, error) {
	var (
		entry    audit.Entry
		subject  *string
		username string
		key      string
	)
	err := rows.Scan(
		&entry.ID,
		&subject,
		&username,
		&entry.Timestamp,
		&entry.SourceAddress,
		&entry.AgentString,
		&entry.Record.ID,
		&key,
		&entry.Record.CountryCode,
		&entry.Record.LocalNumber,
		&entry.Record.Operator,
		&entry.Record.PreviousOperator,
		&entry.Record.Region,
		&entry.Record.CreatedAt,
		&entry.Record.UpdatedAt,
	)
	if err != nil {
		return audit.Entry{}, err
	}
	entry.Record.Key = phone.Key(key)
	if subject != nil {
		entry.Actor = &audit.Identity{Subject: *subject, Username: username}
	}
	return entry, nil
}

// ipAddress returns the entry's source address if it parses as an IP, nil otherwise.
func (r *Repository) ipAddress(entry audit.Entry) *string {
	if entry.SourceAddress == nil || *entry.SourceAddress == "" {
		return nil
	}
	addr, err := netip.ParseAddr(*entry.SourceAddress)
	if err != nil {
		r.log.Warn("Dropping unparseable source address from audit entry", "address", *entry.SourceAddress, "error", err)
		return nil
	}
	s := addr.String()
	return &s
}

func entryID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid audit entry id %q: %w", raw, err)
	}
	return id, nil
}
