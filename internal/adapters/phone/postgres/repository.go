package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/phonecheck/internal/core/phone"
)

// uniqueViolation is the SQLSTATE raised when the key constraint rejects an insert.
const uniqueViolation = "23505"

const recordColumns = `id, key, code, num, operator, old_operator, region, created_at, updated_at`

// Repository implements the phone.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL phone record repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

var _ phone.Repository = (*Repository)(nil)

// FindByKey retrieves a record by its key. Returns nil if not found.
func (r *Repository) FindByKey(ctx context.Context, key phone.Key) (*phone.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM phone_records WHERE key = $1`

	record, err := scanRecord(r.pool.QueryRow(ctx, query, key.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find phone record: %w", err)
	}
	return record, nil
}

// Create inserts a new record. A concurrent insert of the same key yields phone.ErrDuplicateKey.
func (r *Repository) Create(ctx context.Context, key phone.Key, fields phone.Fields) (*phone.Record, error) {
	query := `
		INSERT INTO phone_records (key, code, num, operator, old_operator, region)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + recordColumns

	record, err := scanRecord(r.pool.QueryRow(ctx, query,
		key.String(),
		fields.CountryCode,
		fields.LocalNumber,
		fields.Operator,
		fields.PreviousOperator,
		fields.Region,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.log.Debug("Phone record already exists", "key", key.String(), "constraint", pgErr.ConstraintName)
			return nil, phone.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert phone record: %w", err)
	}

	return record, nil
}

func scanRecord(row pgx.Row) (*phone.Record, error) {
	var (
		record phone.Record
		key    string
	)
	err := row.Scan(
		&record.ID,
		&key,
		&record.CountryCode,
		&record.LocalNumber,
		&record.Operator,
		&record.PreviousOperator,
		&record.Region,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Key = phone.Key(key)
	return &record, nil
}
