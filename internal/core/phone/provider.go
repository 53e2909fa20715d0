package phone

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnreachable marks transport, timeout, non-2xx and decode failures from the provider.
	ErrUnreachable = errors.New("phone provider unreachable")

	// ErrNoData is returned when the provider answers successfully but with an empty payload.
	ErrNoData = errors.New("phone provider returned no data")

	// ErrInvalidArgument is returned when a lookup is attempted without a number or field.
	ErrInvalidArgument = errors.New("invalid lookup argument")
)

// RawRecord is the full-record payload returned by the lookup provider.
type RawRecord struct {
	Code        string    `json:"code"`
	Num         string    `json:"num"`
	Operator    string    `json:"operator"`
	OldOperator *string   `json:"old_operator,omitempty"`
	Region      string    `json:"region"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Empty reports whether the payload carries no usable data.
func (r *RawRecord) Empty() bool {
	return r == nil || (r.Code == "" && r.Num == "" && r.Operator == "" && r.Region == "")
}

// Fields converts the payload into the attributes persisted on a Record.
func (r *RawRecord) Fields() Fields {
	return Fields{
		CountryCode:      r.Code,
		LocalNumber:      r.Num,
		Operator:         r.Operator,
		PreviousOperator: r.OldOperator,
		Region:           r.Region,
	}
}

// Provider defines the outbound lookup API.
type Provider interface {
	// FetchFullRecord retrieves the structured record for a normalized number.
	FetchFullRecord(ctx context.Context, normalized string) (*RawRecord, error)

	// FetchField retrieves a single scalar field (operator, region, ...) as plain text.
	// translit asks the provider for a transliterated rendering when supported.
	FetchField(ctx context.Context, normalized, field string, translit bool) (string, error)
}

// LookupError describes a failed provider call. It matches ErrUnreachable under errors.Is.
type LookupError struct {
	Op     string
	Number string
	Field  string
	Status int
	Err    error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("phone lookup %s", e.Op)
	if e.Field != "" {
		msg += fmt.Sprintf(" field=%s", e.Field)
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(": unexpected status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying transport error.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is makes every LookupError match ErrUnreachable.
func (e *LookupError) Is(target error) bool {
	return target == ErrUnreachable
}
