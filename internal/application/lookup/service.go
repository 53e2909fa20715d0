package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"3tcapital/phonecheck/internal/core/audit"
	"3tcapital/phonecheck/internal/core/phone"
	"3tcapital/phonecheck/internal/infrastructure/metrics"
	"3tcapital/phonecheck/internal/infrastructure/security"
)

const (
	// DefaultRecordHistoryLimit is how many audit entries accompany a resolved record.
	DefaultRecordHistoryLimit = 10
	// DefaultActorHistoryLimit is how many audit entries a requester sees in their history.
	DefaultActorHistoryLimit = 50
)

var (
	// ErrInvalidNumber is returned when the input does not normalize to 10 or 11 digits.
	ErrInvalidNumber = errors.New("invalid phone number")

	// ErrLookupFailed is returned when the number is not stored and the provider
	// could not supply it. It wraps the provider error.
	ErrLookupFailed = errors.New("could not retrieve information")
)

var tracer = otel.Tracer("phonecheck.lookup")

// RequestContext describes who asked for a lookup and from where.
// The zero value is an anonymous in-process call and produces no audit entry.
type RequestContext struct {
	Actor         *audit.Identity
	SourceAddress string
	AgentString   string
}

func (r RequestContext) auditable() bool {
	return r.Actor != nil || r.SourceAddress != ""
}

// Service orchestrates the lookup pipeline: normalize, validate, durable store,
// result cache, remote provider, persist and audit.
type Service struct {
	records  phone.Repository
	provider phone.Provider
	recorder audit.Recorder
	history  audit.Repository
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewService creates a lookup service. provider is expected to be cache-aware
// (see CachedProvider). recorder and history may be nil when auditing is disabled;
// m may be nil.
func NewService(records phone.Repository, provider phone.Provider, recorder audit.Recorder, history audit.Repository, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		records:  records,
		provider: provider,
		recorder: recorder,
		history:  history,
		log:      log,
		metrics:  m,
	}
}

// Resolve returns the stored record for raw, fetching and persisting it on first sight.
// A stored record always wins over the cache and the provider; it is never refreshed.
func (s *Service) Resolve(ctx context.Context, raw string, req RequestContext) (*phone.Record, error) {
	ctx, span := tracer.Start(ctx, "lookup.Resolve")
	defer span.End()

	normalized := phone.Normalize(raw)
	span.SetAttributes(attribute.Int("phone.digits", len(normalized)))
	if !phone.IsPlausible(normalized) {
		s.metrics.ObserveResolution(metrics.OutcomeInvalid)
		span.SetStatus(codes.Error, ErrInvalidNumber.Error())
		return nil, fmt.Errorf("%w: expected 10 or 11 digits, got %d", ErrInvalidNumber, len(normalized))
	}

	key := phone.KeyOf(normalized)
	log := s.log.With("number", security.MaskNumber(normalized))

	record, err := s.records.FindByKey(ctx, key)
	if err != nil {
		s.metrics.ObserveStoreLookup(metrics.ResultError)
		s.metrics.ObserveResolution(metrics.OutcomeFailure)
		return nil, s.fail(span, log, "Phone record lookup failed", fmt.Errorf("find phone record: %w", err))
	}

	if record != nil {
		s.metrics.ObserveStoreLookup(metrics.ResultHit)
		span.SetAttributes(attribute.Bool("lookup.store_hit", true))
	} else {
		s.metrics.ObserveStoreLookup(metrics.ResultMiss)
		span.SetAttributes(attribute.Bool("lookup.store_hit", false))

		record, err = s.fetchAndStore(ctx, log, normalized, key)
		if err != nil {
			return nil, s.fail(span, log, "Phone lookup failed", err)
		}
	}

	if req.auditable() && s.recorder != nil {
		s.recorder.Record(newEntry(*record, req))
	}

	s.metrics.ObserveResolution(metrics.OutcomeSuccess)
	return record, nil
}

// fetchAndStore asks the provider for the record and persists it, resolving a
// concurrent insert of the same key by re-reading the winner.
func (s *Service) fetchAndStore(ctx context.Context, log *slog.Logger, normalized string, key phone.Key) (*phone.Record, error) {
	raw, err := s.provider.FetchFullRecord(ctx, normalized)
	if err != nil {
		if errors.Is(err, phone.ErrNoData) {
			s.metrics.ObserveResolution(metrics.OutcomeNoData)
		} else {
			s.metrics.ObserveResolution(metrics.OutcomeFailure)
		}
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	if raw.Empty() {
		s.metrics.ObserveResolution(metrics.OutcomeNoData)
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, phone.ErrNoData)
	}

	record, err := s.records.Create(ctx, key, raw.Fields())
	if errors.Is(err, phone.ErrDuplicateKey) {
		log.Debug("Phone record created concurrently, re-reading", "key", key.String())
		record, err = s.records.FindByKey(ctx, key)
		if err == nil && record == nil {
			err = errors.New("record vanished after duplicate key")
		}
	}
	if err != nil {
		s.metrics.ObserveResolution(metrics.OutcomeFailure)
		return nil, fmt.Errorf("store phone record: %w", err)
	}

	log.Info("Phone record created", "record_id", record.ID, "operator", record.Operator, "region", record.Region)
	return record, nil
}

// Field returns a single provider field for raw. Field lookups go through the
// result cache but are neither persisted nor audited.
func (s *Service) Field(ctx context.Context, raw, field string, translit bool) (string, error) {
	ctx, span := tracer.Start(ctx, "lookup.Field", trace.WithAttributes(
		attribute.String("lookup.field", field),
		attribute.Bool("lookup.translit", translit),
	))
	defer span.End()

	normalized := phone.Normalize(raw)
	if !phone.IsPlausible(normalized) {
		span.SetStatus(codes.Error, ErrInvalidNumber.Error())
		return "", fmt.Errorf("%w: expected 10 or 11 digits, got %d", ErrInvalidNumber, len(normalized))
	}
	if field == "" {
		span.SetStatus(codes.Error, phone.ErrInvalidArgument.Error())
		return "", fmt.Errorf("field is required: %w", phone.ErrInvalidArgument)
	}

	value, err := s.provider.FetchField(ctx, normalized, field, translit)
	if err != nil {
		log := s.log.With("number", security.MaskNumber(normalized), "field", field)
		return "", s.fail(span, log, "Field lookup failed", fmt.Errorf("%w: %w", ErrLookupFailed, err))
	}
	return value, nil
}

// RecordHistory returns the newest audit entries for a record.
// A non-positive limit uses DefaultRecordHistoryLimit.
func (s *Service) RecordHistory(ctx context.Context, recordID int64, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = DefaultRecordHistoryLimit
	}
	if s.history == nil {
		return []audit.Entry{}, nil
	}

	entries, err := s.history.ListByRecord(ctx, recordID, limit)
	if err != nil {
		return nil, fmt.Errorf("list record history: %w", err)
	}
	return entries, nil
}

// ActorHistory returns the newest audit entries made by subject.
// A non-positive limit uses DefaultActorHistoryLimit.
func (s *Service) ActorHistory(ctx context.Context, subject string, limit int) ([]audit.Entry, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is required: %w", phone.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = DefaultActorHistoryLimit
	}
	if s.history == nil {
		return []audit.Entry{}, nil
	}

	entries, err := s.history.ListByActor(ctx, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("list requester history: %w", err)
	}
	return entries, nil
}

func (s *Service) fail(span trace.Span, log *slog.Logger, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	log.Warn(msg, "error", err)
	return err
}

func newEntry(record phone.Record, req RequestContext) audit.Entry {
	entry := audit.Entry{
		Actor:  req.Actor,
		Record: record,
	}
	if req.SourceAddress != "" {
		addr := req.SourceAddress
		entry.SourceAddress = &addr
	}
	if req.AgentString != "" {
		agent := req.AgentString
		entry.AgentString = &agent
	}
	return entry
}
