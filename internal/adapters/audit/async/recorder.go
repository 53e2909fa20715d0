package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"3tcapital/phonecheck/internal/core/audit"
	"3tcapital/phonecheck/internal/infrastructure/metrics"
)

// DefaultWriteTimeout bounds each repository write. Writes use a background
// context so they outlive the request that produced the entry.
const DefaultWriteTimeout = 10 * time.Second

// Observer counts audit outcomes.
type Observer interface {
	ObserveAudit(outcome string)
}

// Recorder is a fire-and-forget audit.Recorder. Record never blocks: entries go
// onto a bounded queue drained by a single worker, and are dropped when it is full.
// Write failures are logged and never reach the caller.
type Recorder struct {
	repo         audit.Repository
	log          *slog.Logger
	observer     Observer
	queue        chan audit.Entry
	writeTimeout time.Duration
	now          func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	running  atomic.Bool
}

var _ audit.Recorder = (*Recorder)(nil)

// NewRecorder creates a recorder with room for queueSize pending entries.
// observer may be nil.
func NewRecorder(repo audit.Repository, queueSize int, log *slog.Logger, observer Observer) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Recorder{
		repo:         repo,
		log:          log,
		observer:     observer,
		queue:        make(chan audit.Entry, queueSize),
		writeTimeout: DefaultWriteTimeout,
		now:          time.Now,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Record stamps the entry and enqueues it without blocking.
func (r *Recorder) Record(entry audit.Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}

	select {
	case <-r.stop:
		r.drop(entry, "recorder closed")
		return
	default:
	}

	select {
	case r.queue <- entry:
	default:
		r.drop(entry, "queue full")
	}
}

// Run writes queued entries until ctx is cancelled or Close is called,
// then drains whatever is left. It always returns nil.
func (r *Recorder) Run(ctx context.Context) error {
	r.running.Store(true)
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case <-r.stop:
			r.drain()
			return nil
		case entry := <-r.queue:
			r.write(entry)
		}
	}
}

// Close stops accepting entries and waits until the queue is drained.
func (r *Recorder) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.drain()
	if r.running.Load() {
		<-r.done
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		default:
			return
		}
	}
}

func (r *Recorder) write(entry audit.Entry) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Panic in audit entry persistence", "panic", rec, "audit_id", entry.ID, "record_id", entry.Record.ID)
			r.observe(metrics.OutcomeFailure)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.repo.Append(ctx, entry); err != nil {
		r.log.Error("Failed to persist audit entry",
			"error", err,
			"audit_id", entry.ID,
			"record_id", entry.Record.ID,
		)
		r.observe(metrics.OutcomeFailure)
		return
	}

	r.log.Debug("Audit entry persisted", "audit_id", entry.ID, "record_id", entry.Record.ID)
	r.observe(metrics.OutcomeSuccess)
}

func (r *Recorder) drop(entry audit.Entry, reason string) {
	r.log.Warn("Dropping audit entry", "reason", reason, "audit_id", entry.ID, "record_id", entry.Record.ID)
	r.observe(metrics.OutcomeDropped)
}

func (r *Recorder) observe(outcome string) {
	if r.observer != nil {
		r.observer.ObserveAudit(outcome)
	}
}
