package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/phonecheck/internal/adapters/audit/memory"
	"3tcapital/phonecheck/internal/core/audit"
	"3tcapital/phonecheck/internal/core/phone"
	"3tcapital/phonecheck/internal/infrastructure/metrics"
	"3tcapital/phonecheck/internal/testutil"
)

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *countingObserver) ObserveAudit(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[outcome]++
}

func (o *countingObserver) count(outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[outcome]
}

func TestRecorder_RunPersistsEntries(t *testing.T) {
	repo := memory.NewRepository()
	observer := &countingObserver{}
	recorder := NewRecorder(repo, 8, testutil.NewNullLogger(), observer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- recorder.Run(ctx) }()

	recorder.Record(audit.Entry{Record: phone.Record{ID: 7}})
	recorder.Record(audit.Entry{Record: phone.Record{ID: 7}, Actor: &audit.Identity{Subject: "alice"}})

	require.Eventually(t, func() bool { return repo.Len() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, observer.count(metrics.OutcomeSuccess))

	entries, err := repo.ListByRecord(context.Background(), 7, 10)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestRecorder_RecordNeverBlocksWhenFull(t *testing.T) {
	repo := memory.NewRepository()
	observer := &countingObserver{}
	recorder := NewRecorder(repo, 2, testutil.NewNullLogger(), observer)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			recorder.Record(audit.Entry{Record: phone.Record{ID: 1}})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}
	assert.Equal(t, 3, observer.count(metrics.OutcomeDropped))

	recorder.Close()
	assert.Equal(t, 2, repo.Len(), "Close drains queued entries")
}

func TestRecorder_CloseDrainsRunningWorker(t *testing.T) {
	repo := memory.NewRepository()
	recorder := NewRecorder(repo, 16, testutil.NewNullLogger(), nil)

	go recorder.Run(context.Background())
	for i := 0; i < 10; i++ {
		recorder.Record(audit.Entry{Record: phone.Record{ID: 3}})
	}
	recorder.Close()

	assert.Equal(t, 10, repo.Len())

	// entries after Close are dropped
	recorder.Record(audit.Entry{Record: phone.Record{ID: 3}})
	assert.Equal(t, 10, repo.Len())
}

func TestRecorder_WriteFailuresAreSwallowed(t *testing.T) {
	var calls int
	var mu sync.Mutex
	repo := &testutil.MockAuditRepository{
		AppendFunc: func(ctx context.Context, entry audit.Entry) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected write context to carry a deadline")
			}
			if calls == 1 {
				return errors.New("connection refused")
			}
			panic("driver bug")
		},
	}
	observer := &countingObserver{}
	recorder := NewRecorder(repo, 4, testutil.NewNullLogger(), observer)

	recorder.Record(audit.Entry{Record: phone.Record{ID: 1}})
	recorder.Record(audit.Entry{Record: phone.Record{ID: 2}})

	assert.NotPanics(t, recorder.Close)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, observer.count(metrics.OutcomeFailure))
}
