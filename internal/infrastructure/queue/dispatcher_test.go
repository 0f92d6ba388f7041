package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

type memoryAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	fail   bool
	block  chan struct{}
}

func (r *memoryAuditRepo) Insert(ctx context.Context, e *domain.AuditEvent) error {
	if r.block != nil {
		<-r.block
	}
	if r.fail {
		return errors.New("mongo: no reachable servers")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *memoryAuditRepo) List(context.Context, ports.AuditFilter) ([]*domain.AuditEvent, error) {
	return nil, nil
}

func (r *memoryAuditRepo) snapshot() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}

func TestDispatcher_WritesAllEventsAndDrainsOnShutdown(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 50; i++ {
		d.Record(domain.AuditEvent{Type: domain.AuditLoginSucceeded, TargetID: "u-1"})
	}
	cancel()
	d.Wait()

	events := repo.snapshot()
	require.Len(t, events, 50)
	for _, e := range events {
		assert.NotEmpty(t, e.ID, "dispatcher assigns ids")
		assert.False(t, e.OccurredAt.IsZero(), "dispatcher stamps time")
	}
}

func TestDispatcher_PreservesPerTargetOrder(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	kinds := []domain.AuditEventType{
		domain.AuditUserCreated,
		domain.AuditPermissionsSet,
		domain.AuditUserDeactivated,
		domain.AuditUserDeleted,
	}
	for _, k := range kinds {
		d.Record(domain.AuditEvent{Type: k, TargetID: "u-42"})
	}
	cancel()
	d.Wait()

	events := repo.snapshot()
	require.Len(t, events, len(kinds))
	for i, e := range events {
		assert.Equal(t, kinds[i], e.Type)
	}
}

func TestDispatcher_KeepsExistingIDAndTime(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d.Record(domain.AuditEvent{ID: "fixed", Type: domain.AuditLogout, OccurredAt: at})
	cancel()
	d.Wait()

	events := repo.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "fixed", events[0].ID)
	assert.Equal(t, at, events[0].OccurredAt)
}

func TestDispatcher_RecordNeverBlocks(t *testing.T) {
	repo := &memoryAuditRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer*3; i++ {
			d.Record(domain.AuditEvent{Type: domain.AuditLoginFailed, Email: "flood@example.com"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	close(repo.block)
	cancel()
	d.Wait()
	assert.LessOrEqual(t, len(repo.snapshot()), channelBuffer+1)
}

func TestDispatcher_WriteFailureDoesNotStopWorker(t *testing.T) {
	repo := &memoryAuditRepo{fail: true}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Record(domain.AuditEvent{Type: domain.AuditLogout, TargetID: "u-1"})
	d.Record(domain.AuditEvent{Type: domain.AuditLogout, TargetID: "u-1"})
	cancel()
	d.Wait()

	assert.Empty(t, repo.snapshot())
}

func TestShardIndex_Deterministic(t *testing.T) {
	d := NewDispatcher(8, &memoryAuditRepo{}, zerolog.Nop())
	first := d.shardIndex("u-1")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.shardIndex("u-1"))
	}
	assert.Equal(t, "u-1", shardKey(domain.AuditEvent{TargetID: "u-1", Email: "a@example.com"}))
	assert.Equal(t, "a@example.com", shardKey(domain.AuditEvent{Email: "a@example.com"}))
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, &memoryAuditRepo{}, zerolog.Nop())
	assert.Len(t, d.workers, defaultWorkers)
}
