package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"CardKeeper/internal/common"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

// scriptedPusher возвращает ошибки из script по очереди, затем nil.
type scriptedPusher struct {
	mu     sync.Mutex
	script []error
	calls  map[string]int
}

func (p *scriptedPusher) SyncOne(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string]int{}
	}
	p.calls[id]++
	if len(p.script) == 0 {
		return nil
	}
	err := p.script[0]
	p.script = p.script[1:]
	return err
}

func (p *scriptedPusher) count(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

func TestSyncQueue_CollapsesPendingDuplicates(t *testing.T) {
	q := NewSyncQueue(&scriptedPusher{}, QueueConfig{Size: 4}, nil)
	assert.True(t, q.Enqueue("c1"))
	assert.True(t, q.Enqueue("c1"))
	assert.True(t, q.Enqueue("c2"))
	assert.Equal(t, 2, q.Len())
}

func TestSyncQueue_DropsWhenFull(t *testing.T) {
	q := NewSyncQueue(&scriptedPusher{}, QueueConfig{Size: 1}, nil)
	assert.True(t, q.Enqueue("c1"))
	assert.False(t, q.Enqueue("c2"))
}

func TestSyncQueue_RetriesWithBackoff(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	remoteErr := fmt.Errorf("%w: timeout", common.ErrRemoteUnavailable)
	p := &scriptedPusher{script: []error{remoteErr, remoteErr}}
	q := NewSyncQueue(p, QueueConfig{Workers: 1, MaxAttempts: 3, BaseDelay: time.Millisecond}, nil)
	q.Start(context.Background())
	defer q.Stop()

	assert.True(t, q.Enqueue("c1"))
	assert.Eventually(t, func() bool { return p.count("c1") == 3 }, time.Second, 5*time.Millisecond)
}

func TestSyncQueue_GivesUpAfterMaxAttempts(t *testing.T) {
	remoteErr := fmt.Errorf("%w: down", common.ErrRemoteUnavailable)
	p := &scriptedPusher{script: []error{remoteErr, remoteErr, remoteErr, remoteErr}}
	q := NewSyncQueue(p, QueueConfig{Workers: 1, MaxAttempts: 2, BaseDelay: time.Millisecond}, nil)
	q.Start(context.Background())

	q.Enqueue("c1")
	assert.Eventually(t, func() bool { return p.count("c1") == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	q.Stop()
	assert.Equal(t, 2, p.count("c1"))
}

func TestSyncQueue_DoesNotRetryPermanentErrors(t *testing.T) {
	p := &scriptedPusher{script: []error{common.ErrNotFound}}
	q := NewSyncQueue(p, QueueConfig{Workers: 1, MaxAttempts: 5, BaseDelay: time.Millisecond}, nil)
	q.Start(context.Background())

	q.Enqueue("gone")
	assert.Eventually(t, func() bool { return p.count("gone") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	q.Stop()
	assert.Equal(t, 1, p.count("gone"))
}

func TestSyncQueue_StopIsIdempotentAndRejectsNewWork(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := NewSyncQueue(&scriptedPusher{}, QueueConfig{}, nil)
	q.Start(context.Background())
	q.Stop()
	q.Stop()
	assert.False(t, q.Enqueue("c1"))
}

func TestSyncQueue_StopInterruptsBackoff(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &scriptedPusher{script: []error{common.ErrRemoteUnavailable}}
	q := NewSyncQueue(p, QueueConfig{Workers: 1, MaxAttempts: 3, BaseDelay: time.Hour}, nil)
	q.Start(context.Background())
	q.Enqueue("c1")
	assert.Eventually(t, func() bool { return p.count("c1") == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() { q.Stop(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on backoff")
	}
}
