package interp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(2, nil)
	defer p.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := p.Submit(context.Background(), func() {
			defer wg.Done()
			mu.Lock()
			seen++
			mu.Unlock()
		})
		require.NoError(t, err)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 10, seen)
}

func TestPoolSubmitHonorsContextCancellation(t *testing.T) {
	p := NewPool(1, nil)
	defer p.Close()

	// Saturate the single worker with a blocking task, then fill the task
	// queue (buffered at size*4) so a further Submit has nowhere to go and
	// must wait on ctx instead.
	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() {
		close(started)
		<-block
	}))
	<-started // the worker is now stuck inside the blocking task, queue is empty

	for i := 0; i < 4; i++ {
		require.NoError(t, p.Submit(context.Background(), func() {}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Submit(ctx, func() {})
	require.ErrorIs(t, err, context.Canceled)

	close(block)
}

func TestPoolSurvivesAPanickingTask(t *testing.T) {
	p := NewPool(1, nil)
	defer p.Close()

	done := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() {
		panic("boom")
	}))
	require.NoError(t, p.Submit(context.Background(), func() {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not recover from a panicking task")
	}
}

func TestPoolCloseIsIdempotentAndRejectsFurtherWork(t *testing.T) {
	p := NewPool(1, nil)
	p.Close()
	p.Close() // must not panic or block a second time

	// Once closed, no goroutine drains the task channel, so a buffered send
	// can still succeed for a few calls; submitting enough work eventually
	// fills that buffer and the next Submit must observe the closed pool.
	var err error
	for i := 0; i < 8; i++ {
		if err = p.Submit(context.Background(), func() {}); err != nil {
			break
		}
	}
	require.Error(t, err)
}

func TestNewPoolDefaultsSizeWhenNonPositive(t *testing.T) {
	p := NewPool(0, nil)
	defer p.Close()

	done := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool created with size<=0 should still run tasks")
	}
}
