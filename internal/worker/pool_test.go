package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func square(n int) Task[int] {
	return func(ctx context.Context) int { return n * n }
}

func TestNewPool_Size(t *testing.T) {
	for _, tc := range []struct{ in, want int }{{4, 4}, {0, 1}, {-3, 1}} {
		if got := NewPool[int](context.Background(), tc.in).size; got != tc.want {
			t.Errorf("NewPool(%d): expected size %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestPool_ResultsInSubmissionOrder(t *testing.T) {
	pool := NewPool[int](context.Background(), 3)
	pool.Start()

	for n := 0; n < 20; n++ {
		pool.Submit(func(ctx context.Context) int {
			// later tasks finish first
			time.Sleep(time.Duration(20-n) * time.Millisecond)
			return n * n
		})
	}

	got := pool.Wait()
	if len(got) != 20 {
		t.Fatalf("expected 20 results, got %d", len(got))
	}
	for n, v := range got {
		if v != n*n {
			t.Errorf("slot %d: expected %d, got %d", n, n*n, v)
		}
	}
}

func TestPool_BacklogLargerThanQueue(t *testing.T) {
	pool := NewPool[int](context.Background(), 1)
	pool.Start()

	finished := make(chan []int)
	go func() {
		for n := 0; n < 200; n++ {
			pool.Submit(square(n))
		}
		finished <- pool.Wait()
	}()

	select {
	case got := <-finished:
		if len(got) != 200 || got[199] != 199*199 {
			t.Errorf("unexpected results: len=%d", len(got))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool stalled with a backlog")
	}
}

func TestPool_NeverExceedsSize(t *testing.T) {
	const size = 4
	pool := NewPool[struct{}](context.Background(), size)
	pool.Start()

	var active, peak int32
	for n := 0; n < 40; n++ {
		pool.Submit(func(ctx context.Context) struct{} {
			now := atomic.AddInt32(&active, 1)
			for {
				seen := atomic.LoadInt32(&peak)
				if now <= seen || atomic.CompareAndSwapInt32(&peak, seen, now) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return struct{}{}
		})
	}
	pool.Wait()

	if peak > size {
		t.Errorf("peak concurrency %d exceeded pool size %d", peak, size)
	}
	if peak == 0 {
		t.Error("no task ran")
	}
}

func TestPool_SubmitAfterShutdownIsRejected(t *testing.T) {
	pool := NewPool[int](context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	if pool.Submit(square(3)) {
		t.Error("expected Submit to be rejected after Shutdown")
	}
	if got := pool.Wait(); len(got) != 1 || got[0] != 0 {
		t.Errorf("rejected task should leave a zero slot, got %v", got)
	}
}

func TestPool_ParentCancelReachesTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool[error](ctx, 1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	cancel()

	finished := make(chan []error)
	go func() { finished <- pool.Wait() }()

	select {
	case got := <-finished:
		if len(got) != 1 || got[0] != context.Canceled {
			t.Errorf("expected the task to observe cancellation, got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after parent cancel")
	}
}
