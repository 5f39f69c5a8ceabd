package worker

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestStatsWorkerStopEndsLoop(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	w := NewStatsWorker(nil, nil, rdb, "stats:stale", time.Minute)

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	w.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker loop did not stop")
	}
}

func TestStatsWorkerListenStopsOnCancel(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	w := NewStatsWorker(nil, nil, rdb, "stats:stale", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.listen(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not exit on cancellation")
	}
}

func TestStatsWorkerMarkStaleIgnoresEmpty(t *testing.T) {
	w := NewStatsWorker(nil, nil, nil, "stats:stale", time.Minute)

	w.markStale("")
	w.markStale("acct-1")
	w.markStale("acct-1")

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.stale, 1)
	assert.Contains(t, w.stale, "acct-1")
}
