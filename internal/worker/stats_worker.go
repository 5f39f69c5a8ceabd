package worker

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tiltedtrades/trades-api/internal/middleware"
	"github.com/tiltedtrades/trades-api/internal/repository"
	"github.com/tiltedtrades/trades-api/internal/service"
)

// drainInterval is how often accumulated staleness marks are processed.
const drainInterval = 2 * time.Second

// StatsWorker listens for staleness notifications and recomputes account
// aggregates. A periodic full sweep catches accounts whose notification
// was lost.
type StatsWorker struct {
	statsService *service.StatsService
	execRepo     *repository.ExecutionRepository
	rdb          *redis.Client
	channel      string
	interval     time.Duration
	stopChan     chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc

	mu    sync.Mutex
	stale map[string]struct{}
}

// NewStatsWorker creates a new stats recomputation worker
func NewStatsWorker(
	statsService *service.StatsService,
	execRepo *repository.ExecutionRepository,
	rdb *redis.Client,
	channel string,
	interval time.Duration,
) *StatsWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &StatsWorker{
		statsService: statsService,
		execRepo:     execRepo,
		rdb:          rdb,
		channel:      channel,
		interval:     interval,
		stopChan:     make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		stale:        make(map[string]struct{}),
	}
}

// Start begins the recomputation loop
func (w *StatsWorker) Start() {
	middleware.LogInfo("Stats worker started, channel=%s, sweep interval=%v", w.channel, w.interval)

	go w.listen(w.ctx)

	drain := time.NewTicker(drainInterval)
	defer drain.Stop()
	sweep := time.NewTicker(w.interval)
	defer sweep.Stop()

	for {
		select {
		case <-drain.C:
			w.drainStale()
		case <-sweep.C:
			w.fullSweep()
		case <-w.stopChan:
			middleware.LogInfo("Stats worker stopped")
			return
		}
	}
}

// Stop stops the recomputation loop
func (w *StatsWorker) Stop() {
	w.cancel()
	close(w.stopChan)
}

// listen consumes staleness notifications. Payloads are account ids.
// Subscription message channels stay open past context cancellation, so
// shutdown closes the subscription explicitly to end the range loop.
func (w *StatsWorker) listen(ctx context.Context) {
	sub := w.rdb.Subscribe(ctx, w.channel)
	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	for msg := range sub.Channel() {
		w.markStale(msg.Payload)
	}
}

func (w *StatsWorker) markStale(accountID string) {
	if accountID == "" {
		return
	}
	w.mu.Lock()
	w.stale[accountID] = struct{}{}
	w.mu.Unlock()
}

// drainStale recomputes every account marked stale since the last drain.
// Marks are taken before recomputation so a notification arriving mid-run
// is not lost.
func (w *StatsWorker) drainStale() {
	w.mu.Lock()
	if len(w.stale) == 0 {
		w.mu.Unlock()
		return
	}
	pending := w.stale
	w.stale = make(map[string]struct{})
	w.mu.Unlock()

	for accountID := range pending {
		if err := w.statsService.Recompute(accountID); err != nil {
			middleware.LogError("Stats worker: recompute failed for account %s: %v", accountID, err)
			w.markStale(accountID)
		}
	}
}

// fullSweep recomputes every account with recorded executions.
func (w *StatsWorker) fullSweep() {
	accounts, err := w.execRepo.DistinctAccountIDs()
	if err != nil {
		middleware.LogError("Stats worker: failed to list accounts: %v", err)
		return
	}
	for _, accountID := range accounts {
		if err := w.statsService.Recompute(accountID); err != nil {
			middleware.LogError("Stats worker: sweep recompute failed for account %s: %v", accountID, err)
		}
	}
}
