package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CareFund/internal/pkg/payment"
)

// DefaultBackfillInterval is used when no interval is configured.
const DefaultBackfillInterval = 60 * time.Minute

// sweepTimeout bounds a single backfill run.
const sweepTimeout = 5 * time.Minute

// Sweeper runs one pass of a background job.
type Sweeper interface {
	RunOnce(ctx context.Context) (payment.BackfillReport, error)
}

// Manager owns the background tasks of the application
type Manager struct {
	sweeper        Sweeper
	interval       time.Duration
	backfillTicker *time.Ticker
	stopCh         chan struct{}
	wg             sync.WaitGroup
	mu             sync.Mutex
	running        bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = NewManager(nil, DefaultBackfillInterval)
	})
	return globalManager
}

// NewManager creates a manager for the given sweeper. A non-positive interval falls back to
// DefaultBackfillInterval.
func NewManager(sweeper Sweeper, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultBackfillInterval
	}
	return &Manager{
		sweeper:  sweeper,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Configure replaces the sweeper and interval. It has no effect on a running manager.
func (m *Manager) Configure(sweeper Sweeper, interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		log.Warn("[JobQueue Manager] Configure called while running; ignored")
		return
	}
	if interval <= 0 {
		interval = DefaultBackfillInterval
	}
	m.sweeper = sweeper
	m.interval = interval
}

// Start runs the receipt backfill once and then on every tick until Stop is called.
// Without a sweeper nothing is started.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	if m.sweeper == nil {
		log.Info("[JobQueue Manager] No payment processor configured, receipt backfill disabled")
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Infof("[JobQueue Manager] Starting receipt backfill worker (interval: %s)", m.interval)

	m.backfillTicker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.backfillWorker(m.sweeper, m.backfillTicker, m.stopCh)
}

// Stop stops the background tasks and waits for the current run to finish
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}

	log.Info("[JobQueue Manager] Stopping background tasks...")
	if m.backfillTicker != nil {
		m.backfillTicker.Stop()
	}
	close(m.stopCh)
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	log.Info("[JobQueue Manager] Stopped successfully")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) backfillWorker(sweeper Sweeper, ticker *time.Ticker, stopCh chan struct{}) {
	defer m.wg.Done()

	runSweep(sweeper, stopCh)
	for {
		select {
		case <-stopCh:
			log.Info("[JobQueue Manager] Receipt backfill worker stopping")
			return
		case <-ticker.C:
			runSweep(sweeper, stopCh)
		}
	}
}

func runSweep(sweeper Sweeper, stopCh chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	// Stop cancels an in-flight sweep.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-done:
		}
	}()

	report, err := sweeper.RunOnce(ctx)
	if err != nil {
		log.Errorf("[JobQueue Manager] Receipt backfill error: %v", err)
		return
	}
	log.Debugf("[JobQueue Manager] Receipt backfill done: scanned=%d filled=%d missing=%d failed=%d",
		report.Scanned, report.Filled, report.StillMissing, report.Failed)
}
