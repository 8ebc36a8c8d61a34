package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/internal/pkg/env"
	"github.com/quietpage/quietpage/internal/pkg/images"
	metrics "github.com/quietpage/quietpage/internal/pkg/metrics/counter"
)

// Counters accumulate in Redis and land in MySQL on this cadence.
const counterFlushInterval = 5 * time.Second

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	counterFlushTicker *time.Ticker
	sweepTicker        *time.Ticker
	sweepInterval      time.Duration
	sweepRevisions     bool
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// Initialize builds the global manager around the image service. Worker
// count and sweep cadence come from the environment: JOB_QUEUE_WORKERS
// (default 3), ORPHAN_SWEEP_INTERVAL_MINUTES (0 disables the periodic
// sweep), ORPHAN_SWEEP_CHECK_REVISIONS.
func Initialize(svc *images.Service) *Manager {
	managerOnce.Do(func() {
		workers := env.GetEnvInt("JOB_QUEUE_WORKERS", 3)
		globalManager = &Manager{
			queue:          NewQueue(workers, svc),
			sweepInterval:  time.Duration(env.GetEnvInt("ORPHAN_SWEEP_INTERVAL_MINUTES", 0)) * time.Minute,
			sweepRevisions: env.GetEnvBool("ORPHAN_SWEEP_CHECK_REVISIONS", false),
			stopCh:         make(chan struct{}),
		}
	})
	return globalManager
}

// GetManager returns the global job queue manager; nil before Initialize
func GetManager() *Manager {
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Start counter flush worker (Redis -> DB)
	m.counterFlushTicker = time.NewTicker(counterFlushInterval)
	m.wg.Add(1)
	go m.counterFlushWorker()

	// Periodic orphan sweep, disabled when no interval is configured
	if m.sweepInterval > 0 {
		m.sweepTicker = time.NewTicker(m.sweepInterval)
		m.wg.Add(1)
		go m.sweepWorker()
	}

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}
	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// counterFlushWorker periodically flushes view and thumbnail counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := m.flushCountersOnce(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// sweepWorker periodically enqueues an orphan sweep so scheduled runs go
// through the queue exactly like admin-triggered ones.
func (m *Manager) sweepWorker() {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started orphan sweep worker (interval: %s)", m.sweepInterval)
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Orphan sweep worker stopping")
			return
		case <-m.sweepTicker.C:
			if _, err := m.queue.EnqueueOrphanSweep(images.SweepableTypes, m.sweepRevisions, false); err != nil {
				log.Errorf("[JobQueue Manager] Failed to enqueue orphan sweep: %v", err)
			}
		}
	}
}

func (m *Manager) flushCountersOnce() error {
	// Flush Redis -> DB (batched CASE update)
	return metrics.FlushAll()
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
