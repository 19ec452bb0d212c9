package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/database"
)

// DealsRecountInterval is how often the deals sweep recomputes every agent's
// trailing twelve month deal count from completed bookings.
const DealsRecountInterval = 30 * time.Minute

// Manager manages the global job queue and background tasks
type Manager struct {
	queue       *Queue
	dealsTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		// Get worker count from settings, fallback to 5 if not available
		workerCount := 5
		if settings := getAppSettings(); settings != nil {
			workerCount = settings.GetJobQueueWorkerCount()
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
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

	// Start deals recount sweep
	m.dealsTicker = time.NewTicker(DealsRecountInterval)
	m.wg.Add(1)
	go m.dealsRecountWorker()

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

	if m.dealsTicker != nil {
		m.dealsTicker.Stop()
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

// dealsRecountWorker periodically refreshes deals_last_12m for all agents so
// co-pay eligibility checks read a current number without counting bookings
// on every request.
func (m *Manager) dealsRecountWorker() {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started deals recount worker (interval: %s)", DealsRecountInterval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Deals recount worker stopping")
			return
		case <-m.dealsTicker.C:
			if err := m.RunDealsRecountOnce(); err != nil {
				log.Errorf("[JobQueue Manager] Deals recount error: %v", err)
			}
		}
	}
}

// RunDealsRecountOnce recomputes deals_last_12m from completed bookings in a
// single statement. Exposed for a manual admin trigger.
func (m *Manager) RunDealsRecountOnce() error {
	db := database.GetDB()
	if db == nil {
		return nil
	}

	cutoff := time.Now().AddDate(-1, 0, 0)
	return db.Exec(`
		UPDATE user_settings us
		SET deals_last_12m = sub.cnt
		FROM (
			SELECT user_id, COUNT(*) AS cnt
			FROM bookings
			WHERE status = ? AND updated_at >= ? AND deleted_at IS NULL
			GROUP BY user_id
		) sub
		WHERE us.user_id = sub.user_id AND us.deals_last_12m <> sub.cnt`,
		models.BookingStatusCompleted, cutoff).Error
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// getAppSettings safely returns the current app settings
func getAppSettings() *models.AppSettings {
	return models.GetAppSettings()
}
