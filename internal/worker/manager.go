package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// Manager orchestrates worker goroutines that consume the blog event stream.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start begins the worker goroutines.
// Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	// Ensure consumer group exists
	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamBlog, queue.ConsumerGroupBlog); err != nil {
		return err
	}

	log.Info().
		Int("workers", m.workerCount).
		Str("stream", queue.StreamBlog).
		Str("group", queue.ConsumerGroupBlog).
		Msg("[Manager] Starting workers")

	// Spin up worker goroutines
	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		consumerName := consumerNameForWorker(workerID)

		m.wg.Add(1)
		go m.runWorker(workerID, consumerName)
	}

	log.Info().Int("workers", m.workerCount).Msg("[Manager] All workers started")
	return nil
}

// Stop gracefully shuts down all workers.
// Blocks until all workers have finished.
func (m *Manager) Stop() {
	log.Info().Msg("[Manager] Stopping workers...")
	m.cancel()
	m.wg.Wait()
	log.Info().Msg("[Manager] All workers stopped")
}

// runWorker is the main loop for a single worker goroutine.
func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	log.Info().Int("worker", workerID).Str("consumer", consumerName).Msg("[Worker] Started")

	// First, process any pending messages from previous runs (crash recovery)
	m.processPending(workerID, consumerName)

	// Main loop: read and process new messages
	for {
		select {
		case <-m.ctx.Done():
			log.Info().Int("worker", workerID).Msg("[Worker] Shutting down")
			return
		default:
			m.processMessages(workerID, consumerName)
		}
	}
}

// processPending handles messages that were delivered but not acknowledged.
func (m *Manager) processPending(workerID int, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamBlog, queue.ConsumerGroupBlog, consumerName, m.batchSize)
		if err != nil {
			log.Error().Err(err).Int("worker", workerID).Msg("[Worker] Error reading pending")
			return
		}

		if len(messages) == 0 {
			return
		}

		log.Info().Int("worker", workerID).Int("count", len(messages)).Msg("[Worker] Processing pending messages")
		m.handleMessages(workerID, messages)
	}
}

// processMessages reads and handles a batch of messages.
func (m *Manager) processMessages(workerID int, consumerName string) {
	messages, err := m.consumer.Read(
		m.ctx,
		queue.StreamBlog,
		queue.ConsumerGroupBlog,
		consumerName,
		m.batchSize,
		m.blockTime,
	)

	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Int("worker", workerID).Msg("[Worker] Error reading")
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	if len(messages) == 0 {
		return // Timeout, no messages
	}

	log.Debug().Int("worker", workerID).Int("count", len(messages)).Msg("[Worker] Received messages")
	m.handleMessages(workerID, messages)
}

// handleMessages processes a batch of messages and acknowledges them.
func (m *Manager) handleMessages(workerID int, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			// Cache maintenance failures are not retried; the TTL bounds staleness.
			log.Error().Err(err).Int("worker", workerID).Str("msg", msg.ID).Str("type", msg.Event.Type).Msg("[Worker] Handler error")
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamBlog, queue.ConsumerGroupBlog, msg.ID); err != nil {
			log.Error().Err(err).Int("worker", workerID).Str("msg", msg.ID).Msg("[Worker] ACK error")
		}
	}
}

// consumerNameForWorker generates a unique consumer name for each worker.
func consumerNameForWorker(workerID int) string {
	return "worker-" + strconv.Itoa(workerID)
}
