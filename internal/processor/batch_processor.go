package processor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"harvesthouse/server/config"
	"harvesthouse/server/internal/database"
	"harvesthouse/server/internal/models"
	"harvesthouse/server/internal/queue"
)

// TransactionRunner is the part of *gorm.DB the processor needs; tests
// substitute a mock.
type TransactionRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor handles the processing of reservation batches
type BatchProcessor struct {
	db        TransactionRunner
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.ReservationQueue
	jobs      chan []*models.Reservation
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db TransactionRunner, queue *queue.ReservationQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		jobs:   make(chan []*models.Reservation, config.Ingest.ProcessorCount),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers a single queue subscription and spawns the worker pool.
// Every batch is handed to exactly one worker, so a ProcessorCount above
// one adds concurrency without duplicating writes.
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(func(batch []*models.Reservation) error {
		select {
		case p.jobs <- batch:
			return nil
		case <-p.ctx.Done():
			return p.ctx.Err()
		}
	})
	for i := 0; i < p.config.Ingest.ProcessorCount; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}
}

// Stop gracefully shuts down the processor
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// processLoop drains the job channel until the processor is stopped.
func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case batch := <-p.jobs:
			if err := p.processBatch(batch); err != nil {
				p.logger.Errorf("Dropping batch of %d reservations: %v", len(batch), err)
			}
		}
	}
}

// processBatch handles a single batch of reservations with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.Reservation) error {
	var err error
	for attempt := 0; attempt < p.config.Ingest.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.Ingest.MaxRetries)
			time.Sleep(time.Duration(p.config.Ingest.RetryDelay) * time.Second)
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.UpsertReservations(tx, batch); err != nil {
				return fmt.Errorf("failed to upsert reservations batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Successfully processed batch of %d reservations", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.Ingest.MaxRetries, err)
}
