package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"harvesthouse/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// ReservationQueue is an in-memory queue of reservation batches arriving
// from the PMS feed, decoupling the sync endpoint from database writes.
type ReservationQueue struct {
	items    chan []*models.Reservation
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func([]*models.Reservation) error
}

// NewReservationQueue creates a new queue with the specified buffer size.
func NewReservationQueue(bufferSize int, logger *logrus.Logger) *ReservationQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &ReservationQueue{
		items:    make(chan []*models.Reservation, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func([]*models.Reservation) error, 0),
	}
}

// Push adds a batch of reservations to the queue.
func (q *ReservationQueue) Push(reservations []*models.Reservation) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.mu.RUnlock()

	// Non-blocking send to prevent deadlocks
	select {
	case q.items <- reservations:
		q.logger.WithField("batch_size", len(reservations)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch.
func (q *ReservationQueue) Subscribe(handler func([]*models.Reservation) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue.
func (q *ReservationQueue) Start() {
	go q.process()
}

// process handles the queue processing loop.
func (q *ReservationQueue) process() {
	for {
		select {
		case <-q.done:
			return
		case batch := <-q.items:
			q.processBatch(batch)
		}
	}
}

// processBatch sends the batch to all subscribed handlers.
func (q *ReservationQueue) processBatch(batch []*models.Reservation) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
		}
	}
}

// Close stops the queue and prevents new items from being added.
func (q *ReservationQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.done)
	close(q.items)
	return nil
}

// Len returns the current number of batches in the queue.
func (q *ReservationQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed.
func (q *ReservationQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
