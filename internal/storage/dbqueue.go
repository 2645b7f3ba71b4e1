package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrQueueClosed is returned for operations submitted after Close.
var ErrQueueClosed = errors.New("db queue is closed")

const (
	defaultQueueDepth = 64
	busyRetries       = 5
	busyBackoffBase   = 50 * time.Millisecond
)

// DBQueue serializes all sqlite access through a single worker goroutine,
// so concurrent bot handlers and the admin HTTP server never contend for
// the write lock.
type DBQueue struct {
	db     *sql.DB
	jobs   chan dbJob
	closed chan struct{}
}

type dbJob struct {
	ctx  context.Context
	run  func(*sql.DB) error
	done chan error
}

// NewDBQueue starts a queue worker over the given database handle.
func NewDBQueue(db *sql.DB) *DBQueue {
	return NewDBQueueDepth(db, defaultQueueDepth)
}

// NewDBQueueDepth starts a queue worker with an explicit backlog size.
func NewDBQueueDepth(db *sql.DB, depth int) *DBQueue {
	if depth < 1 {
		depth = defaultQueueDepth
	}

	q := &DBQueue{
		db:     db,
		jobs:   make(chan dbJob, depth),
		closed: make(chan struct{}),
	}
	go q.worker()

	return q
}

func (q *DBQueue) worker() {
	for {
		select {
		case job := <-q.jobs:
			if err := job.ctx.Err(); err != nil {
				job.done <- err
				continue
			}
			job.done <- q.runWithBusyRetry(job.run)
		case <-q.closed:
			return
		}
	}
}

// runWithBusyRetry re-runs the operation while sqlite reports a locked
// database, backing off linearly between attempts.
func (q *DBQueue) runWithBusyRetry(run func(*sql.DB) error) error {
	var err error
	for attempt := 1; attempt <= busyRetries; attempt++ {
		err = run(q.db)
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(busyBackoffBase * time.Duration(attempt))
	}

	return fmt.Errorf("database stayed busy after %d attempts: %w", busyRetries, err)
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// ExecuteContext runs the operation on the queue worker, honoring ctx both
// while waiting for a slot and while waiting for the result. A job whose
// context is cancelled after it started running still finishes; its result
// is discarded.
func (q *DBQueue) ExecuteContext(ctx context.Context, run func(*sql.DB) error) error {
	select {
	case <-q.closed:
		return ErrQueueClosed
	default:
	}

	job := dbJob{ctx: ctx, run: run, done: make(chan error, 1)}

	select {
	case q.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closed:
		return ErrQueueClosed
	}

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs the operation without a caller deadline.
func (q *DBQueue) Execute(run func(*sql.DB) error) error {
	return q.ExecuteContext(context.Background(), run)
}

// Close stops the worker. Jobs still waiting in the backlog are not drained.
func (q *DBQueue) Close() {
	close(q.closed)
}
