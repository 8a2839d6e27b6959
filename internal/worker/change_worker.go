// Package worker consumes record change events and keeps derived budget
// data in sync.
package worker

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/records"
)

// Recomputer is the part of services.SpentSync the worker drives.
type Recomputer interface {
	HandleChange(ctx context.Context, c records.Change) error
	RecomputeAll(ctx context.Context) (int, error)
}

// Consumer delivers change events until ctx ends or the connection drops.
type Consumer interface {
	ConsumeRecordChanges(ctx context.Context, handler amqp.ChangeHandler) error
}

// ChangeWorker applies change events to budget spent amounts.
type ChangeWorker struct {
	sync     Recomputer
	consumer Consumer
	logger   *log.Logger

	backoff func(attempt int) time.Duration
	// stableAfter resets the reconnect backoff once a consume session lasted
	// this long.
	stableAfter time.Duration
}

func NewChangeWorker(sync Recomputer, consumer Consumer, logger *log.Logger) *ChangeWorker {
	return &ChangeWorker{
		sync:        sync,
		consumer:    consumer,
		logger:      logger.WithComponent(log.ComponentWorker),
		backoff:     amqp.ExponentialBackoff,
		stableAfter: time.Minute,
	}
}

// HandleChange processes a single change event from AMQP
func (w *ChangeWorker) HandleChange(ctx context.Context, c records.Change) error {
	w.logger.InfoContext(ctx, "Processing record change",
		log.FieldEntity, c.Entity,
		log.FieldRecordID, c.ID,
		log.FieldOperation, string(c.Op))
	return w.sync.HandleChange(ctx, c)
}

// StartupRecompute brings every budget up to date before consuming, which
// covers events missed while the worker was down.
func (w *ChangeWorker) StartupRecompute(ctx context.Context) error {
	updated, err := w.sync.RecomputeAll(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Startup recompute failed", log.FieldError, err, log.FieldCount, updated)
		return err
	}
	w.logger.InfoContext(ctx, "Startup recompute completed", log.FieldCount, updated)
	return nil
}

// Run consumes change events until ctx is cancelled, reconnecting with
// exponential backoff whenever the consumer stops.
func (w *ChangeWorker) Run(ctx context.Context) error {
	attempt := 0
	for {
		started := time.Now()
		err := w.consumer.ConsumeRecordChanges(ctx, w.HandleChange)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("consumer stopped")
		}
		if time.Since(started) >= w.stableAfter {
			attempt = 0
		}
		delay := w.backoff(attempt)
		w.logger.WarnContext(ctx, "Change consumer stopped, reconnecting",
			log.FieldError, err, "attempt", attempt+1, "backoff", delay)
		attempt++

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}
