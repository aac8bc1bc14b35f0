package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PerpGateway/internal/observability"

	"github.com/rs/zerolog"
)

// Output is one orchestrator state transition bound for Postgres: the
// notification event, the journal entries it produced and any order
// state changes.
type Output struct {
	Event    EventRow
	Journals []JournalRow
	Orders   []OrderRow
}

// Worker drains the persist channel and batch-writes to Postgres.
// Sends into the channel are blocking, so a stalled worker stalls the
// orchestrator rather than losing writes.
type Worker struct {
	writer       *GatewayWriter
	inputChan    <-chan Output
	batchSize    int
	flushTimeout time.Duration
	metrics      *observability.Metrics
	log          zerolog.Logger
}

func NewWorker(
	db *sql.DB,
	inputChan <-chan Output,
	batchSize int,
	flushTimeout time.Duration,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		writer:       NewGatewayWriter(db),
		inputChan:    inputChan,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		metrics:      metrics,
		log:          log,
	}
}

type workerBatch struct {
	events   []EventRow
	journals []JournalRow
	orders   []OrderRow
}

func (b *workerBatch) add(out Output) {
	b.events = append(b.events, out.Event)
	b.journals = append(b.journals, out.Journals...)
	b.orders = append(b.orders, out.Orders...)
}

func (b *workerBatch) reset() {
	b.events = b.events[:0]
	b.journals = b.journals[:0]
	b.orders = b.orders[:0]
}

// Run batches incoming outputs and flushes when the batch is full or
// the flush timeout expires. Blocks until ctx is cancelled or the
// input channel closes.
func (w *Worker) Run(ctx context.Context) error {
	batch := &workerBatch{
		events:   make([]EventRow, 0, w.batchSize),
		journals: make([]JournalRow, 0, w.batchSize*2),
		orders:   make([]OrderRow, 0, w.batchSize),
	}

	timer := time.NewTimer(w.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch.events) > 0 {
				if err := w.flush(context.Background(), batch); err != nil {
					w.log.Error().Err(err).Msg("final flush failed")
				}
			}
			return ctx.Err()

		case out, ok := <-w.inputChan:
			if !ok {
				if len(batch.events) > 0 {
					if err := w.flush(context.Background(), batch); err != nil {
						w.log.Error().Err(err).Msg("final flush failed")
					}
				}
				return nil
			}

			batch.add(out)
			if len(batch.events) >= w.batchSize {
				if err := w.flushWithRetry(ctx, batch); err != nil {
					w.log.Error().Err(err).Msg("batch flush failed after retries")
				}
				batch.reset()
				timer.Reset(w.flushTimeout)
			}

		case <-timer.C:
			if len(batch.events) > 0 {
				if err := w.flushWithRetry(ctx, batch); err != nil {
					w.log.Error().Err(err).Msg("timeout flush failed after retries")
				}
				batch.reset()
			}
			timer.Reset(w.flushTimeout)
		}
	}
}

// flushWithRetry retries with exponential backoff until the write
// succeeds or the context is cancelled. The worker never drops a batch.
func (w *Worker) flushWithRetry(ctx context.Context, batch *workerBatch) error {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			w.log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Int("events", len(batch.events)).
				Msg("persistence retry")
			select {
			case <-ctx.Done():
				// one final attempt with a background context so the
				// batch survives shutdown
				if err := w.flush(context.Background(), batch); err != nil {
					return fmt.Errorf("final flush on shutdown failed: %w", err)
				}
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		err := w.flush(ctx, batch)
		if err == nil {
			if attempt > 0 {
				w.log.Info().Int("retries", attempt).Msg("persistence flush recovered")
			}
			return nil
		}

		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("retry").Inc()
		}
	}
}

func (w *Worker) flush(ctx context.Context, batch *workerBatch) error {
	start := time.Now()

	tx, err := w.writer.db.BeginTx(ctx, nil)
	if err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("tx_begin").Inc()
		}
		return err
	}
	defer tx.Rollback()

	if err := w.writer.WriteEventBatch(ctx, tx, batch.events); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_events").Inc()
		}
		return err
	}
	if err := w.writer.WriteJournalBatch(ctx, tx, batch.journals); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_journals").Inc()
		}
		return err
	}
	if err := w.writer.WriteOrderBatch(ctx, tx, batch.orders); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_orders").Inc()
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("tx_commit").Inc()
		}
		return err
	}

	if w.metrics != nil {
		w.metrics.PersistBatchDur.Observe(time.Since(start).Seconds())
		w.metrics.PersistBatchSize.Observe(float64(len(batch.events)))
		w.metrics.PersistEventsWritten.Add(float64(len(batch.events)))
		w.metrics.PersistJournalsWritten.Add(float64(len(batch.journals)))
	}

	return nil
}
