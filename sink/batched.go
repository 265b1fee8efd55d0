// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/z5labs/otlplog/config"
	"github.com/z5labs/otlplog/event"
	"github.com/z5labs/otlplog/internal/noop"
	"github.com/z5labs/otlplog/transport"

	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	"golang.org/x/sync/errgroup"
)

type batchedOptions struct {
	queueCapacity int
}

// BatchedOption configures a Batched sink.
type BatchedOption func(*batchedOptions)

// QueueCapacity sets how many translated batches may be queued for
// dispatch before Emit blocks the upstream scheduler.
//
// Default is 16.
func QueueCapacity(n uint) BatchedOption {
	return func(bo *batchedOptions) {
		if n == 0 {
			return
		}
		bo.queueCapacity = int(n)
	}
}

// Batched receives pre-grouped batches from an upstream scheduler and
// exports them from a dedicated dispatch goroutine. Transport failures
// are logged and the affected batch is dropped; they never reach the
// emitting application and no batch is retried.
type Batched struct {
	log      *slog.Logger
	exporter transport.Exporter
	pipeline

	batches chan []*logspb.LogRecord
	quit    chan struct{}
	group   *errgroup.Group

	// mu orders Emit sends against Close: an Emit holding the read
	// lock is guaranteed to enqueue before the dispatch loop drains,
	// so a batch is never lost without a diagnostic.
	mu        sync.RWMutex
	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool

	exported atomic.Uint64
	dropped  atomic.Uint64
}

// NewBatched returns a running Batched sink. The dispatch loop starts
// immediately and is stopped by Close.
func NewBatched(exporter transport.Exporter, cfg *config.Config, opts ...BatchedOption) *Batched {
	bo := &batchedOptions{
		queueCapacity: 16,
	}
	for _, opt := range opts {
		opt(bo)
	}

	h := cfg.LogHandler
	if h == nil {
		h = noop.LogHandler{}
	}

	s := &Batched{
		log:      slog.New(h),
		exporter: exporter,
		pipeline: newPipeline(cfg),
		batches:  make(chan []*logspb.LogRecord, bo.queueCapacity),
		quit:     make(chan struct{}),
		group:    new(errgroup.Group),
	}
	s.group.Go(s.dispatch)
	return s
}

// Emit queues one batch for export. It never returns an error and never
// blocks on network I/O; it may block briefly when the dispatch queue is
// full, which only stalls the upstream scheduler, not application
// threads. Batches emitted after Close are dropped.
func (s *Batched) Emit(batch []*event.Event) {
	records := s.translate(batch)
	if len(records) == 0 {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		s.dropBatch(len(records), errors.New("sink is closed"))
		return
	}
	s.batches <- records
}

func (s *Batched) dispatch() error {
	for {
		select {
		case records := <-s.batches:
			s.export(records)
		case <-s.quit:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case records := <-s.batches:
					s.export(records)
				default:
					return nil
				}
			}
		}
	}
}

func (s *Batched) export(records []*logspb.LogRecord) {
	err := s.exporter.Export(context.Background(), records)
	if err == nil {
		s.exported.Add(1)
		return
	}
	s.dropBatch(len(records), err)
}

func (s *Batched) dropBatch(n int, err error) {
	s.dropped.Add(1)
	attrs := []any{
		slog.Int("records", n),
		slog.Any("error", err),
	}
	var terr *transport.Error
	if errors.As(err, &terr) {
		attrs = append(attrs,
			slog.String("kind", terr.Kind.String()),
			slog.Bool("retryable", terr.Kind.Retryable()),
		)
	}
	s.log.Error("dropped log batch", attrs...)
}

// Exported reports how many batches have been acknowledged by the
// collector.
func (s *Batched) Exported() uint64 {
	return s.exported.Load()
}

// Dropped reports how many batches were discarded after a failure.
func (s *Batched) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops accepting batches, exports anything still queued and
// releases the transport. Closing twice is a no-op.
func (s *Batched) Close() error {
	s.closeOnce.Do(func() {
		// Wait for in-flight Emits to finish enqueueing before the
		// dispatch loop begins its final drain.
		s.mu.Lock()
		s.closed.Store(true)
		s.mu.Unlock()

		close(s.quit)
		err := s.group.Wait()
		s.closeErr = errors.Join(err, s.exporter.Close())
	})
	return s.closeErr
}
