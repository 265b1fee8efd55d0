// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"context"

	"github.com/z5labs/otlplog/config"
	"github.com/z5labs/otlplog/event"
	"github.com/z5labs/otlplog/transport"
	"github.com/z5labs/otlplog/wire"

	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
)

// Audit exports one event at a time on the calling goroutine. Emit does
// not return until the collector has accepted the record or the export
// has failed; transport failures propagate to the caller verbatim with
// their classification intact. There is no internal buffering and no
// retry.
//
// Audit is safe for concurrent use: each caller blocks independently on
// its own export call.
type Audit struct {
	exporter transport.Exporter
	pipeline
}

// NewAudit returns an Audit sink exporting through the given transport.
func NewAudit(exporter transport.Exporter, cfg *config.Config) *Audit {
	return &Audit{
		exporter: exporter,
		pipeline: newPipeline(cfg),
	}
}

// Emit synchronously exports one event. Events below the minimum
// severity are skipped and report success. A returned *transport.Error
// preserves the failure kind so callers can tell retryable conditions
// from final ones.
func (s *Audit) Emit(ctx context.Context, e *event.Event) error {
	if e == nil || !s.enabled(e.Level) {
		return nil
	}
	records := []*logspb.LogRecord{wire.Record(e, s.include)}
	return s.exporter.Export(ctx, records)
}

// Close releases the transport. Closing twice is a no-op.
func (s *Audit) Close() error {
	return s.exporter.Close()
}
