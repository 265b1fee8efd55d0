// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package transport owns the network channel to one OTLP collector
// endpoint. An Exporter is constructed once from a resolved config,
// exports batches of log records until closed, and classifies every
// failure so callers can tell transient conditions from final ones.
//
// The transport layer never retries on its own: retry policy belongs to
// whoever calls Export.
package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/z5labs/otlplog/config"
	"github.com/z5labs/otlplog/internal/noop"
	"github.com/z5labs/otlplog/wire"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
)

// Instrumentation scope reported with every exported batch.
const (
	scopeName    = "github.com/z5labs/otlplog"
	scopeVersion = "0.1.0"
)

// Exporter sends batches of OTLP log records to a collector.
//
// Export returns nil once the collector has accepted the batch, or a
// classified *Error. Implementations are safe for concurrent use by
// multiple goroutines; the underlying channel or client handles
// connection-level concurrency.
type Exporter interface {
	Export(ctx context.Context, records []*logspb.LogRecord) error
	Close() error
}

// New builds the Exporter selected by cfg.Protocol. The resource
// describing the emitting process is built once here and shared by every
// batch the exporter sends. Resource attribute keys whose values cannot
// be represented are dropped with one diagnostic per key.
func New(cfg *config.Config) (Exporter, error) {
	h := cfg.LogHandler
	if h == nil {
		h = noop.LogHandler{}
	}
	log := slog.New(h)

	res, dropped := wire.Resource(cfg.ResourceAttributes)
	for _, key := range dropped {
		log.Warn("dropped resource attribute with unsupported value type", slog.String("key", key))
	}

	switch cfg.Protocol {
	case config.ProtocolGRPC:
		return newGRPC(cfg, res, log)
	case config.ProtocolHTTPProtobuf, config.ProtocolHTTPJSON:
		return newHTTP(cfg, res, log)
	default:
		// config.New validates the protocol; this is unreachable for
		// configs built through it.
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProtocol, cfg.Protocol)
	}
}

// newRequest frames a batch into one OTLP export request. All records in
// a batch share the exporter's resource and instrumentation scope.
func newRequest(res *resourcepb.Resource, records []*logspb.LogRecord) *collogspb.ExportLogsServiceRequest {
	return &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{{
			Resource: res,
			ScopeLogs: []*logspb.ScopeLogs{{
				Scope: &commonpb.InstrumentationScope{
					Name:    scopeName,
					Version: scopeVersion,
				},
				LogRecords: records,
			}},
		}},
	}
}

func logPartialSuccess(log *slog.Logger, rejected int64, message string) {
	if rejected <= 0 {
		return
	}
	log.Warn("collector rejected some log records",
		slog.Int64("rejected_log_records", rejected),
		slog.String("message", message),
	)
}
