// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlplog

import (
	"github.com/z5labs/otlplog/config"
	"github.com/z5labs/otlplog/sink"
	"github.com/z5labs/otlplog/transport"
)

// NewBatched resolves configuration, opens the transport and returns a
// running batched sink. Export failures are logged to the configured
// LogHandler and the affected batch is dropped; the emitting application
// never observes them.
func NewBatched(opts ...config.Option) (*sink.Batched, error) {
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, err
	}
	exporter, err := transport.New(cfg)
	if err != nil {
		return nil, err
	}
	return sink.NewBatched(exporter, cfg), nil
}

// NewAudit resolves configuration, opens the transport and returns an
// audit sink. Every Emit blocks until the collector accepts the record
// or the export fails, and failures propagate to the caller with their
// transport classification intact.
func NewAudit(opts ...config.Option) (*sink.Audit, error) {
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, err
	}
	exporter, err := transport.New(cfg)
	if err != nil {
		return nil, err
	}
	return sink.NewAudit(exporter, cfg), nil
}
