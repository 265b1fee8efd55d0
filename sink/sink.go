// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sink implements the two delivery disciplines for exporting log
// events: Batched (asynchronous, loss tolerant) and Audit (synchronous,
// failures surfaced to the caller). Both share the same severity
// filtering and record translation; they differ only in how input
// arrives and what happens when the transport fails.
package sink

import (
	"github.com/z5labs/otlplog/config"
	"github.com/z5labs/otlplog/event"
	"github.com/z5labs/otlplog/wire"

	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
)

// pipeline is the mode-agnostic part of a sink: severity filtering and
// translation to the wire model.
type pipeline struct {
	include     config.IncludedData
	min         event.Level
	levelSwitch *event.LevelVar
}

func newPipeline(cfg *config.Config) pipeline {
	return pipeline{
		include:     cfg.IncludedData,
		min:         cfg.MinimumLevel,
		levelSwitch: cfg.LevelSwitch,
	}
}

func (p pipeline) enabled(l event.Level) bool {
	min := p.min
	if p.levelSwitch != nil {
		min = p.levelSwitch.Level()
	}
	return l >= min
}

// translate filters and converts a batch. Events below the minimum
// severity are skipped; the returned records preserve input order.
func (p pipeline) translate(events []*event.Event) []*logspb.LogRecord {
	records := make([]*logspb.LogRecord, 0, len(events))
	for _, e := range events {
		if e == nil || !p.enabled(e.Level) {
			continue
		}
		records = append(records, wire.Record(e, p.include))
	}
	return records
}
