// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transport

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/z5labs/otlplog/config"

	"github.com/stretchr/testify/require"
)

type capturedRecord struct {
	level   slog.Level
	message string
	attrs   map[string]slog.Value
}

// captureHandler records every log emitted through it so tests can assert
// on the exporter's diagnostics.
type captureHandler struct {
	mu      sync.Mutex
	records []capturedRecord
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *captureHandler) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]slog.Value)
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, capturedRecord{
		level:   rec.Level,
		message: rec.Message,
		attrs:   attrs,
	})
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

func (h *captureHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *captureHandler) captured() []capturedRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]capturedRecord(nil), h.records...)
}

func TestNew(t *testing.T) {
	t.Run("will build a grpc exporter", func(t *testing.T) {
		t.Run("if the protocol is grpc", func(t *testing.T) {
			cfg, err := config.New(config.IgnoreEnvironment())
			require.NoError(t, err)

			e, err := New(cfg)
			require.NoError(t, err)
			defer e.Close()

			require.IsType(t, &GRPC{}, e)
		})
	})

	t.Run("will build an http exporter", func(t *testing.T) {
		t.Run("if the protocol is http/protobuf", func(t *testing.T) {
			cfg, err := config.New(
				config.WithProtocol(config.ProtocolHTTPProtobuf),
				config.IgnoreEnvironment(),
			)
			require.NoError(t, err)

			e, err := New(cfg)
			require.NoError(t, err)
			defer e.Close()

			require.IsType(t, &HTTP{}, e)
		})

		t.Run("if the protocol is http/json", func(t *testing.T) {
			cfg, err := config.New(
				config.WithProtocol(config.ProtocolHTTPJSON),
				config.IgnoreEnvironment(),
			)
			require.NoError(t, err)

			e, err := New(cfg)
			require.NoError(t, err)
			defer e.Close()

			require.IsType(t, &HTTP{}, e)
		})
	})

	t.Run("will log one diagnostic per dropped resource attribute", func(t *testing.T) {
		t.Run("if resource attribute values cannot be represented", func(t *testing.T) {
			h := &captureHandler{}

			cfg, err := config.New(
				config.WithProtocol(config.ProtocolHTTPProtobuf),
				config.ResourceAttribute("service.name", "checkout"),
				config.ResourceAttribute("service.tags", []any{"a", "b"}),
				config.ResourceAttribute("service.meta", map[string]any{"env": "prod"}),
				config.LogHandler(h),
				config.IgnoreEnvironment(),
			)
			require.NoError(t, err)

			e, err := New(cfg)
			require.NoError(t, err)
			defer e.Close()

			records := h.captured()
			require.Len(t, records, 2)

			keys := make([]string, 0, len(records))
			for _, rec := range records {
				require.Equal(t, slog.LevelWarn, rec.level)
				keys = append(keys, rec.attrs["key"].String())
			}
			require.ElementsMatch(t, []string{"service.tags", "service.meta"}, keys)
		})
	})
}
