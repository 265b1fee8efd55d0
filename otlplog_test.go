// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlplog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/z5labs/otlplog/config"
	"github.com/z5labs/otlplog/event"

	"github.com/stretchr/testify/require"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// envMap stands in for the process environment.
func envMap(vars map[string]string) config.Option {
	return config.EnvLookup(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
}

func TestNewAudit(t *testing.T) {
	t.Run("will export one json record per emit", func(t *testing.T) {
		t.Run("if the environment selects the http/json protocol", func(t *testing.T) {
			reqCh := make(chan *collogspb.ExportLogsServiceRequest, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/v1/logs", r.URL.Path)
				require.Equal(t, "application/json", r.Header.Get("Content-Type"))

				b, err := io.ReadAll(r.Body)
				require.NoError(t, err)

				var req collogspb.ExportLogsServiceRequest
				require.NoError(t, protojson.Unmarshal(b, &req))
				reqCh <- &req
			}))
			defer srv.Close()

			s, err := NewAudit(envMap(map[string]string{
				"OTEL_EXPORTER_OTLP_ENDPOINT": srv.URL,
				"OTEL_EXPORTER_OTLP_PROTOCOL": "http/json",
			}))
			require.NoError(t, err)
			defer s.Close()

			err = s.Emit(context.Background(), &event.Event{
				Timestamp:       time.Now(),
				Level:           event.LevelInformation,
				MessageTemplate: "started",
				Properties:      map[string]any{"version": "1.2"},
			})
			require.NoError(t, err)

			req := <-reqCh
			require.Len(t, req.ResourceLogs, 1)
			require.Len(t, req.ResourceLogs[0].ScopeLogs, 1)

			records := req.ResourceLogs[0].ScopeLogs[0].LogRecords
			require.Len(t, records, 1)

			rec := records[0]
			require.Equal(t, "started", rec.Body.GetStringValue())
			require.Equal(t, logspb.SeverityNumber_SEVERITY_NUMBER_INFO, rec.SeverityNumber)
			require.Equal(t, "Information", rec.SeverityText)

			attrs := make(map[string]string, len(rec.Attributes))
			for _, kv := range rec.Attributes {
				attrs[kv.Key] = kv.Value.GetStringValue()
			}
			require.Equal(t, "1.2", attrs["version"])
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the endpoint is not an absolute uri", func(t *testing.T) {
			_, err := NewAudit(
				config.Endpoint("collector:4318/no/scheme"),
				config.IgnoreEnvironment(),
			)
			require.ErrorIs(t, err, config.ErrInvalidEndpoint)
		})

		t.Run("if the protocol is unknown", func(t *testing.T) {
			_, err := NewAudit(
				config.WithProtocol("ftp"),
				config.IgnoreEnvironment(),
			)
			require.ErrorIs(t, err, config.ErrInvalidProtocol)
		})
	})
}

func TestNewBatched(t *testing.T) {
	t.Run("will export emitted batches", func(t *testing.T) {
		t.Run("if the collector accepts them", func(t *testing.T) {
			reqCh := make(chan *collogspb.ExportLogsServiceRequest, 4)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, err := io.ReadAll(r.Body)
				require.NoError(t, err)

				var req collogspb.ExportLogsServiceRequest
				require.NoError(t, protojson.Unmarshal(b, &req))
				reqCh <- &req
			}))
			defer srv.Close()

			s, err := NewBatched(
				config.Endpoint(srv.URL),
				config.WithProtocol(config.ProtocolHTTPJSON),
				config.IgnoreEnvironment(),
			)
			require.NoError(t, err)

			s.Emit([]*event.Event{
				{
					Timestamp:       time.Now(),
					Level:           event.LevelInformation,
					MessageTemplate: "started",
				},
				{
					Timestamp:       time.Now(),
					Level:           event.LevelError,
					MessageTemplate: "failed to connect",
				},
			})
			require.NoError(t, s.Close())
			require.Equal(t, uint64(1), s.Exported())

			req := <-reqCh
			records := req.ResourceLogs[0].ScopeLogs[0].LogRecords
			require.Len(t, records, 2)
			require.Equal(t, "started", records[0].Body.GetStringValue())
			require.Equal(t, "failed to connect", records[1].Body.GetStringValue())
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the configuration fails to resolve", func(t *testing.T) {
			_, err := NewBatched(
				config.Endpoint("http://collector:port"),
				config.IgnoreEnvironment(),
			)
			require.ErrorIs(t, err, config.ErrInvalidEndpoint)
		})
	})
}
