// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otlplog delivers structured log events to an OpenTelemetry
// Protocol (OTLP) collector over gRPC or HTTP.
//
// Two delivery disciplines are supported:
//
//   - Batched: pre-grouped batches are exported from a dedicated
//     dispatch goroutine. Transport failures are logged and the batch is
//     dropped; the emitting application is never blocked or failed by
//     the network.
//   - Audit: one event at a time, exported synchronously on the calling
//     goroutine. The call does not succeed until the collector has
//     accepted the record, and failures are returned to the caller with
//     their transport classification.
//
// Configuration is resolved once, at construction: explicit options are
// overlaid with the standard OTLP exporter environment variables
// (OTEL_EXPORTER_OTLP_ENDPOINT and friends, with the logs-specific
// variants taking precedence), validated, and frozen.
//
// # Basic usage
//
// Create a batched sink and hand batches to it from your logging
// framework's scheduler:
//
//	s, err := otlplog.NewBatched(
//		config.Endpoint("http://collector:4317"),
//		config.ResourceAttribute("service.name", "checkout"),
//	)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	s.Emit(batch)
//
// For a strict "logged means delivered" guarantee use an audit sink:
//
//	a, err := otlplog.NewAudit(
//		config.Endpoint("http://collector:4318"),
//		config.WithProtocol(config.ProtocolHTTPProtobuf),
//	)
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	err = a.Emit(ctx, e)
package otlplog
