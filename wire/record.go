// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package wire

import (
	"crypto/md5"
	"encoding/hex"
	"sort"

	"github.com/z5labs/otlplog/config"
	"github.com/z5labs/otlplog/event"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
)

// Attribute keys for optional record fields.
const (
	AttrMessageTemplateText    = "message_template.text"
	AttrMessageTemplateMD5Hash = "message_template.hash.md5"
	AttrSourceContext          = "source_context"
	AttrException              = "exception"
)

// severityNumbers maps every event level onto the OTLP severity range.
// The table is total and order preserving.
var severityNumbers = map[event.Level]logspb.SeverityNumber{
	event.LevelVerbose:     logspb.SeverityNumber_SEVERITY_NUMBER_TRACE,
	event.LevelDebug:       logspb.SeverityNumber_SEVERITY_NUMBER_DEBUG,
	event.LevelInformation: logspb.SeverityNumber_SEVERITY_NUMBER_INFO,
	event.LevelWarning:     logspb.SeverityNumber_SEVERITY_NUMBER_WARN,
	event.LevelError:       logspb.SeverityNumber_SEVERITY_NUMBER_ERROR,
	event.LevelFatal:       logspb.SeverityNumber_SEVERITY_NUMBER_FATAL,
}

// Severity maps an event level to its OTLP severity number. Levels
// outside the known range clamp to the nearest end of the table so the
// mapping stays total.
func Severity(l event.Level) logspb.SeverityNumber {
	if n, ok := severityNumbers[l]; ok {
		return n
	}
	if l < event.LevelVerbose {
		return logspb.SeverityNumber_SEVERITY_NUMBER_TRACE
	}
	return logspb.SeverityNumber_SEVERITY_NUMBER_FATAL
}

// Record translates one event into an OTLP log record. The mapping is
// deterministic: the same event and flag set always produce a
// byte-identical record. Properties whose values cannot be represented
// in the wire model are omitted.
func Record(e *event.Event, include config.IncludedData) *logspb.LogRecord {
	ts := uint64(e.Timestamp.UnixNano())
	rec := &logspb.LogRecord{
		TimeUnixNano:         ts,
		ObservedTimeUnixNano: ts,
		SeverityNumber:       Severity(e.Level),
		SeverityText:         e.Level.String(),
		Body:                 &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: body(e, include)}},
		Attributes:           attributes(e, include),
	}
	if include.Has(config.IncludeTraceID) && e.TraceID.IsValid() {
		rec.TraceId = e.TraceID[:]
	}
	if include.Has(config.IncludeSpanID) && e.SpanID.IsValid() {
		rec.SpanId = e.SpanID[:]
	}
	return rec
}

func body(e *event.Event, include config.IncludedData) string {
	if include.Has(config.IncludeRenderedMessage) && e.RenderedMessage != "" {
		return e.RenderedMessage
	}
	return e.MessageTemplate
}

// attributes builds the record attribute list: one entry per convertible
// property, in sorted key order, followed by the flag-gated fields in a
// fixed order.
func attributes(e *event.Event, include config.IncludedData) []*commonpb.KeyValue {
	keys := make([]string, 0, len(e.Properties))
	for k := range e.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]*commonpb.KeyValue, 0, len(keys)+4)
	for _, k := range keys {
		v, ok := AnyValue(e.Properties[k])
		if !ok {
			continue
		}
		attrs = append(attrs, &commonpb.KeyValue{Key: k, Value: v})
	}

	if include.Has(config.IncludeSourceContext) && e.SourceContext != "" {
		attrs = append(attrs, stringAttr(AttrSourceContext, e.SourceContext))
	}
	if include.Has(config.IncludeMessageTemplateText) && e.MessageTemplate != "" {
		attrs = append(attrs, stringAttr(AttrMessageTemplateText, e.MessageTemplate))
	}
	if include.Has(config.IncludeMessageTemplateMD5Hash) && e.MessageTemplate != "" {
		sum := md5.Sum([]byte(e.MessageTemplate))
		attrs = append(attrs, stringAttr(AttrMessageTemplateMD5Hash, hex.EncodeToString(sum[:])))
	}
	if include.Has(config.IncludeException) && e.Exception != nil {
		attrs = append(attrs, exceptionAttr(e.Exception))
	}
	return attrs
}

func stringAttr(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{
		Key:   key,
		Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: value}},
	}
}

// exceptionAttr groups the exception fields into a single structured
// attribute. Empty fields are left out.
func exceptionAttr(ex *event.Exception) *commonpb.KeyValue {
	values := make([]*commonpb.KeyValue, 0, 3)
	if ex.Type != "" {
		values = append(values, stringAttr("type", ex.Type))
	}
	if ex.Message != "" {
		values = append(values, stringAttr("message", ex.Message))
	}
	if ex.StackTrace != "" {
		values = append(values, stringAttr("stacktrace", ex.StackTrace))
	}
	return &commonpb.KeyValue{
		Key: AttrException,
		Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_KvlistValue{
			KvlistValue: &commonpb.KeyValueList{Values: values},
		}},
	}
}
