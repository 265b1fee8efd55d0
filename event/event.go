// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package event defines the boundary representation of a structured log event
// as it arrives from a host logging framework.
//
// An Event carries a message template, an optional pre-rendered message,
// a severity level, structured properties and ambient trace correlation.
// Property values may be of any type; unsupported types are dropped during
// translation to the OTLP wire model, never reported as errors.
package event

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Event is a single structured log event.
//
// Events are value-like: once handed to a sink they must not be mutated
// by the producer.
type Event struct {
	// Timestamp is the time at which the event occurred.
	Timestamp time.Time

	// Level is the severity assigned by the host framework.
	Level Level

	// MessageTemplate is the raw message template, e.g. "started {Version}".
	MessageTemplate string

	// RenderedMessage is the template rendered with its arguments.
	// May be empty if the host framework does not render messages.
	RenderedMessage string

	// SourceContext names the logger which produced the event,
	// typically a type or package name.
	SourceContext string

	// Properties holds the event's structured properties. Values may be
	// booleans, integers, floats, strings, slices or string-keyed maps of
	// those; anything else is silently dropped at the wire boundary.
	Properties map[string]any

	// Exception describes an error attached to the event, if any.
	Exception *Exception

	// TraceID and SpanID carry ambient trace correlation. The zero value
	// means no correlation context was present.
	TraceID trace.TraceID
	SpanID  trace.SpanID
}

// Exception describes an error attached to a log event.
type Exception struct {
	Type       string
	Message    string
	StackTrace string
}
