// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies an export failure.
type Kind int

const (
	// KindUnreachable means the collector could not be reached at all,
	// e.g. connection refused or DNS failure.
	KindUnreachable Kind = iota + 1

	// KindRejected means the collector rejected the request outright,
	// e.g. a malformed payload or failed authentication. Retrying the
	// same batch will not help.
	KindRejected

	// KindUnavailable means the collector is temporarily unable to
	// accept the batch. Callers may retry.
	KindUnavailable

	// KindTimeout means the export call exceeded its deadline.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Retryable reports whether a failure of this kind may succeed
// if the same batch is exported again.
func (k Kind) Retryable() bool {
	return k == KindUnavailable || k == KindTimeout
}

// Error is a classified export failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrClosed is returned by Export after the exporter has been closed.
var ErrClosed = errors.New("transport: exporter is closed")

// isConnError reports whether err stems from failing to establish a
// network connection rather than from the remote end. grpc status errors
// do not wrap the underlying net error, they carry the dial or resolver
// failure only in the status message, so the message prefixes are
// matched as a fallback.
func isConnError(err error) bool {
	var addrErr *net.AddrError
	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &addrErr) || errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return true
	}
	msg := status.Convert(err).Message()
	return strings.HasPrefix(msg, "connection error") ||
		strings.HasPrefix(msg, "name resolver error") ||
		strings.Contains(msg, "produced zero addresses")
}

// classifyGRPC maps a gRPC call error onto the transport error taxonomy.
// The retryable status codes follow the OTLP specification.
func classifyGRPC(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	switch status.Code(err) {
	case codes.DeadlineExceeded:
		return &Error{Kind: KindTimeout, Err: err}
	case codes.Unavailable:
		if isConnError(err) {
			return &Error{Kind: KindUnreachable, Err: err}
		}
		return &Error{Kind: KindUnavailable, Err: err}
	case codes.Canceled, codes.ResourceExhausted, codes.Aborted, codes.OutOfRange, codes.DataLoss:
		return &Error{Kind: KindUnavailable, Err: err}
	default:
		return &Error{Kind: KindRejected, Err: err}
	}
}

// classifyHTTPError maps a request error (no response received) onto the
// taxonomy.
func classifyHTTPError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindUnreachable, Err: err}
}

// classifyStatusCode maps a non-2xx HTTP response onto the taxonomy.
// 429 and all 5xx responses are transient; every other rejection is
// final.
func classifyStatusCode(code int, body string) *Error {
	err := fmt.Errorf("collector responded with status %d: %s", code, body)
	if code == http.StatusTooManyRequests || code >= 500 {
		return &Error{Kind: KindUnavailable, Err: err}
	}
	return &Error{Kind: KindRejected, Err: err}
}
