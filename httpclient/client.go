// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpclient builds HTTP clients suitable for handing to an OTLP
// log exporter as a caller-supplied transport handle.
//
// The exporter itself never retries: by the export contract, retry policy
// belongs to whoever owns the transport handle. This package is where
// that policy lives when a deployment wants one, as opt-in request
// retries and an opt-in circuit breaker wrapped around the standard
// http.Client.
package httpclient

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type breakerOptions struct {
	name        string
	logger      *zap.Logger
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripCount   uint32
	statusCodes []int
}

// BreakerOption configures the circuit breaker.
type BreakerOption func(*breakerOptions)

// BreakerName names the circuit breaker. The name is attached to the
// logger reporting state changes.
func BreakerName(name string) BreakerOption {
	return func(bo *breakerOptions) {
		bo.name = name
	}
}

// BreakerLogger configures where circuit state changes are logged.
func BreakerLogger(logger *zap.Logger) BreakerOption {
	return func(bo *breakerOptions) {
		bo.logger = logger
	}
}

// BreakerMaxRequests is the number of export requests allowed through
// while the breaker is half-open. Zero allows a single request.
func BreakerMaxRequests(n uint32) BreakerOption {
	return func(bo *breakerOptions) {
		bo.maxRequests = n
	}
}

// BreakerInterval is the cyclic period over which the closed breaker
// clears its failure counts. Zero keeps counts for the whole closed
// state.
func BreakerInterval(interval time.Duration) BreakerOption {
	return func(bo *breakerOptions) {
		bo.interval = interval
	}
}

// BreakerTimeout is how long the breaker stays open before moving to
// half-open.
func BreakerTimeout(timeout time.Duration) BreakerOption {
	return func(bo *breakerOptions) {
		bo.timeout = timeout
	}
}

// BreakerTripCount is the number of consecutive failures required to
// trip the circuit.
func BreakerTripCount(n uint32) BreakerOption {
	return func(bo *breakerOptions) {
		bo.tripCount = n
	}
}

// BreakerErrorOnStatusCode registers an HTTP response status code which
// the breaker counts as a failure.
//
// Default: 429, 500, 502, 503, 504 — the codes an overloaded or broken
// collector responds with.
func BreakerErrorOnStatusCode(code int) BreakerOption {
	return func(bo *breakerOptions) {
		bo.statusCodes = append(bo.statusCodes, code)
	}
}

var errStatusCode = errors.New("status code error")

// isConnFailure reports whether the request failed before reaching the
// collector at all.
func isConnFailure(err error) bool {
	var addrErr *net.AddrError
	var dnsErr *net.DNSError
	var opErr *net.OpError
	return errors.As(err, &addrErr) || errors.As(err, &dnsErr) || errors.As(err, &opErr)
}

// RoundTripperOption decorates an http.RoundTripper.
type RoundTripperOption func(http.RoundTripper) http.RoundTripper

// CircuitBreaker wraps the transport in a circuit breaker so a dead
// collector sheds export load fast instead of tying up dispatch on
// doomed requests.
func CircuitBreaker(opts ...BreakerOption) RoundTripperOption {
	return func(rt http.RoundTripper) http.RoundTripper {
		bo := &breakerOptions{
			name:        "otlp",
			logger:      zap.NewNop(),
			maxRequests: 1,
			timeout:     60 * time.Second,
			tripCount:   5,
		}
		for _, opt := range opts {
			opt(bo)
		}

		if len(bo.statusCodes) == 0 {
			bo.statusCodes = append(
				bo.statusCodes,
				http.StatusTooManyRequests,     // 429
				http.StatusInternalServerError, // 500
				http.StatusBadGateway,          // 502
				http.StatusServiceUnavailable,  // 503
				http.StatusGatewayTimeout,      // 504
			)
		}
		codes := make(map[int]struct{}, len(bo.statusCodes))
		for _, code := range bo.statusCodes {
			codes[code] = struct{}{}
		}

		log := bo.logger.Named(bo.name)

		return &breakerRoundTripper{
			RoundTripper: rt,
			cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        bo.name,
				MaxRequests: bo.maxRequests,
				Interval:    bo.interval,
				Timeout:     bo.timeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= bo.tripCount
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					switch to {
					case gobreaker.StateOpen:
						log.Error("collector circuit has been opened")
					case gobreaker.StateHalfOpen:
						log.Warn("collector circuit is half open", zap.Uint32("max_requests_allowed_through", bo.maxRequests))
					case gobreaker.StateClosed:
						log.Info("collector circuit has been closed")
					}
				},
				IsSuccessful: func(err error) bool {
					return err == nil || (!errors.Is(err, errStatusCode) && !isConnFailure(err))
				},
			}),
			onStatusCode: func(code int) error {
				if _, ok := codes[code]; !ok {
					return nil
				}
				return errStatusCode
			},
		}
	}
}

type breakerRoundTripper struct {
	http.RoundTripper
	cb           *gobreaker.CircuitBreaker
	onStatusCode func(int) error
}

func (rt *breakerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	v, err := rt.cb.Execute(func() (any, error) {
		resp, err := rt.RoundTripper.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if err := rt.onStatusCode(resp.StatusCode); err != nil {
			return resp, err
		}
		return resp, nil
	})
	if err != nil {
		if resp, ok := v.(*http.Response); ok {
			// Let status code failures flow back as responses so the
			// exporter can classify them; the breaker has already
			// counted the failure.
			return resp, nil
		}
		return nil, err
	}
	return v.(*http.Response), nil
}

// RoundTripperWith applies the given decorators, innermost first.
func RoundTripperWith(rt http.RoundTripper, opts ...RoundTripperOption) http.RoundTripper {
	for _, opt := range opts {
		rt = opt(rt)
	}
	return rt
}

type retryOptions struct {
	logger     *zap.Logger
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

// RetryOption configures request retries.
type RetryOption func(*retryOptions)

// MinWaitDuration is the minimum backoff between retry attempts.
func MinWaitDuration(min time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.waitMin = min
	}
}

// MaxWaitDuration is the maximum backoff between retry attempts.
func MaxWaitDuration(max time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.waitMax = max
	}
}

// MaxAttempts caps the number of retry attempts per export request.
func MaxAttempts(n int) RetryOption {
	return func(ro *retryOptions) {
		ro.maxRetries = n
	}
}

// RetryAttemptLogger configures where retry attempts are logged.
func RetryAttemptLogger(logger *zap.Logger) RetryOption {
	return func(ro *retryOptions) {
		ro.logger = logger
	}
}

type clientOptions struct {
	timeout      time.Duration
	transport    http.RoundTripper
	retryOptions *retryOptions
}

// ClientOption configures the client returned by New.
type ClientOption func(*clientOptions)

// ClientTimeout bounds each request end to end, including retries.
func ClientTimeout(timeout time.Duration) ClientOption {
	return func(co *clientOptions) {
		co.timeout = timeout
	}
}

// WithTransport replaces the underlying transport, e.g. one wrapped with
// CircuitBreaker via RoundTripperWith.
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(co *clientOptions) {
		co.transport = transport
	}
}

// RetryRequests enables automatic retries of failed export requests with
// exponential backoff.
func RetryRequests(opts ...RetryOption) ClientOption {
	return func(co *clientOptions) {
		ro := &retryOptions{
			logger:     zap.NewNop(),
			waitMin:    100 * time.Millisecond,
			waitMax:    5 * time.Second,
			maxRetries: 2,
		}
		for _, opt := range opts {
			opt(ro)
		}
		co.retryOptions = ro
	}
}

// New builds an *http.Client for use as a caller-supplied OTLP transport
// handle. Without options the returned client is a plain client with no
// retries, matching the exporter's own default behavior.
func New(opts ...ClientOption) *http.Client {
	co := &clientOptions{
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(co)
	}
	c := &http.Client{
		Timeout:   co.timeout,
		Transport: co.transport,
	}
	if co.retryOptions == nil {
		return c
	}

	log := co.retryOptions.logger
	rc := retryablehttp.Client{
		HTTPClient:   c,
		Logger:       nil,
		RetryWaitMin: co.retryOptions.waitMin,
		RetryWaitMax: co.retryOptions.waitMax,
		RetryMax:     co.retryOptions.maxRetries,
		RequestLogHook: func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			log.Info("sending export request", zap.String("url", req.URL.String()), zap.Int("request_attempt_count", attempt))
		},
		ResponseLogHook: func(_ retryablehttp.Logger, resp *http.Response) {
			log.Info("received export response", zap.String("url", resp.Request.URL.String()), zap.Int("http_status_code", resp.StatusCode))
		},
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return rc.StandardClient()
}
