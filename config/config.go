// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config resolves the effective export configuration for an OTLP
// log sink from explicit options overlaid with the standard OTLP exporter
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/z5labs/otlplog/event"

	"google.golang.org/grpc"
)

// Protocol selects the transport used to reach the collector.
type Protocol string

const (
	ProtocolGRPC         Protocol = "grpc"
	ProtocolHTTPProtobuf Protocol = "http/protobuf"
	ProtocolHTTPJSON     Protocol = "http/json"
)

func (p Protocol) valid() bool {
	switch p {
	case ProtocolGRPC, ProtocolHTTPProtobuf, ProtocolHTTPJSON:
		return true
	default:
		return false
	}
}

// IsHTTP reports whether the protocol rides on plain HTTP requests.
func (p Protocol) IsHTTP() bool {
	return p == ProtocolHTTPProtobuf || p == ProtocolHTTPJSON
}

// IncludedData selects which optional fields are attached to each
// exported log record.
type IncludedData uint16

const (
	// IncludeTraceID copies the ambient trace id onto the record.
	IncludeTraceID IncludedData = 1 << iota

	// IncludeSpanID copies the ambient span id onto the record.
	IncludeSpanID

	// IncludeMessageTemplateText attaches the raw message template
	// as the message_template.text attribute.
	IncludeMessageTemplateText

	// IncludeMessageTemplateMD5Hash attaches an MD5 hash of the message
	// template as the message_template.hash.md5 attribute.
	IncludeMessageTemplateMD5Hash

	// IncludeRenderedMessage uses the rendered message, rather than the
	// raw template, as the record body.
	IncludeRenderedMessage

	// IncludeSourceContext attaches the logger name as the
	// source_context attribute.
	IncludeSourceContext

	// IncludeException attaches exception details as a single structured
	// exception attribute group.
	IncludeException
)

// DefaultIncludedData is used when no IncludedData option is given.
const DefaultIncludedData = IncludeTraceID | IncludeSpanID | IncludeMessageTemplateText | IncludeException

// Has reports whether all bits of f are set.
func (d IncludedData) Has(f IncludedData) bool {
	return d&f == f
}

// Default collector addresses per the OTLP exporter specification.
const (
	DefaultGRPCEndpoint = "http://localhost:4317"
	DefaultHTTPEndpoint = "http://localhost:4318"

	// DefaultTimeout bounds a single export call.
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrInvalidEndpoint is returned by New when the endpoint
	// is not a syntactically valid absolute URI.
	ErrInvalidEndpoint = errors.New("config: invalid endpoint")

	// ErrInvalidProtocol is returned by New when the protocol
	// is not one of grpc, http/protobuf or http/json.
	ErrInvalidProtocol = errors.New("config: invalid protocol")
)

// Config is the resolved configuration for one exporter instance.
// It is built once by New and never modified afterwards.
type Config struct {
	Endpoint string
	Protocol Protocol
	Timeout  time.Duration

	// Headers are sent with every export call: as gRPC call metadata
	// or as HTTP request headers, depending on the protocol.
	Headers map[string]string

	// ResourceAttributes describe the emitting process. Only boolean,
	// integer, float and string values survive translation; other types
	// are dropped with a one-time diagnostic.
	ResourceAttributes map[string]any

	IncludedData IncludedData

	// MinimumLevel is the static severity threshold. Ignored when
	// LevelSwitch is set.
	MinimumLevel event.Level

	// LevelSwitch, when non-nil, supplies a live-updatable severity
	// threshold.
	LevelSwitch *event.LevelVar

	// GRPCConn, when non-nil, is used instead of dialing a new channel.
	// The caller retains ownership: Close on the exporter will not
	// close it.
	GRPCConn *grpc.ClientConn

	// HTTPClient, when non-nil, is used instead of the default client.
	HTTPClient *http.Client

	// LogHandler receives the sink's own diagnostics.
	LogHandler slog.Handler

	explicit  fieldSet
	ignoreEnv bool
	lookupEnv func(string) (string, bool)
}

// fieldSet tracks which fields were set explicitly by the caller so the
// environment overlay never overrides them.
type fieldSet struct {
	endpoint bool
	protocol bool
	headers  bool
	timeout  bool
}

// Option configures a Config.
type Option func(*Config)

// Endpoint sets the collector endpoint as an absolute URI,
// e.g. "http://collector:4318".
func Endpoint(endpoint string) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
		c.explicit.endpoint = true
	}
}

// WithProtocol selects the transport protocol.
func WithProtocol(p Protocol) Option {
	return func(c *Config) {
		c.Protocol = p
		c.explicit.protocol = true
	}
}

// Header adds one header sent with every export call. Setting the same
// key twice overwrites the earlier value.
func Header(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
		c.explicit.headers = true
	}
}

// Timeout bounds each export call.
func Timeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
		c.explicit.timeout = true
	}
}

// ResourceAttribute adds one attribute describing the emitting process.
// Non-primitive values are dropped at exporter construction, never
// reported as errors.
func ResourceAttribute(key string, value any) Option {
	return func(c *Config) {
		if c.ResourceAttributes == nil {
			c.ResourceAttributes = make(map[string]any)
		}
		c.ResourceAttributes[key] = value
	}
}

// WithIncludedData replaces the default set of optional record fields.
func WithIncludedData(d IncludedData) Option {
	return func(c *Config) {
		c.IncludedData = d
	}
}

// MinimumLevel sets the static severity threshold.
func MinimumLevel(l event.Level) Option {
	return func(c *Config) {
		c.MinimumLevel = l
	}
}

// LevelSwitch supplies a live-updatable severity threshold which takes
// precedence over MinimumLevel.
func LevelSwitch(v *event.LevelVar) Option {
	return func(c *Config) {
		c.LevelSwitch = v
	}
}

// GRPCConn supplies a preconfigured gRPC channel. The exporter will use
// it as-is and will not close it.
func GRPCConn(conn *grpc.ClientConn) Option {
	return func(c *Config) {
		c.GRPCConn = conn
	}
}

// HTTPClient supplies a preconfigured HTTP client, e.g. one built with
// the httpclient package.
func HTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// LogHandler configures the slog.Handler which receives the sink's own
// diagnostics, such as dropped batches.
func LogHandler(h slog.Handler) Option {
	return func(c *Config) {
		c.LogHandler = h
	}
}

// IgnoreEnvironment disables the OTLP environment variable overlay
// entirely.
func IgnoreEnvironment() Option {
	return func(c *Config) {
		c.ignoreEnv = true
	}
}

// EnvLookup replaces the environment variable lookup function.
// Defaults to os.LookupEnv.
func EnvLookup(lookup func(string) (string, bool)) Option {
	return func(c *Config) {
		c.lookupEnv = lookup
	}
}

// New resolves a Config from the given options and, unless disabled via
// IgnoreEnvironment, the standard OTLP exporter environment variables.
// Explicitly set fields are never overridden by the environment.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		IncludedData: DefaultIncludedData,
		lookupEnv:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.ignoreEnv {
		overlayEnv(cfg, cfg.lookupEnv)
	}

	if !cfg.explicit.protocol && cfg.Protocol == "" {
		cfg.Protocol = ProtocolGRPC
	}
	if !cfg.Protocol.valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProtocol, cfg.Protocol)
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGRPCEndpoint
		if cfg.Protocol.IsHTTP() {
			cfg.Endpoint = DefaultHTTPEndpoint
		}
	}
	if !validEndpoint(cfg.Endpoint) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, cfg.Endpoint)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	return cfg, nil
}

// validEndpoint reports whether endpoint is an absolute URI with a host.
func validEndpoint(endpoint string) bool {
	u, err := url.Parse(endpoint)
	return err == nil && u.IsAbs() && u.Host != ""
}
