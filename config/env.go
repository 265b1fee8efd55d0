// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Standard OTLP exporter environment variables. The logs-specific
// variable always wins over its general counterpart.
const (
	envEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envLogsEndpoint = "OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"
	envProtocol     = "OTEL_EXPORTER_OTLP_PROTOCOL"
	envLogsProtocol = "OTEL_EXPORTER_OTLP_LOGS_PROTOCOL"
	envHeaders      = "OTEL_EXPORTER_OTLP_HEADERS"
	envLogsHeaders  = "OTEL_EXPORTER_OTLP_LOGS_HEADERS"
	envTimeout      = "OTEL_EXPORTER_OTLP_TIMEOUT"
	envLogsTimeout  = "OTEL_EXPORTER_OTLP_LOGS_TIMEOUT"
)

// overlayEnv merges recognized OTLP environment variables onto fields the
// caller did not set explicitly. Malformed values are ignored and the
// prior value stands; configuration never fails because of the
// environment.
func overlayEnv(cfg *Config, lookup func(string) (string, bool)) {
	if !cfg.explicit.endpoint {
		if v, ok := firstOf(lookup, envLogsEndpoint, envEndpoint); ok {
			if v = strings.TrimSpace(v); validEndpoint(v) {
				cfg.Endpoint = v
			}
		}
	}

	if !cfg.explicit.protocol {
		if v, ok := firstOf(lookup, envLogsProtocol, envProtocol); ok {
			if p := Protocol(strings.TrimSpace(v)); p.valid() {
				cfg.Protocol = p
			}
		}
	}

	if !cfg.explicit.headers {
		// General headers first so logs-specific pairs overwrite
		// them on key collision.
		headers := make(map[string]string)
		if v, ok := lookup(envHeaders); ok {
			parseHeaders(v, headers)
		}
		if v, ok := lookup(envLogsHeaders); ok {
			parseHeaders(v, headers)
		}
		if len(headers) > 0 {
			cfg.Headers = headers
		}
	}

	if !cfg.explicit.timeout {
		if v, ok := firstOf(lookup, envLogsTimeout, envTimeout); ok {
			// Values are in milliseconds per the OTLP spec.
			if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && ms > 0 {
				cfg.Timeout = time.Duration(ms) * time.Millisecond
			}
		}
	}
}

func firstOf(lookup func(string) (string, bool), names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// parseHeaders parses a comma separated list of key=value pairs into dst.
// Later pairs overwrite earlier ones on key collision. Pairs without an
// "=" are skipped. Values are URL-decoded per the OTLP spec.
func parseHeaders(s string, dst map[string]string) {
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" {
			continue
		}
		if decoded, err := url.QueryUnescape(v); err == nil {
			v = decoded
		}
		dst[k] = v
	}
}
