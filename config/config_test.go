// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"testing"
	"time"

	"github.com/z5labs/otlplog/event"

	"github.com/stretchr/testify/require"
)

// noEnv is a lookup for a process with no OTLP variables set.
func noEnv(string) (string, bool) {
	return "", false
}

func TestNew(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the endpoint is not an absolute uri", func(t *testing.T) {
			_, err := New(
				Endpoint("collector:4317/no/scheme"),
				EnvLookup(noEnv),
			)
			require.ErrorIs(t, err, ErrInvalidEndpoint)
		})

		t.Run("if the endpoint does not parse", func(t *testing.T) {
			_, err := New(
				Endpoint("http://collector:port"),
				EnvLookup(noEnv),
			)
			require.ErrorIs(t, err, ErrInvalidEndpoint)
		})

		t.Run("if the protocol is not part of the enum", func(t *testing.T) {
			_, err := New(
				WithProtocol(Protocol("udp")),
				EnvLookup(noEnv),
			)
			require.ErrorIs(t, err, ErrInvalidProtocol)
		})
	})

	t.Run("will apply defaults", func(t *testing.T) {
		t.Run("if no options are given", func(t *testing.T) {
			cfg, err := New(EnvLookup(noEnv))
			require.Nil(t, err)

			require.Equal(t, ProtocolGRPC, cfg.Protocol)
			require.Equal(t, DefaultGRPCEndpoint, cfg.Endpoint)
			require.Equal(t, DefaultTimeout, cfg.Timeout)
			require.Equal(t, DefaultIncludedData, cfg.IncludedData)
			require.Equal(t, event.LevelVerbose, cfg.MinimumLevel)
			require.NotNil(t, cfg.Headers)
		})

		t.Run("if an http protocol is selected", func(t *testing.T) {
			cfg, err := New(
				WithProtocol(ProtocolHTTPProtobuf),
				EnvLookup(noEnv),
			)
			require.Nil(t, err)
			require.Equal(t, DefaultHTTPEndpoint, cfg.Endpoint)
		})
	})

	t.Run("will apply explicit options", func(t *testing.T) {
		t.Run("if all of them are given", func(t *testing.T) {
			var sw event.LevelVar
			cfg, err := New(
				Endpoint("https://collector.example.com:4318"),
				WithProtocol(ProtocolHTTPJSON),
				Header("authorization", "Bearer abc"),
				Header("x-tenant", "payments"),
				Timeout(3*time.Second),
				ResourceAttribute("service.name", "checkout"),
				ResourceAttribute("host", 42),
				WithIncludedData(IncludeTraceID|IncludeRenderedMessage),
				MinimumLevel(event.LevelWarning),
				LevelSwitch(&sw),
				EnvLookup(noEnv),
			)
			require.Nil(t, err)

			require.Equal(t, "https://collector.example.com:4318", cfg.Endpoint)
			require.Equal(t, ProtocolHTTPJSON, cfg.Protocol)
			require.Equal(t, map[string]string{"authorization": "Bearer abc", "x-tenant": "payments"}, cfg.Headers)
			require.Equal(t, 3*time.Second, cfg.Timeout)
			require.Equal(t, map[string]any{"service.name": "checkout", "host": 42}, cfg.ResourceAttributes)
			require.True(t, cfg.IncludedData.Has(IncludeTraceID))
			require.True(t, cfg.IncludedData.Has(IncludeRenderedMessage))
			require.False(t, cfg.IncludedData.Has(IncludeSpanID))
			require.Equal(t, event.LevelWarning, cfg.MinimumLevel)
			require.Equal(t, &sw, cfg.LevelSwitch)
		})

		t.Run("if the same header key is set twice", func(t *testing.T) {
			cfg, err := New(
				Header("authorization", "Bearer old"),
				Header("authorization", "Bearer new"),
				EnvLookup(noEnv),
			)
			require.Nil(t, err)
			require.Equal(t, "Bearer new", cfg.Headers["authorization"])
		})
	})
}

func TestIncludedData_Has(t *testing.T) {
	d := IncludeTraceID | IncludeSpanID

	require.True(t, d.Has(IncludeTraceID))
	require.True(t, d.Has(IncludeSpanID))
	require.True(t, d.Has(IncludeTraceID|IncludeSpanID))
	require.False(t, d.Has(IncludeException))
	require.False(t, d.Has(IncludeTraceID|IncludeException))
}
