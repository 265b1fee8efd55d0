// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/z5labs/otlplog/config"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// GRPC exports log batches with one unary LogsService.Export call per
// batch over a shared client connection.
type GRPC struct {
	client   collogspb.LogsServiceClient
	conn     *grpc.ClientConn
	ownsConn bool

	md      metadata.MD
	res     *resourcepb.Resource
	timeout time.Duration
	log     *slog.Logger

	closed atomic.Bool
}

func newGRPC(cfg *config.Config, res *resourcepb.Resource, log *slog.Logger) (*GRPC, error) {
	conn := cfg.GRPCConn
	ownsConn := false
	if conn == nil {
		target, creds, err := grpcTarget(cfg.Endpoint)
		if err != nil {
			return nil, err
		}
		conn, err = grpc.NewClient(target, grpc.WithTransportCredentials(creds))
		if err != nil {
			return nil, fmt.Errorf("transport: failed to create grpc channel to %s: %w", target, err)
		}
		ownsConn = true
	}

	md := metadata.New(nil)
	for k, v := range cfg.Headers {
		md.Set(k, v)
	}

	return &GRPC{
		client:   collogspb.NewLogsServiceClient(conn),
		conn:     conn,
		ownsConn: ownsConn,
		md:       md,
		res:      res,
		timeout:  cfg.Timeout,
		log:      log,
	}, nil
}

// grpcTarget reduces an endpoint URI to the host:port form grpc.NewClient
// expects and picks transport credentials from the scheme.
func grpcTarget(endpoint string) (string, credentials.TransportCredentials, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", nil, fmt.Errorf("transport: failed to parse endpoint %q: %w", endpoint, err)
	}
	creds := credentials.TransportCredentials(insecure.NewCredentials())
	if u.Scheme == "https" {
		creds = credentials.NewTLS(&tls.Config{})
	}
	return u.Host, creds, nil
}

// Export sends one batch. The call is bounded by the configured timeout
// and headers travel as call metadata.
func (e *GRPC) Export(ctx context.Context, records []*logspb.LogRecord) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if e.md.Len() > 0 {
		ctx = metadata.NewOutgoingContext(ctx, e.md)
	}

	resp, err := e.client.Export(ctx, newRequest(e.res, records))
	if err != nil {
		return classifyGRPC(err)
	}
	if ps := resp.GetPartialSuccess(); ps != nil {
		logPartialSuccess(e.log, ps.GetRejectedLogRecords(), ps.GetErrorMessage())
	}
	return nil
}

// Close releases the channel. Only a channel the exporter dialed itself
// is closed; caller-supplied connections stay open. Closing twice is a
// no-op.
func (e *GRPC) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	if !e.ownsConn {
		return nil
	}
	return e.conn.Close()
}
