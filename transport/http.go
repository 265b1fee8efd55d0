// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/z5labs/otlplog/config"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const logsPath = "/v1/logs"

// HTTP exports log batches with one POST per batch, carrying either a
// binary protobuf or a JSON protobuf body depending on the configured
// sub-protocol.
type HTTP struct {
	client     *http.Client
	ownsClient bool

	url     string
	headers map[string]string
	json    bool
	res     *resourcepb.Resource
	timeout time.Duration
	log     *slog.Logger

	closed atomic.Bool
}

func newHTTP(cfg *config.Config, res *resourcepb.Resource, log *slog.Logger) (*HTTP, error) {
	u, err := logsURL(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	ownsClient := false
	if client == nil {
		client = &http.Client{}
		ownsClient = true
	}

	return &HTTP{
		client:     client,
		ownsClient: ownsClient,
		url:        u,
		headers:    cfg.Headers,
		json:       cfg.Protocol == config.ProtocolHTTPJSON,
		res:        res,
		timeout:    cfg.Timeout,
		log:        log,
	}, nil
}

// logsURL normalizes the endpoint so the request path ends in the OTLP
// logs path, preserving any path prefix the endpoint already carries.
func logsURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("transport: failed to parse endpoint %q: %w", endpoint, err)
	}
	if !strings.HasSuffix(u.Path, logsPath) {
		u.Path = strings.TrimSuffix(u.Path, "/") + logsPath
	}
	return u.String(), nil
}

// Export sends one batch as a single POST bounded by the configured
// timeout.
func (e *HTTP) Export(ctx context.Context, records []*logspb.LogRecord) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if len(records) == 0 {
		return nil
	}

	body, contentType, err := e.encode(newRequest(e.res, records))
	if err != nil {
		return &Error{Kind: KindRejected, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindRejected, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return classifyHTTPError(err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatusCode(resp.StatusCode, string(respBody))
	}

	if ps := e.decodePartialSuccess(respBody); ps != nil {
		logPartialSuccess(e.log, ps.GetRejectedLogRecords(), ps.GetErrorMessage())
	}
	return nil
}

func (e *HTTP) encode(req *collogspb.ExportLogsServiceRequest) ([]byte, string, error) {
	if e.json {
		body, err := protojson.Marshal(req)
		return body, "application/json", err
	}
	body, err := proto.Marshal(req)
	return body, "application/x-protobuf", err
}

// decodePartialSuccess best-effort decodes the export response. Bodies
// which fail to decode are ignored: the batch was accepted either way.
func (e *HTTP) decodePartialSuccess(body []byte) *collogspb.ExportLogsPartialSuccess {
	if len(body) == 0 {
		return nil
	}
	var resp collogspb.ExportLogsServiceResponse
	var err error
	if e.json {
		err = protojson.Unmarshal(body, &resp)
	} else {
		err = proto.Unmarshal(body, &resp)
	}
	if err != nil {
		return nil
	}
	return resp.GetPartialSuccess()
}

// Close releases idle connections on a client the exporter created
// itself; caller-supplied clients are left untouched. Closing twice is a
// no-op.
func (e *HTTP) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	if e.ownsClient {
		e.client.CloseIdleConnections()
	}
	return nil
}
