package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/glytch/internal/client/config"
	"github.com/dmitrijs2005/glytch/internal/common"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

// maxErrorBody caps how much of an error response is read for the message.
const maxErrorBody = 1 << 20

// Ensure HTTPClient implements Client at compile time.
var _ Client = (*HTTPClient)(nil)

// HTTPClient talks to the Glytch backend over HTTP/JSON.
type HTTPClient struct {
	cfg  *config.Config
	http *http.Client
	log  logging.Logger
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// NewHTTPClient builds a transport for cfg. Configuration is not validated
// here: every call validates it, so a misconfigured client fails per call
// without touching the network.
func NewHTTPClient(cfg *config.Config, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.RequestTimeout},
		log:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req and decodes a successful JSON body into out.
func (c *HTTPClient) Do(ctx context.Context, req Request, out any) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	path := req.Path
	if !req.Direct {
		proxied, err := ProxyPath(req.Path)
		if err != nil {
			return err
		}
		path = proxied
	}
	endpoint := c.cfg.APIBaseURL + path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", common.ContentTypeJSON)
	httpReq.Header.Set(common.ContentTypeHeaderName, contentType)
	if req.AccessToken != "" {
		httpReq.Header.Set(common.AuthorizationHeaderName, "Bearer "+req.AccessToken)
	}
	if req.Prefer != "" {
		httpReq.Header.Set(common.PreferHeaderName, req.Prefer)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "backend request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, data, req.Direct, req.FailureMessage)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", common.ErrUnexpectedResponse, path, err)
	}
	return nil
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.RawBody != nil {
		ct := strings.TrimSpace(req.ContentType)
		if ct == "" {
			ct = "application/octet-stream"
		}
		return req.RawBody, ct, nil
	}
	if req.Body == nil {
		return nil, common.ContentTypeJSON, nil
	}
	b, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(b), common.ContentTypeJSON, nil
}
