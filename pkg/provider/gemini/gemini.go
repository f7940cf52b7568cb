package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/debug"
	"github.com/rhuss/gemini-go/pkg/observability"
	"github.com/rhuss/gemini-go/pkg/provider"
)

const apiKeyHeader = "x-goog-api-key"

// Provider implements provider.Provider for the Gemini REST API.
type Provider struct {
	cfg          Config
	client       *http.Client
	streamClient *http.Client
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a new Provider with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: APIKey is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gemini: invalid BaseURL: %w", err)
	}

	// Normalize: remove trailing slash from base URL.
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	transport := observability.InstrumentTransport(cfg.Transport)

	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		// A stream can legitimately outlive any fixed timeout; the
		// request context bounds it instead.
		streamClient: &http.Client{
			Transport: transport,
		},
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "gemini"
}

// Capabilities returns what this provider supports.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Streaming:  true,
		InlineData: true,
		FileData:   true,
		JSONSchema: true,
	}
}

// Generate posts body to models/{model}:generateContent and returns the
// response body.
func (p *Provider) Generate(ctx context.Context, model string, body []byte) ([]byte, error) {
	httpReq, err := p.newRequest(ctx, http.MethodPost, p.modelURL(model, "generateContent"), body)
	if err != nil {
		return nil, err
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, mapNetworkError(err)
	}

	debug.Log("http", "response", "status", httpResp.StatusCode, "bytes", len(data))
	if debug.TraceIsEnabled("http") {
		debug.Raw("http", string(data))
	}
	return data, nil
}

// Stream posts body to models/{model}:streamGenerateContent?alt=sse and
// returns a channel of raw chunks. The channel is closed when the stream
// completes, errors, or the context is cancelled.
func (p *Provider) Stream(ctx context.Context, model string, body []byte) (<-chan provider.StreamChunk, error) {
	u := p.modelURL(model, "streamGenerateContent") + "?alt=sse"
	httpReq, err := p.newRequest(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	httpResp, err := p.streamClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}

	// Check for error status codes before starting the stream.
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, mapHTTPError(httpResp)
	}

	ch := make(chan provider.StreamChunk, 16)

	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		parseSSEStream(ctx, httpResp.Body, ch)
	}()

	return ch, nil
}

// Close releases provider resources.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	p.streamClient.CloseIdleConnections()
	return nil
}

// modelURL builds {base}/models/{model}:{method}. A "models/" prefix on
// model is accepted and stripped.
func (p *Provider) modelURL(model, method string) string {
	model = strings.TrimPrefix(model, "models/")
	return p.cfg.BaseURL + "/models/" + url.PathEscape(model) + ":" + method
}

func (p *Provider) newRequest(ctx context.Context, method, u string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, api.NewTransportError(api.ErrorTypeServerError, "",
			fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(apiKeyHeader, p.cfg.APIKey)

	debug.Log("http", "request", "method", method, "url", u, "bytes", len(body))
	if debug.TraceIsEnabled("http") && body != nil {
		debug.Raw("http", string(body))
	}
	return httpReq, nil
}
