// Package graphql provides a GraphQL HTTP client for communicating with the
// Harmonic GraphQL API.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jamesprial/harmonic-mcp/internal/config"
)

const (
	defaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a non-2xx body is kept on a TransportError.
	maxErrorBody = 512
)

// ErrorObserver is notified of every failed call, including calls whose data
// was returned despite GraphQL errors.
type ErrorObserver func(operation string, err error)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithErrorObserver registers fn to be called for each failed or partially
// failed Execute.
func WithErrorObserver(fn ErrorObserver) Option {
	return func(c *HTTPClient) {
		c.observer = fn
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// HTTPClient is a concrete implementation of the Client interface that sends
// GraphQL requests over HTTP using the standard library net/http package.
type HTTPClient struct {
	httpClient *http.Client
	graphqlURL string
	token      string
	headers    map[string]string
	observer   ErrorObserver
}

// NewHTTPClient constructs an HTTPClient from the provided GraphQLConfig.
// It returns an error if cfg.URL is empty. When cfg.Timeout is zero or
// negative, a default timeout of 30 seconds is used. An empty token is
// accepted at construction time but will cause Execute to return
// ErrNotConfigured.
func NewHTTPClient(cfg config.GraphQLConfig, opts ...Option) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	c := &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		graphqlURL: normalizeURL(cfg.URL),
		token:      cfg.Token,
		headers:    headers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// normalizeURL trims any trailing slash from rawURL and appends /graphql if
// the path does not already end with that suffix.
func normalizeURL(rawURL string) string {
	u := strings.TrimRight(rawURL, "/")
	if !strings.HasSuffix(u, "/graphql") {
		u += "/graphql"
	}
	return u
}

// operationURL appends the operation name as a bare query key, mirroring the
// URLs the Harmonic console issues (".../graphql?GetPersonById").
func operationURL(base, operation string) string {
	if operation == "" {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if u.RawQuery == "" {
		u.RawQuery = operation
	} else {
		u.RawQuery += "&" + operation
	}
	return u.String()
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request.
type graphqlRequest struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the JSON body shape for a GraphQL HTTP response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorEntry    `json:"errors"`
}

// hasData reports whether raw holds a non-null JSON value.
func hasData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Execute sends a GraphQL query to the configured endpoint and returns the
// raw JSON bytes of the "data" field. Variables may be nil, in which case the
// "variables" key is omitted from the request body.
//
// Execute returns:
//   - ErrNotConfigured, without any network call, when no token is set
//   - *TransportError when the request fails, the status is not 2xx, or the
//     body cannot be decoded
//   - *GraphQLError when the envelope has errors and no usable data
//
// When errors accompany usable data, the data is returned and the errors are
// only passed to the error observer.
func (c *HTTPClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	operation := OperationName(query)

	data, err := c.execute(ctx, operation, query, variables)
	if err != nil {
		c.observe(operation, err)
		return nil, err
	}
	return data, nil
}

func (c *HTTPClient) execute(ctx context.Context, operation, query string, variables map[string]any) ([]byte, error) {
	if c.token == "" {
		return nil, ErrNotConfigured
	}

	bodyBytes, err := json.Marshal(graphqlRequest{
		OperationName: operation,
		Query:         query,
		Variables:     variables,
	})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, operationURL(c.graphqlURL, operation), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: fmt.Errorf("create request: %w", err)}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TransportError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, &TransportError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	if len(gqlResp.Errors) > 0 {
		if !hasData(gqlResp.Data) {
			return nil, &GraphQLError{Operation: operation, Errors: gqlResp.Errors}
		}
		c.observe(operation, &GraphQLError{Operation: operation, Errors: gqlResp.Errors, Partial: true})
	}

	if len(gqlResp.Data) == 0 {
		return []byte("null"), nil
	}
	return []byte(gqlResp.Data), nil
}

func (c *HTTPClient) observe(operation string, err error) {
	if c.observer != nil {
		c.observer(operation, err)
	}
}
