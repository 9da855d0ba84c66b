package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const fhirJSON = "application/fhir+json"

// ErrClientClosed is returned by Search after Close.
var ErrClientClosed = errors.New("fhir client closed")

// Client is the shared connection handle to the FHIR server. The underlying
// HTTP client is created on first use and is safe for concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration

	mu        sync.Mutex
	http      *http.Client
	transport *http.Transport
	closed    bool
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (c *Client) httpClient() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if c.http == nil {
		c.transport = http.DefaultTransport.(*http.Transport).Clone()
		c.transport.MaxIdleConnsPerHost = 16
		c.http = &http.Client{Timeout: c.timeout, Transport: c.transport}
	}
	return c.http, nil
}

// Close releases idle connections. Further searches fail with ErrClientClosed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
}

// Search runs GET /{resourceType}?params and returns the bundle's resources.
func (c *Client) Search(ctx context.Context, resourceType string, params url.Values) ([]Resource, error) {
	client, err := c.httpClient()
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(resourceType), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", fhirJSON)
	req.Header.Set("Content-Type", fhirJSON)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fhir request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fhir error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var bundle Bundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	resources := make([]Resource, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		resources = append(resources, entry.Resource)
	}
	return resources, nil
}
