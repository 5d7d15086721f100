package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ContentType marks request and response bodies as encoded envelopes.
const ContentType = "application/hostlink-api"

// ClientHeader carries the UI instance id so the host can route
// per-surface state.
const ClientHeader = "X-Hostlink-Client"

const unknownKindPath = "unknown"

// HTTPTransport delivers envelopes as a single POST round trip against the
// host's same-origin endpoint. The response body is the encoded response
// envelope and is handed back through the inbound callback inline.
type HTTPTransport struct {
	origin   string
	clientID string
	client   *http.Client
}

// NewHTTPTransport creates an HTTP transport for the given origin. An empty
// origin leaves the transport unavailable.
func NewHTTPTransport(origin, clientID string) *HTTPTransport {
	return &HTTPTransport{
		origin:   strings.TrimRight(origin, "/"),
		clientID: clientID,
		client:   &http.Client{},
	}
}

// Name returns the transport name
func (t *HTTPTransport) Name() string {
	return "http"
}

// Available reports whether the host advertised an endpoint origin.
func (t *HTTPTransport) Available() bool {
	return t != nil && t.origin != ""
}

// Send posts the encoded envelope to <origin>/<kind> and hands the response
// body to inbound.
func (t *HTTPTransport) Send(ctx context.Context, kind string, data []byte, inbound Inbound) error {
	path := kind
	if path == "" {
		path = unknownKindPath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.origin+"/"+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building host request: %w", err)
	}
	req.Header.Set("Content-Type", ContentType)
	if t.clientID != "" {
		req.Header.Set(ClientHeader, t.clientID)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to host: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("host returned status %s for %s", resp.Status, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading host response: %w", err)
	}
	if inbound != nil && len(body) > 0 {
		inbound(body)
	}
	return nil
}
