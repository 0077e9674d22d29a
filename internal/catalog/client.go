package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx response from the remote catalog.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog API returned status %d", e.Status)
	}

	return fmt.Sprintf("catalog API returned status %d: %s", e.Status, e.Body)
}

// Client is a typed wrapper over the remote product API.
//
// Reads degrade to an empty result on transport or parse failure (the
// error is only logged); writes always surface failure to the caller.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// List fetches the full catalog. Any failure yields an empty slice.
func (c *Client) List(ctx context.Context) []Product {
	var wires []wireProduct
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &wires); err != nil {
		slog.Warn("catalog list failed", "error", err)
		return nil
	}

	return mapProducts(wires)
}

// Search runs a server-side product search. Any failure yields an empty
// slice. Callers are expected to gate query length and debounce keystrokes
// (see Debouncer).
func (c *Client) Search(ctx context.Context, query string) []Product {
	path := "/api/products/search?q=" + url.QueryEscape(query)

	var wires []wireProduct
	if err := c.do(ctx, http.MethodGet, path, nil, &wires); err != nil {
		slog.Warn("catalog search failed", "query", query, "error", err)
		return nil
	}

	return mapProducts(wires)
}

// Create persists a new product and returns the record echoed by the
// server, including any server-assigned id.
func (c *Client) Create(ctx context.Context, draft Draft) (Product, error) {
	var wire wireProduct
	if err := c.do(ctx, http.MethodPost, "/api/products", draft.toWire(), &wire); err != nil {
		return Product{}, fmt.Errorf("creating product: %w", err)
	}

	return wire.toProduct(), nil
}

// Update replaces the product identified by key with the draft fields.
func (c *Client) Update(ctx context.Context, key Key, draft Draft) (Product, error) {
	path := "/api/products/" + key.pathSegment()

	var wire wireProduct
	if err := c.do(ctx, http.MethodPut, path, draft.toWire(), &wire); err != nil {
		return Product{}, fmt.Errorf("updating product: %w", err)
	}

	return wire.toProduct(), nil
}

// Delete removes the product identified by key.
func (c *Client) Delete(ctx context.Context, key Key) error {
	path := "/api/products/" + key.pathSegment()

	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func mapProducts(wires []wireProduct) []Product {
	products := make([]Product, len(wires))
	for i, w := range wires {
		products[i] = w.toProduct()
	}

	return products
}
