// Package client drives the tools settings flow against a switchboard
// server: fetch the tool list and the configuration blob, toggle a tool by
// read-modify-write of the blob, and submit raw edits from the editor.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/michaelbrown/switchboard/internal/settings"
	"github.com/michaelbrown/switchboard/internal/store"
)

// Client holds the page's local state: the last fetched tool list and the
// in-memory copy of the configuration blob. The server stays the source of
// truth; every mutation is a full-blob POST followed by a tool refetch.
type Client struct {
	baseURL  string
	document string
	http     *http.Client

	tools []settings.Tool
	blob  settings.Blob
}

// New creates a client for the given server base URL and config document.
func New(baseURL, document string) *Client {
	return &Client{
		baseURL:  baseURL,
		document: document,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type toolsPayload struct {
	Success bool            `json:"success"`
	Tools   []settings.Tool `json:"tools"`
	Message string          `json:"message,omitempty"`
}

type configPayload struct {
	Success bool          `json:"success"`
	Config  settings.Blob `json:"config,omitempty"`
	Message string        `json:"message,omitempty"`
}

type revisionsPayload struct {
	Success   bool             `json:"success"`
	Revisions []store.Revision `json:"revisions"`
	Message   string           `json:"message,omitempty"`
}

type savePayload struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// FetchTools loads the tool list. On failure the cached list is cleared:
// the page shows the error message or tool rows, never both.
func (c *Client) FetchTools(ctx context.Context) ([]settings.Tool, error) {
	var payload toolsPayload
	if err := c.get(ctx, "/api/tools", &payload); err != nil {
		c.tools = nil
		return nil, err
	}
	if !payload.Success {
		c.tools = nil
		return nil, fmt.Errorf("listing tools: %s", payload.Message)
	}

	c.tools = payload.Tools
	return c.tools, nil
}

// FetchConfig loads the configuration blob into local state.
func (c *Client) FetchConfig(ctx context.Context) (settings.Blob, error) {
	var payload configPayload
	if err := c.get(ctx, "/api/config/"+c.document, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, fmt.Errorf("fetching config: %s", payload.Message)
	}

	c.blob = payload.Config
	return c.blob, nil
}

// Tools returns the last fetched tool list.
func (c *Client) Tools() []settings.Tool {
	return c.tools
}

// Config returns the in-memory configuration blob.
func (c *Client) Config() settings.Blob {
	return c.blob
}

// Toggle clones the in-memory blob, flips the named tool's enabled flag,
// submits the full clone, and on success adopts the clone and refetches
// the tool list so server-derived display data stays current. On failure
// local state is left untouched: stale, but consistent. No rollback is
// needed because nothing was adopted.
func (c *Client) Toggle(ctx context.Context, name string) error {
	if c.blob == nil {
		return fmt.Errorf("no config loaded")
	}

	clone := c.blob.Clone()
	if err := clone.Toggle(name); err != nil {
		return err
	}

	if err := c.SubmitConfig(ctx, clone); err != nil {
		return fmt.Errorf("toggling %s: %w", name, err)
	}
	c.blob = clone

	if _, err := c.FetchTools(ctx); err != nil {
		return fmt.Errorf("refreshing tools after toggle: %w", err)
	}
	return nil
}

// FetchRevisions lists the document's saved revisions, newest first.
func (c *Client) FetchRevisions(ctx context.Context, limit int) ([]store.Revision, error) {
	path := "/api/config/" + c.document + "/revisions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var payload revisionsPayload
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, fmt.Errorf("listing revisions: %s", payload.Message)
	}
	return payload.Revisions, nil
}

// SubmitConfig POSTs the full blob to the config endpoint.
func (c *Client) SubmitConfig(ctx context.Context, blob settings.Blob) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/config/"+c.document, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submitting config: %w", err)
	}
	defer resp.Body.Close()

	var payload savePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding save response: %w", err)
	}
	if !payload.Success {
		return fmt.Errorf("saving config: %s", payload.Message)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
