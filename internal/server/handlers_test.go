package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/michaelbrown/switchboard/internal/config"
	"github.com/michaelbrown/switchboard/internal/registry"
	"github.com/michaelbrown/switchboard/internal/settings"
	"github.com/michaelbrown/switchboard/internal/store"
	"github.com/michaelbrown/switchboard/internal/store/sqlite"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	reg := registry.New()
	t.Cleanup(reg.Close)

	cfg := &config.Config{Document: "mcpserver"}
	s := New(cfg, st, reg)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postConfig(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/config/mcpserver", "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST config: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestListToolsEmptyConfig(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/tools")
	if err != nil {
		t.Fatalf("GET tools: %v", err)
	}
	var body toolsResponse
	decodeBody(t, resp, &body)

	if !body.Success {
		t.Error("fresh install should list tools successfully")
	}
	if len(body.Tools) != 0 {
		t.Errorf("got %d tools, want 0", len(body.Tools))
	}
}

func TestListToolsReflectsConfig(t *testing.T) {
	ts := testServer(t)

	resp := postConfig(t, ts, `{
		"github": {"description": "GitHub ops", "icon": "github.svg", "enabled": true},
		"web-search": {"enabled": false}
	}`)
	var saved saveResponse
	decodeBody(t, resp, &saved)
	if !saved.Success {
		t.Fatalf("save failed: %s", saved.Message)
	}
	if saved.Revision == "" {
		t.Error("save should return the new revision")
	}

	resp, err := http.Get(ts.URL + "/api/tools")
	if err != nil {
		t.Fatalf("GET tools: %v", err)
	}
	var body toolsResponse
	decodeBody(t, resp, &body)

	if !body.Success {
		t.Fatalf("list failed: %s", body.Message)
	}
	if len(body.Tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(body.Tools))
	}
	// Sorted by name
	if body.Tools[0].Name != "github" || body.Tools[1].Name != "web-search" {
		t.Errorf("tool order: %s, %s", body.Tools[0].Name, body.Tools[1].Name)
	}
	if !body.Tools[0].Enabled || body.Tools[1].Enabled {
		t.Error("enabled flags do not match config")
	}
	if body.Tools[0].Description != "GitHub ops" || body.Tools[0].Icon != "github.svg" {
		t.Errorf("tool metadata: %+v", body.Tools[0])
	}
}

func TestSaveConfigMalformedJSON(t *testing.T) {
	ts := testServer(t)

	resp := postConfig(t, ts, `{"github": `)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var body saveResponse
	decodeBody(t, resp, &body)
	if body.Success {
		t.Error("malformed JSON should not save")
	}
	if !strings.Contains(body.Message, "invalid JSON") {
		t.Errorf("message = %q", body.Message)
	}

	// Nothing was persisted.
	resp, _ = http.Get(ts.URL + "/api/tools")
	var tools toolsResponse
	decodeBody(t, resp, &tools)
	if len(tools.Tools) != 0 {
		t.Error("malformed save must not create tools")
	}
}

func TestGetConfigRoundTrip(t *testing.T) {
	ts := testServer(t)

	postConfig(t, ts, `{"github": {"enabled": true, "timeout_seconds": 30}}`).Body.Close()

	resp, err := http.Get(ts.URL + "/api/config/mcpserver")
	if err != nil {
		t.Fatalf("GET config: %v", err)
	}
	var body configResponse
	decodeBody(t, resp, &body)

	if !body.Success {
		t.Fatalf("get config failed: %s", body.Message)
	}
	if !body.Config.Enabled("github") {
		t.Error("github should be enabled")
	}
	if _, ok := body.Config["github"]["timeout_seconds"]; !ok {
		t.Error("opaque field lost in round trip")
	}
}

func TestConfigRoundTripKeepsLargeIntegers(t *testing.T) {
	ts := testServer(t)

	// 2^53+1 rounds to ...992 under a float64 decode; the save and load
	// paths must both keep the exact digits.
	postConfig(t, ts, `{"github": {"enabled": true, "session_id": 9007199254740993}}`).Body.Close()

	resp, err := http.Get(ts.URL + "/api/config/mcpserver")
	if err != nil {
		t.Fatalf("GET config: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if !strings.Contains(string(raw), "9007199254740993") {
		t.Errorf("large integer corrupted in round trip: %s", raw)
	}
}

func TestGetConfigNeverSaved(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/config/mcpserver")
	if err != nil {
		t.Fatalf("GET config: %v", err)
	}
	var body configResponse
	decodeBody(t, resp, &body)

	if !body.Success {
		t.Error("never-saved document should read as empty, not fail")
	}
	if len(body.Config) != 0 {
		t.Errorf("config = %v, want empty", body.Config)
	}
}

func TestRevisionHistory(t *testing.T) {
	ts := testServer(t)

	resp := postConfig(t, ts, `{"github": {"enabled": true}}`)
	var first saveResponse
	decodeBody(t, resp, &first)
	postConfig(t, ts, `{"github": {"enabled": false}}`).Body.Close()

	resp, err := http.Get(ts.URL + "/api/config/mcpserver/revisions")
	if err != nil {
		t.Fatalf("GET revisions: %v", err)
	}
	var body revisionsResponse
	decodeBody(t, resp, &body)

	if !body.Success {
		t.Fatalf("list revisions failed: %s", body.Message)
	}
	if len(body.Revisions) != 2 {
		t.Fatalf("got %d revisions, want 2", len(body.Revisions))
	}
	if body.Revisions[0].Seq != 2 {
		t.Error("revisions should be newest first")
	}

	// Old revision still carries the old blob.
	resp, err = http.Get(ts.URL + "/api/config/mcpserver/revisions/" + first.Revision)
	if err != nil {
		t.Fatalf("GET revision: %v", err)
	}
	var old configResponse
	decodeBody(t, resp, &old)
	if !old.Success || !old.Config.Enabled("github") {
		t.Error("old revision should show github enabled")
	}

	// Unknown revision
	resp, _ = http.Get(ts.URL + "/api/config/mcpserver/revisions/no-such-id")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

// failingStore errors on every read so list-error behavior can be checked.
type failingStore struct{}

func (failingStore) SaveConfig(ctx context.Context, name string, blob settings.Blob) (*store.ConfigDocument, error) {
	return nil, errors.New("store is down")
}
func (failingStore) LoadConfig(ctx context.Context, name string) (*store.ConfigDocument, error) {
	return nil, errors.New("store is down")
}
func (failingStore) ListRevisions(ctx context.Context, name string, limit int) ([]store.Revision, error) {
	return nil, errors.New("store is down")
}
func (failingStore) GetRevision(ctx context.Context, name, revisionID string) (*store.ConfigDocument, error) {
	return nil, errors.New("store is down")
}
func (failingStore) Close() error { return nil }

func TestListToolsStoreError(t *testing.T) {
	reg := registry.New()
	defer reg.Close()

	s := New(&config.Config{Document: "mcpserver"}, failingStore{}, reg)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/tools")
	if err != nil {
		t.Fatalf("GET tools: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	var body toolsResponse
	decodeBody(t, resp, &body)

	// Error message and an empty list, never both an error and tool rows.
	if body.Success {
		t.Error("success should be false")
	}
	if body.Message == "" {
		t.Error("error message should be set")
	}
	if len(body.Tools) != 0 {
		t.Errorf("got %d tools alongside an error, want 0", len(body.Tools))
	}
}

func TestEventsBroadcastOnSave(t *testing.T) {
	ts := testServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing events: %v", err)
	}
	defer conn.Close()

	// Give the handler a beat to register the subscriber.
	time.Sleep(50 * time.Millisecond)

	postConfig(t, ts, `{"github": {"enabled": true}}`).Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if ev.Type != "config_updated" || ev.Document != "mcpserver" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Revision == "" || ev.Seq != 1 {
		t.Errorf("event revision/seq = %q/%d", ev.Revision, ev.Seq)
	}
}
