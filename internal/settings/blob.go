package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Blob is the raw server configuration: a top-level map of server name to
// server settings. Only the enabled flag is interpreted here; every other
// field is carried opaquely so that hand-edited config survives a
// clone/toggle/save round trip untouched.
type Blob map[string]map[string]any

// ServerEntry is the typed view of a single server's settings. Fields not
// listed here still exist in the Blob, they are just not interpreted.
type ServerEntry struct {
	Command     string            `json:"command,omitempty"`
	Args        []string          `json:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	URL         string            `json:"url,omitempty"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Enabled     bool              `json:"enabled"`
}

// Parse validates text as JSON and returns it as a Blob. Validation is
// purely syntactic; no schema is enforced beyond the top-level shape.
func Parse(text string) (Blob, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))

	var b Blob
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parsing config: trailing data after JSON value")
	}
	return b, nil
}

// UnmarshalJSON decodes with json.Number so opaque numeric fields keep
// their exact digits. Every path that decodes a Blob (request bodies,
// API responses, database rows) goes through here; a plain float64
// decode would round integers above 2^53.
func (b *Blob) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*b = m
	return nil
}

// Clone returns a deep copy of the blob via a JSON round trip, so nested
// maps and slices are never shared with the original.
func (b Blob) Clone() Blob {
	if b == nil {
		return nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		// A Blob decoded from JSON always re-marshals.
		panic(fmt.Sprintf("cloning config: %v", err))
	}
	clone, err := Parse(string(data))
	if err != nil {
		panic(fmt.Sprintf("cloning config: %v", err))
	}
	return clone
}

// Toggle flips the enabled flag of the named server entry in place.
// A missing entry is an error, not a crash: the tool list and the blob can
// drift apart when the blob is edited by hand.
func (b Blob) Toggle(name string) error {
	entry, ok := b[name]
	if !ok {
		return fmt.Errorf("no config entry for tool: %s", name)
	}
	if entry == nil {
		entry = map[string]any{}
		b[name] = entry
	}
	enabled, _ := entry["enabled"].(bool)
	entry["enabled"] = !enabled
	return nil
}

// Enabled reports whether the named entry exists and is enabled.
func (b Blob) Enabled(name string) bool {
	entry, ok := b[name]
	if !ok {
		return false
	}
	enabled, _ := entry["enabled"].(bool)
	return enabled
}

// Entry decodes the named server settings into the typed view.
func (b Blob) Entry(name string) (ServerEntry, bool) {
	raw, ok := b[name]
	if !ok {
		return ServerEntry{}, false
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return ServerEntry{}, false
	}
	var e ServerEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return ServerEntry{}, false
	}
	return e, true
}

// Names returns the server names in sorted order for stable listings.
func (b Blob) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools renders the blob as a tool list: one Tool per server entry,
// ordered by name. SubTools are left empty; discovery fills them in.
func (b Blob) Tools() []Tool {
	tools := make([]Tool, 0, len(b))
	for _, name := range b.Names() {
		entry, _ := b.Entry(name)
		tools = append(tools, Tool{
			Name:        name,
			Description: entry.Description,
			Icon:        entry.Icon,
			Enabled:     entry.Enabled,
		})
	}
	return tools
}

// Pretty returns the blob as indented JSON for the editor.
func (b Blob) Pretty() (string, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}
	return string(data), nil
}
