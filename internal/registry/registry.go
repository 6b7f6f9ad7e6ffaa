// Package registry maintains MCP connections for the enabled server
// entries of a configuration blob and caches each server's discovered
// tools for display.
package registry

import (
	"log"
	"reflect"
	"sync"

	"github.com/michaelbrown/switchboard/internal/settings"
)

// Registry tracks one Connection per enabled server entry.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	launch func(name string, entry settings.ServerEntry) (*Connection, error)
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		conns:  make(map[string]*Connection),
		launch: NewConnection,
	}
}

// Sync reconciles connections against blob: it launches servers that are
// enabled and not yet connected, closes servers that were removed or
// disabled, and restarts servers whose entry changed while they stayed
// enabled, so a command or env edit takes effect without a disable/enable
// cycle. A server that fails to launch is logged and skipped; its tool
// entry simply has no sub-tools until the next sync.
func (r *Registry) Sync(blob settings.Blob) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Drop connections for removed, disabled, or changed entries
	for name, conn := range r.conns {
		entry, ok := blob.Entry(name)
		if !ok || !entry.Enabled || !reflect.DeepEqual(entry, conn.entry) {
			conn.Close()
			delete(r.conns, name)
		}
	}

	// Launch enabled entries without a live connection
	for _, name := range blob.Names() {
		if _, ok := r.conns[name]; ok {
			continue
		}
		entry, ok := blob.Entry(name)
		if !ok || !entry.Enabled || entry.Command == "" {
			continue
		}

		conn, err := r.launch(name, entry)
		if err != nil {
			log.Printf("Warning: failed to start tool server %s: %v", name, err)
			continue
		}
		r.conns[name] = conn
	}
}

// Snapshot returns the discovered sub-tools per connected server.
func (r *Registry) Snapshot() map[string][]settings.SubTool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(map[string][]settings.SubTool, len(r.conns))
	for name, conn := range r.conns {
		snap[name] = conn.SubTools()
	}
	return snap
}

// Connected reports whether a server currently has a live connection.
func (r *Registry) Connected(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[name]
	return ok
}

// Close shuts down all server connections.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, conn := range r.conns {
		conn.Close()
		delete(r.conns, name)
	}
}
