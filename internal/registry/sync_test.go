package registry

import (
	"errors"
	"testing"

	"github.com/michaelbrown/switchboard/internal/settings"
)

// stubbedRegistry records launches instead of spawning subprocesses.
func stubbedRegistry(launches *[]settings.ServerEntry) *Registry {
	r := New()
	r.launch = func(name string, entry settings.ServerEntry) (*Connection, error) {
		*launches = append(*launches, entry)
		return &Connection{name: name, entry: entry}, nil
	}
	return r
}

func TestSyncRestartsChangedEntry(t *testing.T) {
	var launches []settings.ServerEntry
	r := stubbedRegistry(&launches)
	defer r.Close()

	r.Sync(settings.Blob{
		"github": {"command": "mcp-github", "args": []any{"--readonly"}, "enabled": true},
	})
	if len(launches) != 1 {
		t.Fatalf("got %d launches, want 1", len(launches))
	}
	if !r.Connected("github") {
		t.Fatal("github should be connected")
	}

	// Same entry again: the running server is left alone.
	r.Sync(settings.Blob{
		"github": {"command": "mcp-github", "args": []any{"--readonly"}, "enabled": true},
	})
	if len(launches) != 1 {
		t.Fatalf("unchanged entry relaunched: %d launches", len(launches))
	}

	// Edited args while still enabled: the server restarts with the new
	// entry, no disable/enable cycle needed.
	r.Sync(settings.Blob{
		"github": {"command": "mcp-github", "args": []any{"--readonly", "--org", "acme"}, "enabled": true},
	})
	if len(launches) != 2 {
		t.Fatalf("edited entry should relaunch: %d launches", len(launches))
	}
	got := launches[1].Args
	if len(got) != 3 || got[2] != "acme" {
		t.Errorf("relaunch used stale entry: args = %v", got)
	}
}

func TestSyncChangedEntryLaunchFailure(t *testing.T) {
	var launches []settings.ServerEntry
	r := stubbedRegistry(&launches)
	defer r.Close()

	r.Sync(settings.Blob{
		"github": {"command": "mcp-github", "enabled": true},
	})

	// The edited command fails to start; the stale connection must not
	// linger as if it served the new config.
	r.launch = func(name string, entry settings.ServerEntry) (*Connection, error) {
		return nil, errors.New("spawn failed")
	}
	r.Sync(settings.Blob{
		"github": {"command": "mcp-github-v2", "enabled": true},
	})

	if r.Connected("github") {
		t.Fatal("failed relaunch should leave the server disconnected")
	}
}
