package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sentra-sec/sentractl/internal/api"
)

func testServer(t *testing.T, sources, agents []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/org/org-1/source/":
			json.NewEncoder(w).Encode(sources)
		case "/api/v1/org/org-1/agent/":
			json.NewEncoder(w).Encode(agents)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func TestRegistry_RefreshAndList(t *testing.T) {
	fresh := time.Now().Add(-time.Hour).Format(time.RFC3339)
	stale := time.Now().Add(-48 * time.Hour).Format(time.RFC3339)

	server := testServer(t,
		[]map[string]any{
			{"uid": "mach:1", "name": "raw-1", "last_data": fresh, "last_stored_chunk_end_time": fresh},
			{"uid": "mach:2", "name": "raw-2", "last_data": stale, "last_stored_chunk_end_time": stale},
			{"uid": "clus:3", "name": "monitor", "last_data": fresh, "last_stored_chunk_end_time": fresh},
			{"uid": "global:x", "name": "never listed"},
		},
		[]map[string]any{
			{"uid": "agent:1", "description": "host-one", "runtime_details": map[string]any{"src_uid": "mach:1"}},
			{"uid": "agent:2", "description": "host-two", "runtime_details": map[string]any{"src_uid": "mach:2"}},
			{"uid": "agent:3", "description": "cluster-three", "runtime_details": map[string]any{"src_uid": "clus:3"}},
		},
	)
	defer server.Close()

	reg := NewRegistry(api.NewClient(server.URL, "key", "org-1"), nil)
	if err := reg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Default view hides the stale source.
	got := reg.UIDs(ListOptions{})
	if want := []string{"clus:3", "mach:1"}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("UIDs() = %v, want %v", got, want)
	}

	// Agent descriptions become the display names.
	all := reg.List(ListOptions{IncludeExpired: true})
	names := map[string]string{}
	for _, src := range all {
		names[src.UID] = src.Name
	}
	if names["mach:1"] != "host-one" {
		t.Errorf("mach:1 name = %q, want host-one", names["mach:1"])
	}
	if len(all) != 3 {
		t.Errorf("IncludeExpired listed %d sources, want 3 (global skipped)", len(all))
	}

	// Cluster monitors can be excluded.
	got = reg.UIDs(ListOptions{ExcludeClusterMonitors: true})
	if len(got) != 1 || got[0] != "mach:1" {
		t.Errorf("UIDs(exclude monitors) = %v, want [mach:1]", got)
	}
}

func TestRegistry_HidesAgentlessSources(t *testing.T) {
	fresh := time.Now().Format(time.RFC3339)

	server := testServer(t,
		[]map[string]any{
			{"uid": "mach:1", "name": "orphan", "last_data": fresh, "last_stored_chunk_end_time": fresh},
		},
		nil,
	)
	defer server.Close()

	reg := NewRegistry(api.NewClient(server.URL, "key", "org-1"), nil)
	if err := reg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := reg.UIDs(ListOptions{}); len(got) != 0 {
		t.Errorf("UIDs() = %v, want agentless source hidden", got)
	}
	if got := reg.UIDs(ListOptions{IncludeExpired: true}); len(got) != 1 {
		t.Errorf("UIDs(IncludeExpired) = %v, want the orphan listed", got)
	}
}
