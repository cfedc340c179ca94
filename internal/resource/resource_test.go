package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sentra-sec/sentractl/internal/api"
	"github.com/sentra-sec/sentractl/internal/fanout"
	"github.com/sentra-sec/sentractl/internal/stream"
)

func TestProcesses_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["data_type"] != DatatypeGraph {
			t.Errorf("data_type = %v, want %q", req["data_type"], DatatypeGraph)
		}
		src := req["src_uid"].(string)
		fmt.Fprintf(w, `{"id":"proc:%s","version":1,"schema":"model_process"}`+"\n", src)
	}))
	defer server.Close()

	c := api.NewClient(server.URL, "key", "org-1")

	s, err := Processes(context.Background(), c, []string{"m1", "m2"},
		stream.TimeRange{Start: time.Unix(0, 0), End: time.Unix(100, 0)}, stream.Options{})
	if err != nil {
		t.Fatal(err)
	}

	ids := map[string]bool{}
	for s.Next() {
		id, _ := s.Record().ID()
		ids[id] = true
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	if !ids["proc:m1"] || !ids["proc:m2"] {
		t.Errorf("ids = %v, want one record per source", ids)
	}
}

func TestConnections_ClusterSourcesUseK8sStream(t *testing.T) {
	var gotDatatype atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		gotDatatype.Store(req["data_type"].(string))
	}))
	defer server.Close()

	c := api.NewClient(server.URL, "key", "org-1")

	s, err := Connections(context.Background(), c, []string{"clus:abc"},
		stream.TimeRange{Start: time.Unix(0, 0), End: time.Unix(100, 0)}, stream.Options{})
	if err != nil {
		t.Fatal(err)
	}
	for s.Next() {
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}

	if dt := gotDatatype.Load(); dt != DatatypeK8s {
		t.Errorf("data_type = %v, want %q", dt, DatatypeK8s)
	}
}

func TestObjects_ChunksIDs(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			IDs []string `json:"ids"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.IDs) > api.ObjectsLimit {
			t.Errorf("group of %d ids exceeds limit", len(req.IDs))
		}
		results := make([]map[string]any, len(req.IDs))
		for i, id := range req.IDs {
			results[i] = map[string]any{"id": id}
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer server.Close()

	c := api.NewClient(server.URL, "key", "org-1")

	ids := make([]string, api.ObjectsLimit+7)
	for i := range ids {
		ids[i] = "obj:" + strconv.Itoa(i)
	}

	records, err := Objects(context.Background(), c, ids, fanout.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != len(ids) {
		t.Errorf("got %d records, want %d", len(records), len(ids))
	}
	if calls.Load() != 2 {
		t.Errorf("made %d calls, want 2", calls.Load())
	}
}
