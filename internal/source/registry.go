package source

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sentra-sec/sentractl/internal/api"
	"github.com/sentra-sec/sentractl/internal/model"
)

// autoHideAfter hides sources whose newest data is older than this.
const autoHideAfter = 24 * time.Hour

// clusterMonitorPrefix marks cluster monitor sources.
const clusterMonitorPrefix = "clus:"

// Source is one queryable record source.
type Source struct {
	UID          string
	Name         string
	LastData     time.Time
	LastChunkEnd time.Time
	HasAgent     bool
}

// Expired reports whether the source stopped reporting before the cutoff.
func (s Source) Expired(cutoff time.Time) bool {
	return s.LastData.Before(cutoff) && s.LastChunkEnd.Before(cutoff)
}

// ListOptions filter List output.
type ListOptions struct {
	IncludeExpired         bool
	ExcludeClusterMonitors bool
}

// Registry caches the org's sources. Refresh is safe to call concurrently
// with readers.
type Registry struct {
	client *api.Client
	logger *slog.Logger

	mu         sync.RWMutex
	sources    map[string]Source
	lastSyncAt time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(client *api.Client, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		client:  client,
		logger:  logger,
		sources: make(map[string]Source),
	}
}

// Refresh fetches sources and agents and rebuilds the registry. Agent
// records carry the display name the UI shows, so agented sources take
// their name from the agent's description.
func (r *Registry) Refresh(ctx context.Context) error {
	start := time.Now()

	raw, err := r.client.Sources(ctx)
	if err != nil {
		return err
	}
	agents, err := r.client.Agents(ctx)
	if err != nil {
		return err
	}

	merged := make(map[string]Source, len(raw))
	for _, rec := range raw {
		uid, _ := rec["uid"].(string)
		if uid == "" || strings.HasPrefix(uid, "global") {
			continue
		}
		merged[uid] = Source{
			UID:          uid,
			Name:         str(rec, "name"),
			LastData:     stamp(rec, "last_data"),
			LastChunkEnd: stamp(rec, "last_stored_chunk_end_time"),
		}
	}

	for _, agent := range agents {
		uid := agentSourceUID(agent)
		src, ok := merged[uid]
		if !ok {
			continue
		}
		src.HasAgent = true
		if desc := str(agent, "description"); desc != "" {
			src.Name = desc
		}
		merged[uid] = src
	}

	r.mu.Lock()
	r.sources = merged
	r.lastSyncAt = time.Now()
	r.mu.Unlock()

	r.logger.Debug("source registry refreshed",
		"sources", len(merged),
		"duration", time.Since(start),
	)
	return nil
}

// List returns the registry's sources, sorted by uid. Expired sources are
// hidden unless opted in; sources never seen by an agent are hidden with
// them, matching the service UI.
func (r *Registry) List(opts ListOptions) []Source {
	cutoff := time.Now().Add(-autoHideAfter)

	r.mu.RLock()
	out := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		if !opts.IncludeExpired && (src.Expired(cutoff) || !src.HasAgent) {
			continue
		}
		if opts.ExcludeClusterMonitors && strings.HasPrefix(src.UID, clusterMonitorPrefix) {
			continue
		}
		out = append(out, src)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// UIDs returns the uids of List's result, ready for a retrieval call.
func (r *Registry) UIDs(opts ListOptions) []string {
	sources := r.List(opts)
	uids := make([]string, len(sources))
	for i, src := range sources {
		uids[i] = src.UID
	}
	return uids
}

// LastSyncAt returns the time of the last successful Refresh.
func (r *Registry) LastSyncAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSyncAt
}

func str(rec model.Record, key string) string {
	s, _ := rec[key].(string)
	return s
}

func stamp(rec model.Record, key string) time.Time {
	s, ok := rec[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func agentSourceUID(agent model.Record) string {
	details, ok := agent["runtime_details"].(map[string]any)
	if !ok {
		return ""
	}
	uid, _ := details["src_uid"].(string)
	return uid
}
