package resource

import (
	"context"
	"strings"

	"github.com/sentra-sec/sentractl/internal/api"
	"github.com/sentra-sec/sentractl/internal/fanout"
	"github.com/sentra-sec/sentractl/internal/model"
	"github.com/sentra-sec/sentractl/internal/stream"
)

// Datatypes of the source-query API.
const (
	DatatypeGraph        = "graph"
	DatatypeAudit        = "audit"
	DatatypeFingerprints = "fingerprints"
	DatatypeK8s          = "k8s"
)

// Schema prefixes for source-query filtering.
const (
	SchemaProcess    = "model_process"
	SchemaConnection = "model_connection"
	SchemaContainer  = "model_container"
	SchemaOpsFlag    = "event_opsflag"
	SchemaDeployment = "model_k8s_deployment"
)

// clusterPrefix marks sources that are cluster monitors rather than single
// machines; their records live in the k8s data stream.
const clusterPrefix = "clus:"

// Processes streams process models for the given sources.
func Processes(ctx context.Context, c *api.Client, sources []string, tr stream.TimeRange, opts stream.Options) (*stream.Stream, error) {
	return Records(ctx, c, DatatypeGraph, SchemaProcess, sources, tr, opts)
}

// Connections streams connection models for the given sources.
func Connections(ctx context.Context, c *api.Client, sources []string, tr stream.TimeRange, opts stream.Options) (*stream.Stream, error) {
	return Records(ctx, c, datatypeFor(sources, DatatypeGraph), SchemaConnection, sources, tr, opts)
}

// Containers streams container models for the given sources.
func Containers(ctx context.Context, c *api.Client, sources []string, tr stream.TimeRange, opts stream.Options) (*stream.Stream, error) {
	return Records(ctx, c, datatypeFor(sources, DatatypeGraph), SchemaContainer, sources, tr, opts)
}

// OpsFlags streams operational flag events for the given sources.
func OpsFlags(ctx context.Context, c *api.Client, sources []string, tr stream.TimeRange, opts stream.Options) (*stream.Stream, error) {
	return Records(ctx, c, DatatypeAudit, SchemaOpsFlag, sources, tr, opts)
}

// Deployments streams k8s deployment models for the given clusters.
func Deployments(ctx context.Context, c *api.Client, clusters []string, tr stream.TimeRange, opts stream.Options) (*stream.Stream, error) {
	return Records(ctx, c, DatatypeK8s, SchemaDeployment, clusters, tr, opts)
}

// Records streams an arbitrary datatype/schema pair. The typed getters
// above are thin bindings over this.
func Records(ctx context.Context, c *api.Client, datatype, schema string, sources []string, tr stream.TimeRange, opts stream.Options) (*stream.Stream, error) {
	return stream.Retrieve(ctx, c.Fetcher(datatype, schema, nil), sources, tr, opts)
}

// datatypeFor picks the k8s data stream when the sources are cluster
// monitors.
func datatypeFor(sources []string, fallback string) string {
	if len(sources) > 0 && strings.HasPrefix(sources[0], clusterPrefix) {
		return DatatypeK8s
	}
	return fallback
}

// Objects hydrates full records for the given ids, fanning id groups of
// api.ObjectsLimit out concurrently. Order of the result is completion
// order across groups. Any group failure fails the whole call.
func Objects(ctx context.Context, c *api.Client, ids []string, cfg fanout.Config) ([]model.Record, error) {
	var groups [][]string
	for len(ids) > 0 {
		n := min(len(ids), api.ObjectsLimit)
		groups = append(groups, ids[:n])
		ids = ids[n:]
	}

	out := fanout.Run(ctx, cfg, groups, func(ctx context.Context, group []string) ([]model.Record, error) {
		return c.Objects(ctx, group)
	})

	var records []model.Record
	for o := range out {
		if o.Err != nil {
			return nil, o.Err
		}
		records = append(records, o.Value...)
	}
	return records, nil
}
