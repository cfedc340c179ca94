package api

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sentra-sec/sentractl/internal/stream"
)

const sourceQueryPath = "/api/v1/source/query/"

// PipelineStage is one stage of the server-side filtering pipeline.
type PipelineStage map[string]any

// QueryParams describes one source-query call.
type QueryParams struct {
	// Source is the uid of the logical source to query.
	Source string

	// Window is the time window; the API rejects windows wider than
	// stream.DefaultMaxWindow.
	Window stream.TimeRange

	// DataType selects the data stream to search.
	DataType string

	// Schema optionally filters to records whose schema has this prefix.
	Schema string

	// Pipeline, if set, replaces the default schema + latest_model
	// pipeline entirely.
	Pipeline []PipelineStage
}

// queryRequest is the wire shape of a source query. Times are epoch-second
// floats.
type queryRequest struct {
	OrgUID    string          `json:"org_uid,omitempty"`
	SourceUID string          `json:"src_uid,omitempty"`
	StartTime float64         `json:"start_time"`
	EndTime   float64         `json:"end_time"`
	DataType  string          `json:"data_type"`
	Pipeline  []PipelineStage `json:"pipeline"`
}

// Query runs one source query and returns the streaming NDJSON body. The
// caller owns the reader. A 404 surfaces as ErrNotFound.
func (c *Client) Query(ctx context.Context, p QueryParams) (io.ReadCloser, error) {
	pipeline := p.Pipeline
	if pipeline == nil {
		if p.Schema != "" {
			pipeline = append(pipeline, PipelineStage{
				"filter": map[string]any{"schema": p.Schema},
			})
		}
		pipeline = append(pipeline, PipelineStage{"latest_model": map[string]any{}})
	}

	req := queryRequest{
		OrgUID:    c.orgUID,
		SourceUID: p.Source,
		StartTime: epochSeconds(p.Window.Start),
		EndTime:   epochSeconds(p.Window.End),
		DataType:  p.DataType,
		Pipeline:  pipeline,
	}

	resp, err := c.post(ctx, sourceQueryPath, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Fetcher adapts Query to the engine's fetch contract for a fixed
// datatype/schema: a 404 becomes the "no data" sentinel, everything else
// propagates and aborts the retrieval.
func (c *Client) Fetcher(datatype, schema string, pipeline []PipelineStage) stream.FetchFunc {
	return func(ctx context.Context, source string, window stream.TimeRange) (io.ReadCloser, error) {
		rc, err := c.Query(ctx, QueryParams{
			Source:   source,
			Window:   window,
			DataType: datatype,
			Schema:   schema,
			Pipeline: pipeline,
		})
		if errors.Is(err, ErrNotFound) {
			c.logger.Debug("no data for source", "source", source, "window_start", window.Start)
			return nil, nil
		}
		return rc, err
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
