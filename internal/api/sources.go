package api

import (
	"context"
	"fmt"

	"github.com/sentra-sec/sentractl/internal/model"
)

// Sources lists the org's record sources.
func (c *Client) Sources(ctx context.Context) ([]model.Record, error) {
	var sources []model.Record
	path := fmt.Sprintf("/api/v1/org/%s/source/", c.orgUID)
	if err := c.getJSON(ctx, path, &sources); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// Agents lists the org's agents. Agent records carry the display name the
// UI uses for a source.
func (c *Client) Agents(ctx context.Context) ([]model.Record, error) {
	var agents []model.Record
	path := fmt.Sprintf("/api/v1/org/%s/agent/", c.orgUID)
	if err := c.getJSON(ctx, path, &agents); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}
