package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sentra-sec/sentractl/internal/model"
)

// ObjectsLimit is the maximum number of ids per objects call.
const ObjectsLimit = 500

type objectsResponse struct {
	Results []model.Record `json:"results"`
}

// Objects hydrates full records for one group of ids. Callers with more
// than ObjectsLimit ids fan groups out concurrently; see resource.Objects.
func (c *Client) Objects(ctx context.Context, ids []string) ([]model.Record, error) {
	path := fmt.Sprintf("/api/v1/org/%s/objects", c.orgUID)

	resp, err := c.post(ctx, path, map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("get objects: %w", err)
	}
	defer resp.Body.Close()

	var out objectsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("unmarshal objects response: %w", err)
	}
	return out.Results, nil
}
