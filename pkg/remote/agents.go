package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Block is one labeled memory block of an agent
type Block struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Value       string `json:"value"`
}

// Agent represents the remote agent with its memory blocks
type Agent struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Blocks      []Block `json:"blocks"`
}

// GetAgent retrieves an agent and its current memory snapshot
func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	path := fmt.Sprintf("/v1/agents/%s", agentID)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var agent Agent
	if err := json.NewDecoder(resp.Body).Decode(&agent); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return &agent, nil
}
