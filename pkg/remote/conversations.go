package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Conversation represents a durable conversation bound to one agent
type Conversation struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	CreatedAt string `json:"created_at,omitempty"`
}

type createConversationRequest struct {
	AgentID string `json:"agent_id"`
}

// CreateConversation creates a new conversation for the given agent
func (c *Client) CreateConversation(ctx context.Context, agentID string) (*Conversation, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/conversations", createConversationRequest{AgentID: agentID})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var conv Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	if conv.ID == "" {
		return nil, fmt.Errorf("conversation create returned no id")
	}

	return &conv, nil
}
