package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MessageTypeAssistant is the only message kind surfaced to consumers.
const MessageTypeAssistant = "assistant_message"

// Message is one entry of the conversation feed. The feed is delivered
// newest-first, and only assistant messages carry consumer-visible text.
type Message struct {
	ID          string `json:"id"`
	MessageType string `json:"message_type"`
	Content     string `json:"content,omitempty"`
	Text        string `json:"text,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Body returns the textual payload regardless of which field the API used
func (m Message) Body() string {
	if m.Content != "" {
		return m.Content
	}
	return m.Text
}

// ListMessages retrieves up to limit messages of a conversation, newest-first
func (c *Client) ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	path := fmt.Sprintf("/v1/conversations/%s/messages?limit=%d", conversationID, limit)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var messages []Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return messages, nil
}

type postMessageRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// PostMessage sends a role+text payload to a conversation. The response
// status is reported to the caller and not validated beyond transport errors.
func (c *Client) PostMessage(ctx context.Context, conversationID, role, text string) (int, error) {
	path := fmt.Sprintf("/v1/conversations/%s/messages", conversationID)
	resp, err := c.doRequest(ctx, http.MethodPost, path, postMessageRequest{Role: role, Text: text})
	if resp == nil {
		return 0, err
	}
	if err == nil {
		// doRequest closes the body itself on non-2xx responses
		resp.Body.Close()
	}
	return resp.StatusCode, nil
}
