package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cardiac-assistant/pkg"
)

// Client calls the remote question-answering backend. It implements Asker.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a client for the backend at baseURL (no trailing slash).
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Ask posts the raw question to /ask and returns the backend's response
// text verbatim. Any transport or decoding failure is returned as an error
// for the controller to translate into the fallback bot message.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(pkg.AskRequest{Question: question})
	if err != nil {
		return "", fmt.Errorf("encode question: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("contact server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	var out pkg.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Response, nil
}
