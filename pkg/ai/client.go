package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const systemPrompt = "You are a medical triage assistant. Given a symptom " +
	"description, suggest the likely severity, sensible next steps, and when " +
	"to seek emergency care. You are not a doctor and must say so."

// Client calls a managed, OpenAI-compatible completion gateway. One request,
// one response; no streaming, no retries.
type Client struct {
	gatewayURL string
	apiKey     string
	model      string
	httpClient *http.Client
}

type Config struct {
	GatewayURL string
	APIKey     string
	Model      string
	Timeout    time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewClient(config *Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		gatewayURL: config.GatewayURL,
		apiKey:     config.APIKey,
		model:      config.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AssessSymptoms relays a free-text symptom description to the gateway and
// returns the assistant's reply verbatim.
func (c *Client) AssessSymptoms(ctx context.Context, symptoms string) (string, error) {
	if c.gatewayURL == "" {
		return "", fmt.Errorf("ai gateway not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: symptoms},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gateway error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("gateway returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
