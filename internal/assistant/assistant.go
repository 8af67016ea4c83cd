// Package assistant calls a generative-text API for chat summaries and
// conversation starters. Everything here is best-effort and advisory:
// any failure degrades to a static fallback string and must never block
// or fail messaging.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/famlink/internal/model"
)

// Fallback strings returned when the API is unconfigured or failing.
const (
	FallbackSummary    = "Could not summarize this conversation right now."
	FallbackIcebreaker = "Hi everyone! How's your day going?"
	emptySummary       = "No messages to summarize."
)

// summaryWindow caps how many trailing messages feed the summary prompt.
const summaryWindow = 20

// Client talks to a text-generation endpoint. A zero BaseURL disables
// remote calls entirely; the client then answers with fallbacks.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New builds a Client with a request timeout suited for a user waiting
// on a modal.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// generate posts a prompt and returns the completion text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant api: unexpected status %d", resp.StatusCode)
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

// SummarizeChat returns a short synopsis of the most recent messages.
// Only the trailing window is sent; sender names use the denormalized
// snapshot so the transcript matches what members actually saw.
func (c *Client) SummarizeChat(ctx context.Context, messages []model.Message) string {
	if len(messages) == 0 {
		return emptySummary
	}
	if c == nil || c.BaseURL == "" {
		return FallbackSummary
	}
	if len(messages) > summaryWindow {
		messages = messages[len(messages)-summaryWindow:]
	}
	var transcript strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&transcript, "%s: %s\n", m.SenderName, m.Text)
	}
	prompt := "Summarize the following chat conversation in 2-3 sentences:\n\n" + transcript.String()

	text, err := c.generate(ctx, prompt)
	if err != nil || text == "" {
		slog.Warn("chat summary failed, using fallback", "error", err)
		return FallbackSummary
	}
	return text
}

// ConversationStarter suggests an icebreaker for a group.
func (c *Client) ConversationStarter(ctx context.Context, groupName string) string {
	if c == nil || c.BaseURL == "" {
		return FallbackIcebreaker
	}
	prompt := fmt.Sprintf(
		"Suggest a friendly icebreaker or conversation starter for a group chat named %q. Keep it short and engaging.",
		groupName)

	text, err := c.generate(ctx, prompt)
	if err != nil || text == "" {
		slog.Warn("icebreaker failed, using fallback", "error", err)
		return FallbackIcebreaker
	}
	return text
}
