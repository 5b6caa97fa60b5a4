package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"opertrack.org/internal/config"
	"opertrack.org/internal/ops"
)

// ErrNotConfigured means the analysis add-on is disabled.
var ErrNotConfigured = errors.New("ai: analyzer is not configured")

// Analyzer produces a prose summary for a KPI window.
type Analyzer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}

// Input is the aggregation snapshot handed to the model.
type Input struct {
	Period    string            `json:"period"`
	KPIs      ops.KPISummary    `json:"kpis"`
	Offenders []ops.ReasonCount `json:"offenders"`
	Clients   []ops.ClientCount `json:"clients"`
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient returns nil, ErrNotConfigured when the feature is off.
func NewClient(cfg config.AIConfig, httpClient *http.Client) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    httpClient,
	}, nil
}

const systemPrompt = "Você é um analista de logística. Resuma os indicadores " +
	"de pontualidade em um parágrafo objetivo, destacando os principais " +
	"ofensores e clientes com mais atrasos."

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Summarize sends the snapshot and returns the model's prose. No retry;
// a failure is terminal for the calling request.
func (c *Client) Summarize(ctx context.Context, input Input) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}

	snapshot, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(snapshot)},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai: upstream status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("ai: upstream error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", errors.New("ai: empty completion")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
