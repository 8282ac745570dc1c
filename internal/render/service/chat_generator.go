package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/allisson/charms/internal/orders/domain"
)

const (
	chatMaxRetries   = 3
	chatInitialDelay = time.Second
	chatMaxTokens    = 200
)

// ChatConfig configures a chat completions client. When AzureDeployment is set
// the Azure OpenAI URL layout and api-key header are used.
type ChatConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	AzureDeployment string
	AzureAPIVersion string
	InitialDelay    time.Duration
	HTTPClient      *http.Client
}

// ChatGenerator generates charm text with an OpenAI compatible chat completions API.
type ChatGenerator struct {
	config ChatConfig
	client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model,omitempty"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewChatGenerator creates a new ChatGenerator.
func NewChatGenerator(config ChatConfig) *ChatGenerator {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = chatInitialDelay
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &ChatGenerator{config: config, client: client}
}

func (g *ChatGenerator) endpoint() string {
	if g.config.AzureDeployment != "" {
		return fmt.Sprintf(
			"%s/openai/deployments/%s/chat/completions?api-version=%s",
			g.config.BaseURL,
			url.PathEscape(g.config.AzureDeployment),
			url.QueryEscape(g.config.AzureAPIVersion),
		)
	}
	return g.config.BaseURL + "/chat/completions"
}

// Generate asks the model for a charm. Rate limits and server errors are
// retried with exponential backoff; other client errors fail immediately.
func (g *ChatGenerator) Generate(ctx context.Context, inputs domain.CustomerInputs) (string, error) {
	if g.config.APIKey == "" {
		return "", fmt.Errorf("chat completions api key not set")
	}

	req := chatRequest{
		Messages:  []chatMessage{{Role: "user", Content: BuildPrompt(inputs)}},
		MaxTokens: chatMaxTokens,
	}
	if g.config.AzureDeployment == "" {
		req.Model = g.config.Model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.config.InitialDelay
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, chatMaxRetries-1), ctx)

	var text string
	err = backoff.Retry(func() error {
		var callErr error
		text, callErr = g.call(ctx, body)
		return callErr
	}, retry)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (g *ChatGenerator) call(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	if g.config.AzureDeployment != "" {
		httpReq.Header.Set("api-key", g.config.APIKey)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr chatError
		var callErr error
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			callErr = fmt.Errorf("chat completions error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		} else {
			callErr = fmt.Errorf("chat completions error (%d): %s", resp.StatusCode, string(respBody))
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", callErr
		}
		return "", backoff.Permanent(callErr)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		return "", backoff.Permanent(fmt.Errorf("no choices returned"))
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", backoff.Permanent(fmt.Errorf("empty charm text"))
	}
	return text, nil
}
