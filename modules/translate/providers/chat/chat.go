// Package chat speaks the OpenAI chat completions wire format shared by the
// direct and the Azure deployment providers.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/candinya/ai-translator/modules/translate"
	"go.uber.org/zap"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestBody struct {
	Model       string    `json:"model,omitempty"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponseBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client posts one prompt per call to a chat completions URL.
type Client struct {
	l *zap.Logger

	name        string
	url         string
	header      http.Header
	model       string
	temperature *float64
	hc          *http.Client
}

func NewClient(name string, url string, header http.Header, model string, temperature *float64, hc *http.Client, l *zap.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Client{
		l:           l,
		name:        name,
		url:         url,
		header:      header,
		model:       model,
		temperature: temperature,
		hc:          hc,
	}
}

func (c *Client) Complete(ctx context.Context, prompt translate.Prompt) (string, error) {
	// Prepare request body
	reqBody := &chatRequestBody{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: c.temperature,
	}

	c.l.Debug("chat request", zap.String("provider", c.name), zap.Any("body", reqBody))

	reqBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.header {
		req.Header[k] = v
	}

	// Execute request
	res, err := c.hc.Do(req)
	if err != nil {
		return "", &translate.ProviderError{Provider: c.name, Err: fmt.Errorf("failed to execute request: %w", err)}
	}

	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &translate.ProviderError{Provider: c.name, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	// Check response
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.l.Debug("response status not OK", zap.String("provider", c.name), zap.Int("status", res.StatusCode))
		return "", &translate.ProviderError{
			Provider:   c.name,
			StatusCode: res.StatusCode,
			Message:    errorMessage(resBodyBytes),
		}
	}

	var resBody chatResponseBody
	err = json.Unmarshal(resBodyBytes, &resBody)
	if err != nil {
		return "", &translate.MalformedResponseError{Response: string(resBodyBytes), Reason: fmt.Sprintf("failed to decode response: %v", err)}
	}

	c.l.Debug("chat response", zap.String("provider", c.name), zap.Any("body", resBody))

	if len(resBody.Choices) == 0 {
		return "", &translate.MalformedResponseError{Response: string(resBodyBytes), Reason: "response has no choices"}
	}

	return resBody.Choices[0].Message.Content, nil
}

func errorMessage(body []byte) string {
	var errBody chatErrorBody
	if err := json.Unmarshal(body, &errBody); err == nil {
		if msg := strings.TrimSpace(errBody.Error.Message); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(body))
}
