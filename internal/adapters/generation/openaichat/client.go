package openaichat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/roundtable/internal/ports"
)

const maxResponseBytes = 4 << 20

// Client speaks the chat-completions wire format.
type Client struct {
	URL            string
	APIKey         string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.Completer = Client{}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	payload := chatRequest{
		Model:       req.Model,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, chatMessage(msg))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", &ports.UpstreamRequestError{Err: fmt.Errorf("create completion request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return "", &ports.UpstreamRequestError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &ports.UpstreamRequestError{Err: fmt.Errorf("read completion response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ports.UpstreamStatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", ports.ErrNoChoices
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
