package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

var ErrMissingEndpoint = errors.New("generation endpoint is required")

// Client calls a generation service over HTTP. Each Generate is exactly one
// POST; there are no retries.
type Client struct {
	Endpoint       string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

var _ ports.Generator = Client{}

type message struct {
	Speaker string `json:"speaker,omitempty"`
	Content string `json:"content"`
}

type generateRequest struct {
	Personality  string    `json:"personality"`
	Conversation []message `json:"conversation"`
	Phase        string    `json:"phase,omitempty"`
}

type generateResponse struct {
	GeneratedText *string `json:"generated_text"`
}

func (c Client) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if strings.TrimSpace(c.Endpoint) == "" {
		return "", &domain.TransportError{Err: ErrMissingEndpoint}
	}

	payload := generateRequest{
		Personality:  req.Personality,
		Conversation: make([]message, 0, len(req.Conversation)),
		Phase:        string(req.Phase),
	}
	for _, turn := range req.Conversation {
		payload.Conversation = append(payload.Conversation, message{Speaker: turn.Speaker, Content: turn.Text})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &domain.TransportError{Err: fmt.Errorf("create generate request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		c.logger().Warn("generation request failed", zap.String("endpoint", c.Endpoint), zap.Error(err))
		return "", &domain.TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &domain.TransportError{Err: fmt.Errorf("read generate response: %w", err)}
	}

	c.logger().Debug("generation response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &domain.ServiceError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &domain.ServiceError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode generate response: %v", err)}
	}
	if decoded.GeneratedText == nil {
		return "", &domain.ServiceError{StatusCode: resp.StatusCode, Message: "response missing generated_text"}
	}

	return *decoded.GeneratedText, nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func errorMessage(status int, body []byte) string {
	message := strings.TrimSpace(string(body))
	if message == "" {
		return http.StatusText(status)
	}
	return message
}
