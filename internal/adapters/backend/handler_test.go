package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	mu   sync.Mutex
	reqs []ports.CompletionRequest
	text string
	err  error
}

func (s *stubCompleter) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.text, s.err
}

func (s *stubCompleter) last() ports.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

func post(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestGenerateBuildsDebateMessages(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{text: "I disagree, Kant."}
	handler := NewHandler(completer, Options{}, nil).Routes()

	rec := post(t, handler, "/api/generate", `{
		"personality": "You are Hume.",
		"conversation": [
			{"content": "free will"},
			{"speaker": "unknown", "content": "hello"},
			{"speaker": " Kant ", "content": "duty first"}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"generated_text":"I disagree, Kant."}`, rec.Body.String())

	req := completer.last()
	assert.Equal(t, "gpt-4", req.Model)
	assert.Equal(t, 150, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 5)
	assert.True(t, strings.HasPrefix(req.Messages[0].Content, "You are Hume.\n\n"))
	assert.Contains(t, req.Messages[0].Content, "Address the other people by name")
	assert.Equal(t, `User said: "free will"`, req.Messages[1].Content)
	assert.Equal(t, `User said: "hello"`, req.Messages[2].Content)
	assert.Equal(t, `Kant said: "duty first"`, req.Messages[3].Content)
	assert.Contains(t, req.Messages[4].Content, "shorter than 50 words")
	for _, msg := range req.Messages {
		assert.Equal(t, "user", msg.Role)
	}
}

func TestGenerateOpeningPhase(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{text: "For."}
	handler := NewHandler(completer, Options{Model: "gpt-4o", MaxTokens: 80, Temperature: 0.2}, nil).Routes()

	rec := post(t, handler, "/generate", `{"personality":"p","conversation":[{"content":"cities"}],"phase":"OPENING"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := completer.last()
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 80, req.MaxTokens)
	assert.Contains(t, req.Messages[len(req.Messages)-1].Content, "shorter than 80 words")
}

func TestGenerateRejectsInvalidBodies(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&stubCompleter{}, Options{}, nil).Routes()

	for _, body := range []string{`{`, `{"conversation":[]}`, `{"personality":"p"}`} {
		rec := post(t, handler, "/generate", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
		assert.NotEmpty(t, decodeDetail(t, rec), body)
	}
}

func TestGenerateMapsUpstreamFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "upstream status",
			err:        &ports.UpstreamStatusError{StatusCode: http.StatusTooManyRequests, Body: "rate limited"},
			wantStatus: http.StatusTooManyRequests,
			wantDetail: "rate limited",
		},
		{
			name:       "unreachable",
			err:        &ports.UpstreamRequestError{Err: errors.New("dial tcp: refused")},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Request error: dial tcp: refused",
		},
		{
			name:       "no choices",
			err:        ports.ErrNoChoices,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Unexpected response from OpenAI API",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewHandler(&stubCompleter{err: tt.err}, Options{}, nil).Routes()
			rec := post(t, handler, "/generate", `{"personality":"p","conversation":[]}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDetail, decodeDetail(t, rec))
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&stubCompleter{}, Options{}, nil).Routes()
	req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestParsePhase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.PhaseOpening, parsePhase(" Opening "))
	assert.Equal(t, domain.PhaseDebate, parsePhase(""))
	assert.Equal(t, domain.PhaseDebate, parsePhase("rebuttal"))
}

func TestServeStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, NewHandler(&stubCompleter{text: "ok"}, Options{}, nil).Routes(), nil)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
