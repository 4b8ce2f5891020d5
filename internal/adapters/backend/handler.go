package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/roundtable/internal/ports"
	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Model) == "" {
		o.Model = "gpt-4"
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 150
	}
	if o.Temperature == 0 {
		o.Temperature = 0.7
	}
	return o
}

type GenerateRequest struct {
	Personality  *string   `json:"personality"`
	Conversation []Message `json:"conversation"`
	Phase        string    `json:"phase,omitempty"`
}

type GenerateResponse struct {
	GeneratedText string `json:"generated_text"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Handler serves the generation endpoint used by the panel client.
type Handler struct {
	completer ports.Completer
	options   Options
	logger    *zap.Logger
}

func NewHandler(completer ports.Completer, options Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{completer: completer, options: options.withDefaults(), logger: logger}
}

// Routes mounts the handler on /generate and /api/generate with permissive
// CORS.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", h.generate)
	mux.HandleFunc("POST /api/generate", h.generate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return cors(mux)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req GenerateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Personality == nil {
		writeError(w, http.StatusUnprocessableEntity, "personality is required")
		return
	}
	if req.Conversation == nil {
		writeError(w, http.StatusUnprocessableEntity, "conversation is required")
		return
	}

	phase := parsePhase(req.Phase)
	text, err := h.completer.Complete(r.Context(), ports.CompletionRequest{
		Model:       h.options.Model,
		Messages:    buildMessages(*req.Personality, req.Conversation, phase),
		MaxTokens:   h.options.MaxTokens,
		Temperature: h.options.Temperature,
	})
	logger := h.logger.With(
		zap.String("path", r.URL.Path),
		zap.String("phase", string(phase)),
		zap.Int("context_turns", len(req.Conversation)),
		zap.Duration("elapsed", time.Since(started)),
	)
	if err != nil {
		status, detail := upstreamFailure(err)
		logger.Warn("generate failed", zap.Int("status", status), zap.Error(err))
		writeError(w, status, detail)
		return
	}

	logger.Info("generate served", zap.Int("chars", len(text)))
	writeJSON(w, http.StatusOK, GenerateResponse{GeneratedText: text})
}

func upstreamFailure(err error) (int, string) {
	var statusErr *ports.UpstreamStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, statusErr.Body
	}

	var requestErr *ports.UpstreamRequestError
	if errors.As(err, &requestErr) {
		return http.StatusInternalServerError, "Request error: " + requestErr.Error()
	}

	return http.StatusInternalServerError, "Unexpected response from OpenAI API"
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		header.Set("Access-Control-Allow-Origin", origin)
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			allowHeaders := r.Header.Get("Access-Control-Request-Headers")
			if allowHeaders == "" {
				allowHeaders = "*"
			}
			header.Set("Access-Control-Allow-Headers", allowHeaders)
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
