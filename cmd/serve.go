package cmd

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/roundtable/internal/adapters/backend"
	"github.com/bnema/roundtable/internal/adapters/generation/openaichat"
	"github.com/bnema/roundtable/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bundled generation backend",
		Long:  "serve exposes POST /generate and /api/generate, turning a persona prompt and conversation into one chat-completions call upstream.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withApp(cmd, wireOptions{logToStderr: true}, func(a *app) error {
				cfg := a.cfg.Backend
				if listen == "" {
					listen = cfg.Listen
				}

				apiKey, err := a.secretStore.Get(cmd.Context(), cfg.APIKeyRef)
				if err != nil {
					if !errors.Is(err, domain.ErrSecretNotFound) {
						return fmt.Errorf("load api key: %w", err)
					}
					a.logger.Warn("no upstream api key configured; set OPENAI_API_KEY or run `rt key set`",
						zap.String("ref", cfg.APIKeyRef))
				}

				completer := openaichat.Client{
					URL:            cfg.UpstreamURL,
					APIKey:         apiKey,
					RequestTimeout: cfg.Timeout,
				}
				handler := backend.NewHandler(completer, backend.Options{
					Model:       cfg.Model,
					MaxTokens:   cfg.MaxTokens,
					Temperature: cfg.Temperature,
				}, a.logger.Named("backend"))

				listener, err := net.Listen("tcp", listen)
				if err != nil {
					return fmt.Errorf("listen on %s: %w", listen, err)
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "serving on http://%s (model %s)\n", listener.Addr(), cfg.Model)
				return backend.Serve(ctx, listener, handler.Routes(), a.logger)
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from backend.listen)")

	return cmd
}
