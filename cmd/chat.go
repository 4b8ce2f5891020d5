package cmd

import (
	"github.com/bnema/roundtable/internal/adapters/render/panels"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive panel view (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, root)
		},
	}

	cmd.Flags().Bool("save", false, "Save the session to the archive on exit")

	return cmd
}

func runChat(cmd *cobra.Command, root *rootOptions) error {
	save, _ := cmd.Flags().GetBool("save")

	return root.withApp(cmd, wireOptions{interactive: true}, func(a *app) error {
		a.logger.Info("chat started", zap.String("session", a.service.SessionID()))
		err := panels.Run(cmd.Context(), a.service, a.bridge, panels.Options{AltScreen: true})
		a.logger.Info("chat finished", zap.Int("turns", len(a.service.SharedTranscript())))
		if err != nil {
			return err
		}

		if save {
			return saveSession(cmd, a)
		}
		return nil
	})
}
