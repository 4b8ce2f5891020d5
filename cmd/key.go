package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/spf13/cobra"
)

func newKeyCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the upstream API key used by serve",
	}

	cmd.AddCommand(
		newKeySetCmd(root),
		newKeyDeleteCmd(root),
		newKeyStatusCmd(root),
	)

	return cmd
}

func newKeySetCmd(root *rootOptions) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API key (reads stdin when --value is omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if value == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no key given: pass --value or pipe it on stdin")
				}
				value = line
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return errors.New("api key is empty")
			}

			return root.withApp(cmd, wireOptions{}, func(a *app) error {
				if err := a.secretStore.Put(cmd.Context(), a.cfg.Backend.APIKeyRef, value); err != nil {
					return fmt.Errorf("store api key: %w", err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "api key stored as %s\n", a.cfg.Backend.APIKeyRef)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "API key value")

	return cmd
}

func newKeyDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withApp(cmd, wireOptions{}, func(a *app) error {
				if err := a.secretStore.Delete(cmd.Context(), a.cfg.Backend.APIKeyRef); err != nil {
					return fmt.Errorf("delete api key: %w", err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "api key %s deleted\n", a.cfg.Backend.APIKeyRef)
				return err
			})
		},
	}
}

func newKeyStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether an API key is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withApp(cmd, wireOptions{}, func(a *app) error {
				value, err := a.secretStore.Get(cmd.Context(), a.cfg.Backend.APIKeyRef)
				if errors.Is(err, domain.ErrSecretNotFound) {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "api key: not configured")
					return err
				}
				if err != nil {
					return fmt.Errorf("load api key: %w", err)
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "api key: %s\n", maskSecret(value))
				return err
			})
		},
	}
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:3] + strings.Repeat("*", len(value)-7) + value[len(value)-4:]
}

