package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/bnema/roundtable/internal/adapters/render/transcript"
	"github.com/bnema/roundtable/internal/application"
	"github.com/spf13/cobra"
)

type sessionSummary struct {
	ID      string    `json:"id"`
	Topic   string    `json:"topic"`
	SavedAt time.Time `json:"saved_at"`
	Turns   int       `json:"turns"`
}

func newSessionsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse saved sessions",
	}

	cmd.AddCommand(
		newSessionsListCmd(root),
		newSessionsShowCmd(root),
	)

	return cmd
}

func newSessionsListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withApp(cmd, wireOptions{}, func(a *app) error {
				records, err := a.archive.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}

				if asJSON {
					out := make([]sessionSummary, 0, len(records))
					for _, record := range records {
						out = append(out, sessionSummary{ID: record.ID, Topic: record.Topic, SavedAt: record.SavedAt, Turns: len(record.Turns)})
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(out)
				}

				if len(records) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "no saved sessions")
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tSAVED\tTURNS\tTOPIC")
				for _, record := range records {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
						record.ID, record.SavedAt.Local().Format(time.DateTime), len(record.Turns), record.Topic)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print sessions as JSON")

	return cmd
}

func newSessionsShowCmd(root *rootOptions) *cobra.Command {
	var showTimes bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a saved session transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, wireOptions{}, func(a *app) error {
				record, err := a.archive.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("show session: %w", err)
				}

				rendered := a.transcriptRenderer(record.Turns, transcript.RenderOptions{
					Topic:     record.Topic,
					SessionID: record.ID,
					Width:     transcriptWidth,
					ShowTimes: showTimes,
				})

				_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&showTimes, "times", false, "Show when each turn was generated")

	return cmd
}

func saveSession(cmd *cobra.Command, a *app) error {
	record, err := a.service.SaveSession(cmd.Context(), a.archive)
	if errors.Is(err, application.ErrNothingToSave) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "nothing to save: the session has no turns")
		return nil
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "session saved: %s\n", record.ID)
	return err
}
