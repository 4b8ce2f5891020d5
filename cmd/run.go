package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/roundtable/internal/adapters/render/transcript"
	"github.com/bnema/roundtable/internal/domain"
	"github.com/spf13/cobra"
)

type runOutput struct {
	SessionID string          `json:"session_id"`
	Topic     string          `json:"topic"`
	Instances []runInstance   `json:"instances"`
	Turns     []runOutputTurn `json:"turns"`
	Error     string          `json:"error,omitempty"`
}

type runInstance struct {
	ID      int64  `json:"id"`
	Persona string `json:"persona"`
	Name    string `json:"name"`
}

type runOutputTurn struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		topic    string
		personas []string
		rounds   int
		asJSON   bool
		quiet    bool
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a conversation without the interactive view",
		Example: `  rt run --topic "Is lying ever right?" --persona socrates --persona kant
  rt run --topic "free will" --persona hume --persona "Hannah Arendt" --rounds 2 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rounds < 0 {
				return errors.New("--rounds must not be negative")
			}

			// Without --json or --quiet every finished turn is printed as soon
			// as it is revealed. Output is held back while the progress line
			// owns the terminal.
			streaming := !asJSON && !quiet
			opts := wireOptions{}
			var held *heldWriter
			if streaming {
				held = &heldWriter{w: cmd.OutOrStdout()}
				opts.lines = held
			}

			return root.withApp(cmd, opts, func(a *app) error {
				for _, selector := range personas {
					index, _, err := a.service.Catalog().Lookup(selector)
					if err != nil {
						return fmt.Errorf("select persona %q: %w", selector, err)
					}
					if _, err := a.service.SelectPersona(index); err != nil {
						return fmt.Errorf("select persona %q: %w", selector, err)
					}
				}
				if len(personas) > domain.MaxInstances {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "only %d personas fit at the table; the earliest ones were replaced\n", domain.MaxInstances)
				}

				seated := len(a.service.Instances())
				total := 1 + rounds*seated

				if streaming {
					header := transcript.NewRenderer(transcript.RenderOptions{
						Topic:     topic,
						SessionID: a.service.SessionID(),
						Width:     transcriptWidth,
					}).Header()
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), header); err != nil {
						return err
					}
				}

				step := func(s runStep, work func(context.Context) error) error {
					if !streaming {
						return work(cmd.Context())
					}

					held.hold()
					err := runWithProgress(cmd.Context(), cmd.ErrOrStderr(), s, work)
					if waitErr := a.typewriter.Wait(cmd.Context()); err == nil {
						err = waitErr
					}
					if releaseErr := held.release(); err == nil {
						err = releaseErr
					}
					return err
				}

				runErr := step(runStep{Seated: seated, Index: 1, Total: total}, func(ctx context.Context) error {
					_, err := a.service.StartConversation(ctx, topic)
					return err
				})
				index := 1
				for round := 1; runErr == nil && round <= rounds; round++ {
					for _, instance := range a.service.Instances() {
						index++
						s := runStep{
							Round:   round,
							Speaker: instance.Persona.Name,
							Seated:  seated,
							Index:   index,
							Total:   total,
						}
						runErr = step(s, func(ctx context.Context) error {
							return a.service.Continue(ctx, instance.ID, topic)
						})
						if runErr != nil {
							break
						}
					}
				}

				if a.typewriter != nil {
					if err := a.typewriter.Wait(cmd.Context()); err != nil && runErr == nil {
						runErr = err
					}
				}
				if streaming {
					if err := held.release(); err != nil {
						return err
					}
				}

				if err := writeRunOutput(cmd, a, topic, asJSON, streaming, runErr); err != nil {
					return err
				}
				if save {
					if err := saveSession(cmd, a); err != nil {
						return err
					}
				}
				return runErr
			})
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Conversation topic")
	cmd.Flags().StringArrayVar(&personas, "persona", nil, "Persona id or name to seat (repeatable, up to 3 stay seated)")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Continue rounds after the opening statements")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the transcript as JSON")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Do not show progress; print the transcript once the run ends")
	cmd.Flags().BoolVar(&save, "save", false, "Save the session to the archive")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("persona")

	return cmd
}

func writeRunOutput(cmd *cobra.Command, a *app, topic string, asJSON, streaming bool, runErr error) error {
	turns := a.service.SharedTranscript()

	if asJSON {
		out := runOutput{
			SessionID: a.service.SessionID(),
			Topic:     topic,
			Instances: make([]runInstance, 0, domain.MaxInstances),
			Turns:     make([]runOutputTurn, 0, len(turns)),
		}
		for _, instance := range a.service.Instances() {
			out.Instances = append(out.Instances, runInstance{
				ID:      int64(instance.ID),
				Persona: string(instance.Persona.ID),
				Name:    instance.Persona.Name,
			})
		}
		for _, turn := range turns {
			out.Turns = append(out.Turns, runOutputTurn{Speaker: turn.Speaker, Text: turn.Text, At: turn.At})
		}
		if runErr != nil {
			out.Error = runErr.Error()
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	// Turns were already printed as they arrived.
	if streaming {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "\n%d turn(s) in session %s\n", len(turns), a.service.SessionID())
		return err
	}

	rendered := a.transcriptRenderer(turns, transcript.RenderOptions{
		Topic:     topic,
		SessionID: a.service.SessionID(),
		Width:     transcriptWidth,
	})

	_, err := fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
