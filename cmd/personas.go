package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type personaOutput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

func newPersonasCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List the persona catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withApp(cmd, wireOptions{}, func(a *app) error {
				personas := a.service.Personas()

				if asJSON {
					out := make([]personaOutput, 0, len(personas))
					for _, persona := range personas {
						out = append(out, personaOutput{ID: string(persona.ID), Name: persona.Name, Prompt: persona.Prompt})
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(out)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for i, persona := range personas {
					_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, persona.ID, persona.Name)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print personas as JSON, prompts included")

	return cmd
}
