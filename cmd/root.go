package cmd

import (
	"github.com/bnema/roundtable/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	v          *viper.Viper
	configFile string
}

func newRootCmd() *cobra.Command {
	root := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "rt",
		Short:         "roundtable (rt): seat up to three personas and let them argue",
		Long:          "rt (roundtable) seats up to three personas from a catalog, asks a generation service for their opening statements on a topic and lets each of them continue the conversation in turn.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, root)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&root.configFile, "config", "", "Config file (default $HOME/.roundtable/config.toml)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-file", "", "Log file path, or stderr")
	flags.String("endpoint", "", "Generation service endpoint")
	flags.String("personas", "", "Persona catalog file (.toml, .yaml)")
	_ = root.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = root.v.BindPFlag(config.KeyLogFile, flags.Lookup("log-file"))
	_ = root.v.BindPFlag(config.KeyGenerationEndpoint, flags.Lookup("endpoint"))
	_ = root.v.BindPFlag(config.KeyPersonasPath, flags.Lookup("personas"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newChatCmd(root),
		newRunCmd(root),
		newPersonasCmd(root),
		newServeCmd(root),
		newKeyCmd(root),
		newSessionsCmd(root),
	)

	return rootCmd
}

// withApp wires the application for one command run and releases it after fn
// returns.
func (r *rootOptions) withApp(cmd *cobra.Command, opts wireOptions, fn func(*app) error) error {
	a, err := wireApp(cmd.Context(), r.v, r.configFile, opts)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(a)
}
