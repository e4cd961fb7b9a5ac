package server

import (
	"github.com/spf13/cobra"
	"github.com/thereayou/lovenest/internal/config"
)

const releaseVersion = "1.0.0"

// NewCommand builds the lovenest root command.
func NewCommand() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "lovenest",
		Short:         "Realtime backend for a shared couple dashboard.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			s, err := NewServer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			return s.Run(cmd.Context())
		},
	}

	config.RegisterFlags(v, cmd.Flags())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("lovenest v{{.Version}}\n")

	return cmd
}
