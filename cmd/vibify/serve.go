package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Conceptual-Machines/vibify-api/internal/api"
	"github.com/Conceptual-Machines/vibify-api/internal/observability"
	"github.com/Conceptual-Machines/vibify-api/internal/storage"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// request logs always go to the terminal when serving
			log.SetOutput(os.Stderr)

			cfg := resolveConfig(v)
			if port := v.GetString("port"); port != "" {
				cfg = cfg.WithPort(port)
			}

			flush := observability.InitSentry(cfg, releaseVersion)
			defer flush()

			if err := storage.EnsureDirectories(cfg); err != nil {
				return err
			}

			server, err := api.NewServer(cmd.Context(), cfg, releaseVersion)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().String("port", "", "listen port (default from PORT or 8000)")
	return cmd
}
