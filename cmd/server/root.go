package main

import (
	"fmt"
	"os"

	"github.com/gameshelf/backend/config"
	"github.com/gameshelf/backend/internal/logger"
	"github.com/spf13/cobra"
)

// cliContext carries state shared by the subcommands
type cliContext struct {
	cfg *config.Config
}

// rootCommand creates the gameshelf command tree. Running it without a
// subcommand starts the HTTP server.
func rootCommand() *cobra.Command {
	cli := &cliContext{}

	rootCmd := &cobra.Command{
		Use:           "gameshelf",
		Short:         "GameShelf backend",
		Long:          `Board game shelf scanning, catalog lookup and library sharing API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), cli.cfg)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), cli.cfg)
		},
	}

	rootCmd.AddCommand(serveCmd, scanCommand(cli), tokenCommand(cli))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cli.cfg = cfg

		// scan and token write results to stdout
		logOut := os.Stdout
		if cmd.Name() != serveCmd.Name() && cmd != rootCmd {
			logOut = os.Stderr
		}
		logger.InitTo(logOut, cfg.Server.Environment, cfg.Log.Level)
		return nil
	}

	return rootCmd
}
