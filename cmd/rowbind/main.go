// cmd/rowbind/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/chmenegatti/rowbind/pkg/config"
	"github.com/chmenegatti/rowbind/pkg/logging"
	"github.com/chmenegatti/rowbind/pkg/schema"

	// Data sources available to preview.
	_ "github.com/chmenegatti/rowbind/pkg/dialects/mongo"
	_ "github.com/chmenegatti/rowbind/pkg/dialects/mysql"
	_ "github.com/chmenegatti/rowbind/pkg/dialects/postgres"
	_ "github.com/chmenegatti/rowbind/pkg/dialects/sqlite"
	_ "github.com/chmenegatti/rowbind/pkg/dialects/sqlserver"
)

// app holds what the persistent pre-run loads for the subcommands.
type app struct {
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
	parser  *schema.Parser
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "rowbind",
		Short: "Compile and preview row binding plans",
		Long: `rowbind compiles the plans that convert database rows into records
described in a YAML descriptor file, and previews those conversions
against a configured data source.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "Configuration file (default is ./rowbind.yaml or $HOME/.rowbind/rowbind.yaml)")

	rootCmd.AddCommand(newPlanCmd(a), newPreviewCmd(a))
	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Logging, cmd.ErrOrStderr())

	parser, err := schema.NewParserFromConfig(cfg.Binding, a.logger)
	if err != nil {
		return err
	}
	a.parser = parser
	a.logger.Debug("configuration loaded", "file", a.cfgFile, "dialect", cfg.Database.Dialect)
	return nil
}

// Execute runs the root command until it returns or an interrupt arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: '%s'\n", err)
		stop()
		os.Exit(1)
	}
}

func main() {
	Execute()
}
