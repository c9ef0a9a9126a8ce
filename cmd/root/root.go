// Package root contains the root command for the application
package root

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fjacquet/invoice-recon/internal/config"
	"fjacquet/invoice-recon/internal/container"
	"fjacquet/invoice-recon/internal/logging"
)

// GlobalFlags are the persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// AppContainer is built in PersistentPreRunE and used by subcommands
	AppContainer *container.Container

	// Flags holds the persistent flag values
	Flags = GlobalFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "invoice-recon",
		Short: "Reconcile bank statement transactions against invoice files.",
		Long: `invoice-recon matches MT940 and CAMT.053 bank statement transactions to invoice
documents by finding invoice numbers in transaction descriptions. It reports
matched, ambiguous and unmatched transactions and can assemble an upload
package with the matched transactions and their invoices.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: bootstrap,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer != nil {
				_ = AppContainer.Close()
			}
		},
	}
)

// Init registers the persistent flags.
func Init() {
	Cmd.PersistentFlags().StringVarP(&Flags.ConfigFile, "config", "c", "", "Configuration file (default: search config.yaml)")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&Flags.LogFormat, "log-format", "", "Log format override (text or json)")
}

// bootstrap loads .env and configuration, applies flag overrides and builds
// the container.
func bootstrap(cmd *cobra.Command, args []string) error {
	config.LoadEnv()

	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return err
	}
	if Flags.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(Flags.LogLevel)
	}
	if Flags.LogFormat != "" {
		cfg.Log.Format = strings.ToLower(Flags.LogFormat)
	}

	Log = config.NewLogger(cfg)
	AppContainer, err = container.NewContainerWithLogger(cfg, Log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	Log.Debug("Configuration loaded",
		logging.F("config_file", Flags.ConfigFile),
		logging.F("log_level", cfg.Log.Level))
	return nil
}

// GetContainer returns the application container, nil before bootstrap.
func GetContainer() *container.Container {
	return AppContainer
}
