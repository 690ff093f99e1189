// =============================================================================
// Invoice XML Exporter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (invoice-xml-export)
//   ├── exportCmd  (invoice-xml-export export)
//   ├── serveCmd   (invoice-xml-export serve)
//   ├── checkCmd   (invoice-xml-export check)
//   └── versionCmd (invoice-xml-export version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the configuration file (--config), falling back to defaults
//      when the default file does not exist
//   2. Sets up logging from log_level / log_file and --verbose
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danutsss/invoice-xml-export/internal/config"
	"github.com/danutsss/invoice-xml-export/internal/ucrm"
	"github.com/danutsss/invoice-xml-export/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig is the loaded configuration, set before a subcommand runs.
var mainConfig *config.MainConfig

// logger is the application logger, set before a subcommand runs.
var logger = logrus.New()

// logFile is the open log file, if log_file is set.
var logFile *os.File

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "invoice-xml-export",
	Short: "Export billing invoices as e-invoicing XML",
	Long: `invoice-xml-export reads invoices from the billing platform API and
converts them into the XML format accepted by the Romanian e-invoicing
importer. Invoices are grouped into documents of at most export.chunk_size
invoices each.

Example Usage:
  invoice-xml-export serve                                   # Start the web form
  invoice-xml-export export --organization 1 --vat           # Export every invoice with VAT
  invoice-xml-export export --organization 1 --since 2023-05-01 --until 2023-05-31
  invoice-xml-export check output/*.xml                      # Check generated documents`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		mainConfig = cfg
		return setupLogging(cfg)
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// loadConfig loads --config. A missing default file is not an error; the
// defaults (plus UCRM_APP_KEY) are used instead.
func loadConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	if !cmd.Flags().Changed("config") && !utils.FileExists(cfgFile) {
		return config.ParseMainConfig(nil)
	}

	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	return cfg, nil
}

// setupLogging configures the logger from the configuration.
func setupLogging(cfg *config.MainConfig) error {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if verbose {
		level = logrus.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = file
		logger.SetOutput(io.MultiWriter(os.Stderr, file))
	}

	return nil
}

// newAPIClient creates the billing API client from the configuration.
func newAPIClient(cfg *config.MainConfig) (*ucrm.API, error) {
	if cfg.API.URL == "" {
		return nil, fmt.Errorf("api.url is not configured")
	}
	if cfg.API.AppKey == "" {
		return nil, fmt.Errorf("api.app_key is not configured (set it in the config file or %s)", config.AppKeyEnv)
	}

	return ucrm.New(cfg.API.URL, cfg.API.AppKey,
		ucrm.WithTimeout(cfg.API.Timeout),
		ucrm.WithLogger(logger),
	), nil
}
