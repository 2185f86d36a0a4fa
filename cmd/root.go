// Package cmd provides the mtb command-line interface.
//
// Configuration is read from, in order of precedence:
//
//  1. Command-line flags (--log-level, --port, --output, ...)
//  2. MTB_* environment variables (MTB_SERVER_PORT, MTB_DIRECTORIES_OUTPUT)
//  3. The config file: --config, then MTB_CONFIG_FILE, then the first of
//     mtb.config.yaml, .mtbrc.yml and .mtbrc.json in the working directory
//  4. Built-in defaults
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mtb-build/mtb/internal/config"
	"github.com/mtb-build/mtb/internal/logging"
)

// ConfigFileEnv names a config file when --config is not given.
const ConfigFileEnv = "MTB_CONFIG_FILE"

// rootOptions carries the global flags to every subcommand.
type rootOptions struct {
	configFile string
	logLevel   string
	verbose    bool
	quiet      bool

	// configUsed is the file the last loadConfig call read, if any.
	configUsed string
}

// NewRootCommand builds the mtb command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "mtb",
		Short: "Build static sites from reusable HTML components",
		Long: `mtb composes static HTML pages from reusable components.

Pages reference components with placeholder tags such as {{Header}} or
{{ui/Button text="Go" href="/start"}}; components read their properties with
${name}. mtb expands every tag, detects circular references and writes the
result to the output directory.

Quick Start:
  mtb init my-site        Create a project
  mtb serve               Build, watch and serve with live reload
  mtb build               Build once
  mtb list                List components`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default mtb.config.yaml, or "+ConfigFileEnv+")")
	flags.StringVarP(&opts.logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress log output")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(
		newBuildCommand(opts),
		newWatchCommand(opts),
		newServeCommand(opts),
		newListCommand(opts),
		newValidateCommand(opts),
		newInitCommand(opts),
		newNewCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig resolves the config file, applies MTB_ environment overrides
// and the global logging flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	v := viper.New()
	config.BindEnv(v)

	file, err := o.findConfigFile()
	if err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	o.configUsed = file

	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.verbose {
		cfg.Verbose = true
	}
	if o.quiet {
		cfg.Log.Quiet = true
	}

	return cfg, nil
}

// findConfigFile returns "" when no file applies. An explicitly named file
// must exist.
func (o *rootOptions) findConfigFile() (string, error) {
	explicit := o.configFile
	if explicit == "" {
		explicit = os.Getenv(ConfigFileEnv)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	for _, name := range config.ConfigFileNames {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name, nil
		}
	}
	return "", nil
}

// newLogger creates the process logger from cfg, writing to cmd's stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) (logging.Logger, error) {
	lc, err := cfg.LoggerConfig()
	if err != nil {
		return nil, err
	}
	lc.Output = cmd.ErrOrStderr()
	return logging.NewLogger(lc), nil
}

// setup is the common preamble of commands that need config and a logger.
func (o *rootOptions) setup(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	if o.configUsed != "" {
		logger.Debug(cmd.Context(), "using config file", "path", o.configUsed)
	}
	return cfg, logger, nil
}
