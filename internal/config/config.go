// Package config provides configuration management for mtb using Viper.
//
// Configuration is read from a YAML or JSON file (mtb.config.yaml,
// .mtbrc.yml, .mtbrc.json), overridden by MTB_ environment variables and
// command-line flags. Directory settings fall back to their defaults key by
// key, so a file that only sets directories.output keeps the other defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/validation"
)

// Default values.
const (
	DefaultComponentsDir = "src/components/"
	DefaultPagesDir      = "src/pages/"
	DefaultAssetsDir     = "src/assets/"
	DefaultOutputDir     = "public/"
	DefaultHost          = "localhost"
	DefaultPort          = 3000
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// EnvPrefix is the prefix of environment variable overrides, for example
// MTB_DIRECTORIES_OUTPUT.
const EnvPrefix = "MTB"

// ConfigFileNames are searched in the working directory, in order.
var ConfigFileNames = []string{"mtb.config.yaml", ".mtbrc.yml", ".mtbrc.json"}

type Config struct {
	Directories DirectoriesConfig `mapstructure:"directories" yaml:"directories" json:"directories"`
	Watch       bool              `mapstructure:"watch" yaml:"watch" json:"watch"`
	Verbose     bool              `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server" json:"server"`
	Log         LogConfig         `mapstructure:"log" yaml:"log" json:"log"`
}

type DirectoriesConfig struct {
	Components string `mapstructure:"components" yaml:"components" json:"components"`
	Pages      string `mapstructure:"pages" yaml:"pages" json:"pages"`
	Assets     string `mapstructure:"assets" yaml:"assets" json:"assets"`
	Output     string `mapstructure:"output" yaml:"output" json:"output"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host" json:"host"`
	Port           int      `mapstructure:"port" yaml:"port" json:"port"`
	LiveReload     bool     `mapstructure:"live_reload" yaml:"live_reload" json:"live_reload"`
	Open           bool     `mapstructure:"open" yaml:"open" json:"open"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	Quiet  bool   `mapstructure:"quiet" yaml:"quiet,omitempty" json:"quiet,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Directories: DirectoriesConfig{
			Components: DefaultComponentsDir,
			Pages:      DefaultPagesDir,
			Assets:     DefaultAssetsDir,
			Output:     DefaultOutputDir,
		},
		Server: ServerConfig{
			Host:       DefaultHost,
			Port:       DefaultPort,
			LiveReload: true,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the global viper state into a Config, fills unset values with
// defaults and validates the result.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load for an explicit viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	defaults := Default()

	// Directories merge key by key
	if config.Directories.Components == "" {
		config.Directories.Components = defaults.Directories.Components
	}
	if config.Directories.Pages == "" {
		config.Directories.Pages = defaults.Directories.Pages
	}
	if config.Directories.Assets == "" {
		config.Directories.Assets = defaults.Directories.Assets
	}
	if config.Directories.Output == "" {
		config.Directories.Output = defaults.Directories.Output
	}

	if config.Server.Host == "" {
		config.Server.Host = defaults.Server.Host
	}
	if !v.IsSet("server.port") {
		config.Server.Port = defaults.Server.Port
	}

	// Handle bool settings set via viper (workaround for viper bool handling)
	if v.IsSet("server.live_reload") {
		config.Server.LiveReload = v.GetBool("server.live_reload")
	} else {
		config.Server.LiveReload = defaults.Server.LiveReload
	}
	if v.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = defaults.Log.Format
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Keys lists every configuration key, for environment binding.
var Keys = []string{
	"directories.components",
	"directories.pages",
	"directories.assets",
	"directories.output",
	"watch",
	"verbose",
	"server.host",
	"server.port",
	"server.live_reload",
	"server.open",
	"server.allowed_origins",
	"log.level",
	"log.format",
	"log.quiet",
}

// BindEnv enables MTB_ environment overrides on v. Nested keys use
// underscores: directories.output becomes MTB_DIRECTORIES_OUTPUT.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper already knows about
	for _, key := range Keys {
		_ = v.BindEnv(key)
	}
}

// LoggerConfig translates the log section into a logging configuration.
// Verbose forces debug level.
func (c *Config) LoggerConfig() (*logging.LoggerConfig, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Verbose {
		level = logging.LevelDebug
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = c.Log.Format
	lc.Quiet = c.Log.Quiet
	return lc, nil
}

// Addr returns the host:port the dev server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	dirs := map[string]string{
		"components": config.Directories.Components,
		"pages":      config.Directories.Pages,
		"assets":     config.Directories.Assets,
		"output":     config.Directories.Output,
	}
	for _, key := range []string{"components", "pages", "assets", "output"} {
		if err := validation.ValidatePath(dirs[key]); err != nil {
			return fmt.Errorf("directories.%s: %w", key, err)
		}
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log config: unknown format %q", config.Log.Format)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}
