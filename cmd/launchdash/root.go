// launchdash serves an interactive dashboard of historical launch outcomes.
//
// Usage:
//
//	launchdash serve   [--config file] [--data path|s3://bucket/key] [--addr :8050]
//	launchdash inspect [--config file] [--data path|s3://bucket/key] [--json]
//	launchdash schema  [--driver sqlite|postgres] [--table name]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"launchdash/internal/config"
	"launchdash/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	envFile    string
	configPath string
	data       string
	logLevel   string
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:   "launchdash",
	Short: "Launch records dashboard",
	Long: "launchdash loads a table of launch records once and serves a dashboard with\n" +
		"a success pie by site and a payload against outcome scatter.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.envFile, "env-file", "", "Dotenv file with LAUNCHDASH_* settings")
	f.StringVar(&rootFlags.configPath, "config", "", "YAML config file (default $"+config.ConfigPathEnv+")")
	f.StringVar(&rootFlags.data, "data", "", "Dataset location: a CSV or SQLite file path, or s3://bucket/key")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.Version = version
}

// loadConfig resolves file, environment and flag settings, in that order of
// precedence from lowest to highest, and configures logging. An --env-file
// only fills variables the environment does not already set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if rootFlags.envFile != "" {
		if err := config.LoadEnvFile(rootFlags.envFile); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if rootFlags.data != "" {
		cfg.SetData(rootFlags.data)
	}
	if rootFlags.logLevel != "" {
		cfg.Log.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		cfg.Log.Format = rootFlags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, err
	}
	logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
