// Package cmd implements the housing command line.
package cmd

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/scigo-housing/config"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
)

const (
	envPrefix     = "HOUSING"
	defaultConfig = "config/config.yaml"
)

var rootDescription = "housing runs the Boston housing regression pipeline: process the raw data, train and evaluate a random forest, and chart the feature importances."

var rootCmd = &cobra.Command{
	Use:               "housing",
	Short:             "Boston housing regression pipeline",
	Long:              rootDescription,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

var (
	ok   = color.New(color.FgGreen).SprintFunc()
	fail = color.New(color.FgRed).SprintFunc()
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", defaultConfig, "base settings document; the overlay <dir>/<env>.yaml is merged over it")
	flags.StringP("env", "e", "", "environment overlay name, e.g. development or production")
	flags.String("log-level", "", "log level (debug, info, warn, error); overrides logging.level of the settings")
	flags.Bool("pretty", false, "human readable console logs instead of JSON")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(processCmd, regressCmd, visualizeCmd, runCmd)
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.GetLogger().Error("housing failed", "error", err)
		rootCmd.PrintErrf("%s %v\n", fail("✗"), err)
		os.Exit(1)
	}
}

// loadConfig sets up logging and loads the settings named by the flags.
// An explicit --log-level wins over the level in the settings.
func loadConfig() (*config.Config, error) {
	level := viper.GetString("log-level")
	pretty := viper.GetBool("pretty")

	bootLevel := level
	if bootLevel == "" {
		bootLevel = "info"
	}
	if err := log.SetupLogger(bootLevel, pretty); err != nil {
		return nil, err
	}

	cfg, err := config.Load(viper.GetString("config"), viper.GetString("env"))
	if err != nil {
		return nil, err
	}

	if level == "" && cfg.LogLevel() != bootLevel {
		if err := log.SetupLogger(cfg.LogLevel(), pretty); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
