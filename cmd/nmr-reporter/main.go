// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the nmr-reporter CLI.
package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/nmr-reporter/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the configuration decoded before every command runs.
	cfg types.Config

	logger = zerolog.Nop()
)

// rootCmd is the base command for the nmr-reporter CLI.
var rootCmd = &cobra.Command{
	Use:   "nmr-reporter",
	Short: "Parse, reassign and reformat NMR spectra in text reports",
	Long: `nmr-reporter reads spectra written in a report document, parses every
signal through the document's input format, and writes them back through the
same or a different output format.

A format is a template such as

  1H NMR (%f MHz, %s) δ /%c (%m*, J = %j Hz*, %iH, %a)/, /.

where the three "/" split head, signal, delimiter and end, "*" brackets an
optional part, and "%" followed by a letter names a field.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./nmr-reporter.yaml or ~/.config/nmr-reporter/nmr-reporter.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug events")
	rootCmd.PersistentFlags().String("markers", "", "region, toggle and variable characters (default \"/*%\")")
	rootCmd.PersistentFlags().Int("workers", 0, "records matched concurrently (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().Bool("collect-errors", false, "skip records that do not fit and report them together")

	viper.BindPFlag("parser.markers", rootCmd.PersistentFlags().Lookup("markers"))
	viper.BindPFlag("parser.workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("parser.collect_errors", rootCmd.PersistentFlags().Lookup("collect-errors"))

	viper.SetDefault("store.dir", "nmr-store")
	viper.SetDefault("store.max_results", 50)
	viper.SetDefault("output", string(types.OutputSummary))
}

func initConfig() {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("reading .env")
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("nmr-reporter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "nmr-reporter"))
		}
	}

	viper.SetEnvPrefix("NMR_REPORTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}

func loadConfig() error {
	return viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("nmr-reporter failed")
		os.Exit(1)
	}
}
