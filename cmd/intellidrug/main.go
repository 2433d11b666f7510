// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the intellidrug CLI. It runs
// multi-source analyses for a subject, compares subjects, replays stored
// analyses under other strategies, answers follow-up questions, and serves
// the JSON API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/intellidrug/internal/secrets"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the effective configuration, resolved in PersistentPreRunE.
var cfg types.Config

// rootCmd is the base command for the intellidrug CLI.
var rootCmd = &cobra.Command{
	Use:   "intellidrug",
	Short: "Multi-source drug repurposing analysis",
	Long: `intellidrug runs patent, clinical, market, web, trade and internal
knowledge workers concurrently for a subject and context, and combines
their results into one recommendation with a confidence band.

Workers are configured in intellidrug.yaml. Without configuration every
worker answers from the fixture file workers.yaml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}

		c, err := decodeConfig(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = applySecrets(c, s)

		slog.SetDefault(newLogger(cfg.Log.Level))
		if len(s) > 0 {
			slog.Debug("loaded secrets", "keys", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./intellidrug.yaml or ~/.config/intellidrug/intellidrug.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// .env values become process environment before viper reads it.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("intellidrug")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "intellidrug"))
		}
	}

	viper.SetEnvPrefix("INTELLIDRUG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// envKeys are the scalar settings that may come from INTELLIDRUG_* variables
// without appearing in a config file.
var envKeys = []string{
	"orchestrator.worker_timeout",
	"orchestrator.strategy",
	"orchestrator.max_concurrent_subjects",
	"report.disabled",
	"report.output_dir",
	"report.format",
	"store.driver",
	"store.dsn",
	"server.addr",
	"server.api_token",
	"responder.url",
	"responder.api_key",
	"log.level",
}

// decodeConfig unmarshals v into a Config and applies defaults.
func decodeConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	strategy, err := types.ParseStrategy(string(c.Orchestrator.Strategy))
	if err != nil {
		return types.Config{}, err
	}
	c.Orchestrator.Strategy = strategy
	return c.WithDefaults(), nil
}

// applySecrets fills credentials missing from the config from .secrets/.
// A database-dsn secret replaces the default sqlite path.
func applySecrets(c types.Config, s secrets.Secrets) types.Config {
	c.Server.APIToken = s.Or(secrets.APIToken, c.Server.APIToken)
	c.Responder.APIKey = s.Or(secrets.ResponderAPIKey, c.Responder.APIKey)
	if dsn, ok := s[secrets.DatabaseDSN]; ok && (c.Store.DSN == "" || c.Store.DSN == types.DefaultStoreDSN) {
		c.Store.DSN = dsn
	}
	return c
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
