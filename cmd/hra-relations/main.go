// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the hra-relations CLI. Each batch
// job of the relations pipeline is a subcommand: collisions mesh,
// collisions api, validate and view.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/hra-relations/internal/secrets"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the effective configuration, loaded before any subcommand runs.
var cfg types.PipelineConfig

var rootCmd = &cobra.Command{
	Use:   "hra-relations",
	Short: "Generate and validate 3D reference organ relations",
	Long: `hra-relations derives "part of" relationships between anatomical
structures from the collisions of their 3D reference organ meshes, and
validates the derived relationships against an ontology SPARQL endpoint.

Batch jobs: collisions mesh, collisions api, validate. The view command
serves a browser preview of a GLB model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("loaded secrets", "keys", keys)
		}
		secrets.Apply(&loaded, s)
		cfg = loaded
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./hra-relations.yaml or ~/.config/hra-relations/hra-relations.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of token files")
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("hra-relations")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "hra-relations"))
		}
	}

	viper.SetEnvPrefix("HRA_RELATIONS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(cmd *cobra.Command) error {
	name, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("invalid --log-level %q: use debug, info, warn, or error", name)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
