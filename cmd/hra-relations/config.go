// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/hra-relations/pkg/types"
)

// secretKeys are config keys that have no default but may come from the
// environment.
var secretKeys = []string{
	"api_collision.collision_token",
	"validation.endpoint_token",
	"mesh_collision.detector.image",
}

// loadConfig merges the defaults, the config file and HRA_RELATIONS_*
// environment variables.
func loadConfig() (types.PipelineConfig, error) {
	c := types.DefaultConfig()
	if err := registerDefaults(c); err != nil {
		return c, err
	}
	for _, key := range secretKeys {
		if err := viper.BindEnv(key); err != nil {
			return c, fmt.Errorf("binding %s: %w", key, err)
		}
	}
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding configuration: %w", err)
	}
	return c, nil
}

// registerDefaults makes every key of c known to viper. AutomaticEnv only
// overrides keys viper already knows.
func registerDefaults(c types.PipelineConfig) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding default configuration: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decoding default configuration: %w", err)
	}
	setDefaults("", m)
	return nil
}

func setDefaults(prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaults(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// redacted returns c with tokens masked for display.
func redacted(c types.PipelineConfig) types.PipelineConfig {
	if c.APICollision.CollisionToken != "" {
		c.APICollision.CollisionToken = "<redacted>"
	}
	if c.Validation.EndpointToken != "" {
		c.Validation.EndpointToken = "<redacted>"
	}
	return c
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Show prints the configuration after merging the defaults, the config
file, HRA_RELATIONS_* environment variables and the .secrets/ directory.
Tokens are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

// writeConfig writes c to w as YAML with tokens redacted.
func writeConfig(w io.Writer, c types.PipelineConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(redacted(c)); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	return enc.Close()
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
