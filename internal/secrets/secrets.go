// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API tokens from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed file
// contents are the value.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/hra-relations/pkg/types"
)

// DefaultDir is the secrets directory used when none is configured.
const DefaultDir = ".secrets"

// Recognized key files.
const (
	CollisionAPIToken = "collision-api-token"
	SPARQLToken       = "sparql-token"
)

// Load reads every file in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Unreadable files are
// logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "key", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Apply copies known tokens into cfg. Tokens already set in cfg (from the
// config file or the environment) are kept.
func Apply(cfg *types.PipelineConfig, s map[string]string) {
	if v := s[CollisionAPIToken]; v != "" && cfg.APICollision.CollisionToken == "" {
		cfg.APICollision.CollisionToken = v
	}
	if v := s[SPARQLToken]; v != "" && cfg.Validation.EndpointToken == "" {
		cfg.Validation.EndpointToken = v
	}
}
