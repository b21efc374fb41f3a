// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch reads remote or local sources (CSV tables, JSON-LD
// documents, GLB models) through the response cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/hra-relations/internal/cache"
	"github.com/pdiddy/hra-relations/internal/httputil"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// Fetcher retrieves sources by URL or filesystem path.
type Fetcher struct {
	Client *http.Client
	Cache  cache.Cache
	// TTL overrides the cache's default expiry when non-zero.
	TTL  time.Duration
	HTTP types.HTTPConfig
}

// New returns a Fetcher for cfg. A nil cache disables caching.
func New(cfg types.HTTPConfig, c cache.Cache) *Fetcher {
	if c == nil {
		c = cache.Nop{}
	}
	return &Fetcher{
		Client: httputil.NewClient(cfg),
		Cache:  c,
		HTTP:   cfg,
	}
}

// IsURL reports whether src should be fetched over HTTP.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Get returns the contents of src. URLs are fetched with retry and cached;
// anything else is read from disk.
func (f *Fetcher) Get(ctx context.Context, src string) ([]byte, error) {
	if !IsURL(src) {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src, err)
		}
		return data, nil
	}

	key := cache.Key("GET", src)
	if data, ok := f.Cache.Get(key); ok {
		return data, nil
	}

	data, err := f.get(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := f.Cache.Set(key, data, f.TTL); err != nil {
		slog.Warn("cache write failed", "url", src, "error", err)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.HTTP.UserAgent != "" {
		req.Header.Set("User-Agent", f.HTTP.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, f.HTTP.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	return data, nil
}

// Download writes the contents of src to destPath using a temporary file
// in the same directory, renamed into place on success.
func (f *Fetcher) Download(ctx context.Context, src, destPath string) error {
	data, err := f.Get(ctx, src)
	if err != nil {
		return err
	}
	return WriteFileAtomic(destPath, data)
}

// WriteFileAtomic writes data to path through a temporary file, creating
// the parent directory if needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
