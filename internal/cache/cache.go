// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores remote responses (CSV tables, JSON-LD documents,
// SPARQL results, GLB models) so repeated runs do not refetch them.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pdiddy/hra-relations/pkg/types"
)

// Cache is a byte cache with per-entry expiry.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from the parts that identify a response, such as
// a URL or an endpoint plus a query.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "hra:v1:" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory only when cfg.Dir is
// empty, memory plus disk otherwise. A disabled config yields a cache that
// never stores anything.
func New(cfg types.CacheConfig) Cache {
	if cfg.Disabled {
		return Nop{}
	}
	memTTL := cfg.MemoryTTL
	if memTTL <= 0 {
		memTTL = 10 * time.Minute
	}
	mem := NewMemoryCache(memTTL, 10*time.Minute)
	if cfg.Dir == "" {
		return mem
	}
	return NewLayeredCache(mem, NewDiskCache(cfg.Dir, cfg.TTL))
}

// Nop is a Cache that stores nothing.
type Nop struct{}

func (Nop) Get(string) ([]byte, bool) { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error { return nil }
func (Nop) Clear() error { return nil }
