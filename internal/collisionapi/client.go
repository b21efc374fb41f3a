// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collisionapi calls the CCF collision service, which returns the
// anatomical structures a RUI location overlaps.
package collisionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/hra-relations/internal/httputil"
	"github.com/pdiddy/hra-relations/pkg/types"
)

const maxErrorBody = 512

// Client posts RUI locations to the collision endpoint.
type Client struct {
	URL     string
	Token   string
	HTTP    *http.Client
	Config  types.HTTPConfig
	Limiter *Limiter
}

// New returns a client for cfg. Calls are limited to cfg.RequestsPerSecond
// with cfg.Burst per host.
func New(cfg types.APICollisionConfig) *Client {
	return &Client{
		URL:     cfg.CollisionURL,
		Token:   cfg.CollisionToken,
		HTTP:    httputil.NewClient(cfg.HTTPConfig),
		Config:  cfg.HTTPConfig,
		Limiter: NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}
}

// Collisions returns the structures rui collides with.
func (c *Client) Collisions(ctx context.Context, rui types.SpatialEntity) ([]types.CollisionItem, error) {
	body, err := json.Marshal(rui)
	if err != nil {
		return nil, fmt.Errorf("encoding RUI location: %w", err)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx, c.URL); err != nil {
			return nil, fmt.Errorf("waiting for rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("collision request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("collision API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var items []types.CollisionItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding collisions: %w", err)
	}
	return items, nil
}
