// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sparql runs SELECT queries against a remote SPARQL 1.1 endpoint
// and returns the bindings as flat string maps.
package sparql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/hra-relations/internal/cache"
	"github.com/pdiddy/hra-relations/internal/httputil"
	"github.com/pdiddy/hra-relations/internal/relations"
	"github.com/pdiddy/hra-relations/pkg/types"
)

const resultsMIME = "application/sparql-results+json"

// Binding maps a variable name to its value. Unbound variables are absent.
type Binding map[string]string

// Results is a decoded SELECT response.
type Results struct {
	Vars     []string
	Bindings []Binding
}

// Client queries one endpoint.
type Client struct {
	Endpoint string
	HTTP     *http.Client
	Config   types.HTTPConfig
	// Token, when set, is sent as a bearer token.
	Token string
	Cache cache.Cache
	// TTL overrides the cache's default expiry when non-zero.
	TTL time.Duration
}

// NewClient returns a client for endpoint. A nil cache disables caching.
func NewClient(endpoint string, cfg types.HTTPConfig, c cache.Cache) *Client {
	if c == nil {
		c = cache.Nop{}
	}
	return &Client{
		Endpoint: endpoint,
		HTTP:     httputil.NewClient(cfg),
		Config:   cfg,
		Cache:    c,
	}
}

// wire is the SPARQL 1.1 JSON results format.
type wire struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]struct {
			Type     string `json:"type"`
			Value    string `json:"value"`
			Datatype string `json:"datatype,omitempty"`
			Lang     string `json:"xml:lang,omitempty"`
		} `json:"bindings"`
	} `json:"results"`
}

// Query runs a SELECT query and returns variables and bindings.
func (c *Client) Query(ctx context.Context, query string) (*Results, error) {
	key := cache.Key("SPARQL", c.Endpoint, query)
	body, ok := c.Cache.Get(key)
	if !ok {
		var err error
		body, err = c.post(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	var w wire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("parsing SPARQL results: %w", err)
	}
	if !ok {
		if err := c.Cache.Set(key, body, c.TTL); err != nil {
			slog.Warn("cache write failed", "endpoint", c.Endpoint, "error", err)
		}
	}

	res := &Results{Vars: w.Head.Vars, Bindings: make([]Binding, 0, len(w.Results.Bindings))}
	for _, b := range w.Results.Bindings {
		row := make(Binding, len(b))
		for name, v := range b {
			row[name] = v.Value
		}
		res.Bindings = append(res.Bindings, row)
	}
	return res, nil
}

// Select runs a SELECT query and returns only the bindings.
func (c *Client) Select(ctx context.Context, query string) ([]Binding, error) {
	res, err := c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return res.Bindings, nil
}

// SelectCSV runs a SELECT query and renders the results as CSV with one
// column per projected variable.
func (c *Client) SelectCSV(ctx context.Context, query string) (string, error) {
	res, err := c.Query(ctx, query)
	if err != nil {
		return "", err
	}
	rows := make([][]string, len(res.Bindings))
	for i, b := range res.Bindings {
		row := make([]string, len(res.Vars))
		for j, v := range res.Vars {
			row[j] = b[v]
		}
		rows[i] = row
	}
	var buf bytes.Buffer
	if err := relations.WriteTable(&buf, res.Vars, rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Client) post(ctx context.Context, query string) ([]byte, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating SPARQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", resultsMIME)
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Config.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("SPARQL request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading SPARQL response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SPARQL endpoint returned HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	slog.Debug("sparql query", "endpoint", c.Endpoint, "bytes", len(body), "elapsed", time.Since(start))
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
