// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package viewer serves a single-page three.js viewer for a GLB model.
package viewer

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/hra-relations/internal/fetch"
)

// DefaultThreeURL is the CDN base the page loads three.js from.
const DefaultThreeURL = "https://cdn.jsdelivr.net/npm/three@0.160.0"

const (
	modelRoute  = "/model.glb"
	gltfBinary  = "model/gltf-binary"
	shutdownMax = 5 * time.Second
)

//go:embed templates/index.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/index.html"))

// Server renders the viewer page and serves the model.
type Server struct {
	// Model is a GLB path on disk or an http(s) URL the browser loads
	// directly.
	Model    string
	ThreeURL string
	Scale    float64
}

// New returns a viewer for model at scale 1.
func New(model string) *Server {
	return &Server{Model: model, ThreeURL: DefaultThreeURL, Scale: 1}
}

type pageData struct {
	Title    string
	ThreeURL string
	ModelURL string
	Scale    template.JS
}

// Router returns the HTTP handler.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(page)

	r.GET("/", s.index)
	r.GET(modelRoute, s.model)
	r.HEAD(modelRoute, s.model)
	r.GET("/healthz", s.health)
	return r
}

func (s *Server) index(c *gin.Context) {
	modelURL := modelRoute
	if fetch.IsURL(s.Model) {
		modelURL = s.Model
	}
	threeURL := s.ThreeURL
	if threeURL == "" {
		threeURL = DefaultThreeURL
	}
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	c.HTML(http.StatusOK, "index.html", pageData{
		Title:    filepath.Base(s.Model),
		ThreeURL: threeURL,
		ModelURL: modelURL,
		Scale:    template.JS(strconv.FormatFloat(scale, 'f', -1, 64)),
	})
}

func (s *Server) model(c *gin.Context) {
	if fetch.IsURL(s.Model) {
		c.Redirect(http.StatusFound, s.Model)
		return
	}
	if _, err := os.Stat(s.Model); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "model not found", "model": s.Model})
		return
	}
	c.Header("Content-Type", gltfBinary)
	c.File(s.Model)
}

func (s *Server) health(c *gin.Context) {
	present := fetch.IsURL(s.Model)
	if !present {
		_, err := os.Stat(s.Model)
		present = err == nil
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": s.Model, "model_present": present})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("viewer listening", "addr", addr, "model", s.Model)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("viewer server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownMax)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down viewer: %w", err)
		}
		return nil
	}
}
