// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/pdiddy/hra-relations/internal/cache"
	"github.com/pdiddy/hra-relations/internal/fetch"
	"github.com/pdiddy/hra-relations/internal/ledger"
	"github.com/pdiddy/hra-relations/internal/metrics"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// jobRun tracks one batch job in the ledger and the metrics textfile.
// The ledger is optional: with an empty ledger path store is nil.
type jobRun struct {
	job     string
	start   time.Time
	store   *ledger.Store
	runID   string
	metrics *metrics.Recorder
}

func beginJob(ctx context.Context, job string) *jobRun {
	j := &jobRun{job: job, start: time.Now(), metrics: metrics.New()}
	if cfg.Ledger.Path == "" {
		return j
	}
	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		slog.Warn("run ledger unavailable", "path", cfg.Ledger.Path, "error", err)
		return j
	}
	run, err := store.BeginRun(ctx, job)
	if err != nil {
		slog.Warn("recording run start", "error", err)
		store.Close()
		return j
	}
	j.store, j.runID = store, run.ID
	slog.Debug("run started", "job", job, "run", run.ID)
	return j
}

func (j *jobRun) recordEdges(ctx context.Context, edges []types.RelationEdge) {
	if j.store == nil {
		return
	}
	if err := j.store.RecordEdges(ctx, j.runID, edges); err != nil {
		slog.Warn("recording edges", "run", j.runID, "error", err)
	}
}

func (j *jobRun) recordClassifications(ctx context.Context, edges []types.RelationEdge, status []types.EdgeStatus) {
	if j.store == nil {
		return
	}
	if err := j.store.RecordClassifications(ctx, j.runID, edges, status); err != nil {
		slog.Warn("recording classifications", "run", j.runID, "error", err)
	}
}

// finish closes the run. runErr decides the recorded status.
func (j *jobRun) finish(runErr error, counters map[string]int) {
	j.metrics.Finish(j.job, j.start)
	if err := j.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		slog.Warn("writing metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
	}
	if j.store == nil {
		return
	}
	defer j.store.Close()

	status := ledger.StatusOK
	if runErr != nil {
		status = ledger.StatusFailed
	}
	// The job context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := j.store.FinishRun(ctx, j.runID, status, counters); err != nil {
		slog.Warn("recording run end", "run", j.runID, "error", err)
		return
	}
	slog.Info("run recorded", "job", j.job, "run", j.runID, "status", status)
}

// newFetcher returns a fetcher for hc backed by the configured cache.
func newFetcher(hc types.HTTPConfig) *fetch.Fetcher {
	return fetch.New(hc, cache.New(cfg.Cache))
}
