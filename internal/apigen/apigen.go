// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apigen derives candidate part-of relations from the CCF
// collision service. Every anatomical structure of a reference organ is
// submitted as a RUI location and the structures it overlaps become
// relation edges.
package apigen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/hra-relations/internal/fetch"
	"github.com/pdiddy/hra-relations/internal/metrics"
	"github.com/pdiddy/hra-relations/internal/relations"
	"github.com/pdiddy/hra-relations/internal/spatial"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// Job is the metrics label of this generator.
const Job = "api"

// EntitySource lists spatial entities.
type EntitySource interface {
	Entities(ctx context.Context) ([]types.SpatialEntity, error)
}

// CollisionFinder returns the structures a RUI location overlaps.
type CollisionFinder interface {
	Collisions(ctx context.Context, rui types.SpatialEntity) ([]types.CollisionItem, error)
}

// Generator runs the API collision pipeline.
type Generator struct {
	Source EntitySource
	API    CollisionFinder

	// Concurrency bounds in-flight API calls. Values below 1 mean 1.
	Concurrency int
	// MinPercentage drops collisions at or below it from the edges. The
	// summary graph keeps every collision.
	MinPercentage float64

	Progress io.Writer
	Metrics  *metrics.Recorder
}

// Result holds the outcome of a run.
type Result struct {
	Summaries []types.CollisionSummary
	Edges     []types.RelationEdge
	Processed int
	Skipped   int
	// Warnings counts failed API calls, which are treated as no collisions.
	Warnings int
}

// Total returns the number of structures seen.
func (r Result) Total() int {
	return r.Processed + r.Skipped
}

type job struct {
	structure types.SpatialEntity
	organ     types.SpatialEntity
	rui       types.SpatialEntity
}

type outcome struct {
	items []types.CollisionItem
	err   error
}

// Generate fetches the spatial entities and queries the collision API for
// every structure with a known reference organ. Results are assembled in
// document order whatever the concurrency.
func (g *Generator) Generate(ctx context.Context) (Result, error) {
	var result Result
	w := g.progress()

	entities, err := g.Source.Entities(ctx)
	if err != nil {
		return result, err
	}
	organs, structures := spatial.Split(entities)
	byID := make(map[string]types.SpatialEntity, len(organs))
	for _, o := range organs {
		byID[o.ID] = o
	}
	slog.Info("loaded spatial entities", "organs", len(organs), "structures", len(structures))

	var jobs []job
	for _, s := range structures {
		organ, ok := byID[s.ReferenceOrgan]
		if !ok {
			fmt.Fprintf(w, "skipped: %s (unknown reference organ %s)\n", s.ID, s.ReferenceOrgan)
			result.Skipped++
			g.Metrics.Item(Job, "skipped")
			continue
		}
		rui, err := spatial.RUILocation(s, organ)
		if err != nil {
			fmt.Fprintf(w, "skipped: %s (%v)\n", s.ID, err)
			result.Skipped++
			g.Metrics.Item(Job, "skipped")
			continue
		}
		jobs = append(jobs, job{structure: s, organ: organ, rui: rui})
	}

	outcomes, err := g.query(ctx, jobs)
	if err != nil {
		return result, err
	}

	for i, j := range jobs {
		o := outcomes[i]
		if o.err != nil {
			slog.Warn("collision API call failed", "structure", j.structure.ID, "error", o.err)
			fmt.Fprintf(w, "warning: %s (collision API failed: %v)\n", j.structure.ID, o.err)
			result.Warnings++
			g.Metrics.APIFailure()
		}
		summary := Summarize(j.structure, j.organ, o.items)
		edges := Edges(summary, g.MinPercentage)
		fmt.Fprintf(w, "processed: %s (%d collisions, %d edges)\n", j.structure.ID, len(summary.Collisions), len(edges))

		result.Summaries = append(result.Summaries, summary)
		result.Edges = append(result.Edges, edges...)
		result.Processed++
		g.Metrics.Item(Job, "processed")
		g.Metrics.Collisions(Job, len(summary.Collisions))
	}

	fmt.Fprintf(w, "\nBatch summary: %d processed, %d skipped, %d warnings (total: %d), %d edges\n",
		result.Processed, result.Skipped, result.Warnings, result.Total(), len(result.Edges))
	g.Metrics.Relations(Job, len(result.Edges))
	return result, nil
}

// query calls the API for every job with at most Concurrency calls in
// flight. Per-call failures are kept in the outcome; only cancellation
// aborts the run.
func (g *Generator) query(ctx context.Context, jobs []job) ([]outcome, error) {
	limit := g.Concurrency
	if limit < 1 {
		limit = 1
	}
	outcomes := make([]outcome, len(jobs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, j := range jobs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			items, err := g.API.Collisions(egCtx, j.rui)
			if err != nil && egCtx.Err() != nil {
				return egCtx.Err()
			}
			outcomes[i] = outcome{items: items, err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Summarize builds the collision summary node for one structure.
func Summarize(structure, organ types.SpatialEntity, items []types.CollisionItem) types.CollisionSummary {
	if items == nil {
		items = []types.CollisionItem{}
	}
	return types.CollisionSummary{
		ID:             structure.ID + "_collisions",
		Type:           "CollisionSummary",
		Source:         structure.ID,
		SourceTerm:     structure.RepresentationOf,
		ReferenceOrgan: organ.ID,
		Collisions:     items,
	}
}

// Edges turns a summary into relation edges. Each collision above
// minPercentage between distinct known terms yields two edges: the
// collided structure as child of the source, then the reverse.
func Edges(s types.CollisionSummary, minPercentage float64) []types.RelationEdge {
	var edges []types.RelationEdge
	for _, c := range s.Collisions {
		if c.Percentage <= minPercentage {
			continue
		}
		if s.SourceTerm == "" || c.ASID == "" || s.SourceTerm == c.ASID {
			continue
		}
		target := c.AS3DID
		if target == "" {
			target = c.ASID
		}
		edges = append(edges,
			types.RelationEdge{
				RefOrgan:     s.ReferenceOrgan,
				RefOrganPart: s.Source,
				Parent:       s.SourceTerm,
				Child:        c.ASID,
			},
			types.RelationEdge{
				RefOrgan:     s.ReferenceOrgan,
				RefOrganPart: target,
				Parent:       c.ASID,
				Child:        s.SourceTerm,
			},
		)
	}
	return edges
}

// WriteGraph writes the collision summaries to path as a JSON-LD document.
func WriteGraph(path string, summaries []types.CollisionSummary) error {
	if summaries == nil {
		summaries = []types.CollisionSummary{}
	}
	data, err := json.MarshalIndent(types.CollisionGraph{Context: spatial.CCFContext, Graph: summaries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding collision graph: %w", err)
	}
	if err := fetch.WriteFileAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("writing collision graph: %w", err)
	}
	return nil
}

// WriteEdges writes the relations table to path.
func WriteEdges(path string, edges []types.RelationEdge) error {
	var buf bytes.Buffer
	if err := relations.WriteEdges(&buf, edges); err != nil {
		return err
	}
	if err := fetch.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing relations: %w", err)
	}
	return nil
}

func (g *Generator) progress() io.Writer {
	if g.Progress == nil {
		return io.Discard
	}
	return g.Progress
}
