// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package meshgen derives candidate part-of relations from 3D reference
// organ models. Each multi-part GLB model is run through the collision
// detector and every pair of colliding parts with distinct ontology terms
// becomes two relation edges, one in each direction.
package meshgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/hra-relations/internal/detector"
	"github.com/pdiddy/hra-relations/internal/fetch"
	"github.com/pdiddy/hra-relations/internal/metrics"
	"github.com/pdiddy/hra-relations/internal/relations"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// Job is the metrics label of this generator.
const Job = "mesh"

// StructureColumns are the columns read from the anatomical structures table.
var StructureColumns = []string{"glb_file", "reference_organ", "node_name", "ontologyID"}

const (
	modelFile      = "model.glb"
	collisionsFile = "collisions.csv"
)

// Structure is one row of the anatomical structures table: a named node
// of a GLB model and the term it represents.
type Structure struct {
	GLBFile        string
	ReferenceOrgan string
	NodeName       string
	OntologyID     string
}

// Model is the set of structures sharing a GLB file.
type Model struct {
	GLBFile  string
	RefOrgan string
	// Terms maps node names to ontology terms. A node listed twice keeps
	// its last term.
	Terms map[string]string
	Rows  int
}

// Fetcher is the part of fetch.Fetcher the generator needs.
type Fetcher interface {
	Get(ctx context.Context, src string) ([]byte, error)
	Download(ctx context.Context, src, destPath string) error
}

var _ Fetcher = (*fetch.Fetcher)(nil)

// BatchResult holds the outcome of a generation run.
type BatchResult struct {
	Processed  int
	Skipped    int
	Failed     int
	Collisions int
	Edges      []types.RelationEdge
}

// Total returns the number of models seen.
func (r BatchResult) Total() int {
	return r.Processed + r.Skipped + r.Failed
}

// HasFailures reports whether any model failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Generator runs the mesh collision pipeline.
type Generator struct {
	Fetcher  Fetcher
	Detector detector.Detector
	// WorkDir holds per-model scratch directories. Empty uses os.TempDir.
	WorkDir  string
	Progress io.Writer
	Metrics  *metrics.Recorder
}

// ReadStructures parses the anatomical structures table.
func ReadStructures(r io.Reader) ([]Structure, error) {
	t, err := relations.ReadTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.Has(StructureColumns...); err != nil {
		return nil, err
	}
	out := make([]Structure, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, Structure{
			GLBFile:        row["glb_file"],
			ReferenceOrgan: row["reference_organ"],
			NodeName:       row["node_name"],
			OntologyID:     row["ontologyID"],
		})
	}
	return out, nil
}

// GroupModels groups structures by GLB file in first-seen order. The
// reference organ of a model is the one on its first row.
func GroupModels(rows []Structure) []Model {
	index := make(map[string]int)
	var models []Model
	for _, row := range rows {
		i, ok := index[row.GLBFile]
		if !ok {
			i = len(models)
			index[row.GLBFile] = i
			models = append(models, Model{
				GLBFile:  row.GLBFile,
				RefOrgan: row.ReferenceOrgan,
				Terms:    make(map[string]string),
			})
		}
		models[i].Terms[row.NodeName] = row.OntologyID
		models[i].Rows++
	}
	return models
}

// PartIRI names a node of a reference organ by replacing the first
// "#primary" fragment of the organ IRI.
func PartIRI(refOrgan, node string) string {
	return strings.Replace(refOrgan, "#primary", "#"+node, 1)
}

// Edges turns collisions into relation edges. Each collision between parts
// with known, distinct terms yields two edges: the target as child of the
// source, then the source as child of the target.
func Edges(refOrgan string, terms map[string]string, collisions []types.Collision) []types.RelationEdge {
	var edges []types.RelationEdge
	for _, c := range collisions {
		src, tgt := terms[c.Source], terms[c.Target]
		if src == "" || tgt == "" || src == tgt {
			continue
		}
		edges = append(edges,
			types.RelationEdge{
				RefOrgan:     refOrgan,
				RefOrganPart: PartIRI(refOrgan, c.Source),
				Parent:       src,
				Child:        tgt,
			},
			types.RelationEdge{
				RefOrgan:     refOrgan,
				RefOrganPart: PartIRI(refOrgan, c.Target),
				Parent:       tgt,
				Child:        src,
			},
		)
	}
	return edges
}

// Generate reads the structures table at src and processes every model
// with more than one structure. A model that fails is reported and the
// batch goes on; the returned error covers only failures that stop the run
// (unreadable table, cancelled context).
func (g *Generator) Generate(ctx context.Context, src string) (BatchResult, error) {
	var result BatchResult
	w := g.progress()

	data, err := g.Fetcher.Get(ctx, src)
	if err != nil {
		return result, fmt.Errorf("fetching structures: %w", err)
	}
	rows, err := ReadStructures(bytes.NewReader(data))
	if err != nil {
		return result, fmt.Errorf("parsing structures from %s: %w", src, err)
	}
	models := GroupModels(rows)
	slog.Info("loaded structures", "rows", len(rows), "models", len(models))

	for _, m := range models {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if m.Rows < 2 {
			fmt.Fprintf(w, "skipped: %s (single structure)\n", m.GLBFile)
			result.Skipped++
			g.Metrics.Item(Job, "skipped")
			continue
		}

		collisions, err := g.ProcessModel(ctx, m)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			fmt.Fprintf(w, "failed:  %s (%v)\n", m.GLBFile, err)
			result.Failed++
			g.Metrics.Item(Job, "failed")
			continue
		}

		edges := Edges(m.RefOrgan, m.Terms, collisions)
		fmt.Fprintf(w, "processed: %s (%d collisions, %d edges)\n", m.GLBFile, len(collisions), len(edges))
		result.Processed++
		result.Collisions += len(collisions)
		result.Edges = append(result.Edges, edges...)
		g.Metrics.Item(Job, "processed")
		g.Metrics.Collisions(Job, len(collisions))
	}

	fmt.Fprintf(w, "\nBatch summary: %d processed, %d skipped, %d failed (total: %d), %d edges\n",
		result.Processed, result.Skipped, result.Failed, result.Total(), len(result.Edges))
	g.Metrics.Relations(Job, len(result.Edges))
	return result, nil
}

// ProcessModel downloads one model into a scratch directory, runs the
// detector on it and returns the collisions it reports. The scratch
// directory is removed afterwards.
func (g *Generator) ProcessModel(ctx context.Context, m Model) ([]types.Collision, error) {
	if g.WorkDir != "" {
		if err := os.MkdirAll(g.WorkDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating work dir: %w", err)
		}
	}
	scratch, err := os.MkdirTemp(g.WorkDir, "hra-model-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	modelPath := filepath.Join(scratch, modelFile)
	outPath := filepath.Join(scratch, collisionsFile)

	slog.Debug("requesting model", "glb", m.GLBFile, "ref_organ", m.RefOrgan)
	if err := g.Fetcher.Download(ctx, m.GLBFile, modelPath); err != nil {
		return nil, fmt.Errorf("downloading model: %w", err)
	}
	if err := g.Detector.Detect(ctx, modelPath, outPath); err != nil {
		return nil, fmt.Errorf("%s detector: %w", g.Detector.Name(), err)
	}
	return detector.ReadCollisions(outPath)
}

func (g *Generator) progress() io.Writer {
	if g.Progress == nil {
		return io.Discard
	}
	return g.Progress
}

// WriteEdges writes the relations table to path, replacing any previous
// file atomically.
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
