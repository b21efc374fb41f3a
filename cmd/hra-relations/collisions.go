// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hra-relations/internal/apigen"
	"github.com/pdiddy/hra-relations/internal/collisionapi"
	"github.com/pdiddy/hra-relations/internal/detector"
	"github.com/pdiddy/hra-relations/internal/meshgen"
	"github.com/pdiddy/hra-relations/internal/spatial"
	"github.com/pdiddy/hra-relations/pkg/types"
)

var collisionsCmd = &cobra.Command{
	Use:   "collisions",
	Short: "Generate reference organ relations from 3D collisions",
	Long: `Collisions derives "part of" relations from collisions between the
meshes of 3D reference organs. The mesh variant runs a local collision
detector on each GLB model; the api variant asks the remote collision API
about every anatomical structure placement.`,
}

// --- mesh subcommand ---

var collisionsMeshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Detect collisions in GLB models and write a relations table",
	Long: `Mesh reads the anatomical structures table, groups its rows by GLB
file, runs the collision detector on every model with more than one
structure and writes one relation pair per collision. Models that fail are
reported and the batch continues.`,
	RunE: runCollisionsMesh,
}

func runCollisionsMesh(cmd *cobra.Command, args []string) error {
	mc := cfg.MeshCollision
	if v, _ := cmd.Flags().GetString("structures"); v != "" {
		mc.StructuresCSV = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		mc.Output = v
	}
	if v, _ := cmd.Flags().GetString("work-dir"); v != "" {
		mc.WorkDir = v
	}

	det, err := detector.New(mc.Detector, os.Stderr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	run := beginJob(ctx, meshgen.Job)
	gen := &meshgen.Generator{
		Fetcher:  newFetcher(mc.HTTPConfig),
		Detector: det,
		WorkDir:  mc.WorkDir,
		Progress: cmd.OutOrStdout(),
		Metrics:  run.metrics,
	}

	result, err := gen.Generate(ctx, mc.StructuresCSV)
	if err == nil {
		err = meshgen.WriteEdges(mc.Output, result.Edges)
	}
	if err == nil && result.HasFailures() {
		err = fmt.Errorf("%d model(s) failed collision detection", result.Failed)
	}
	run.recordEdges(ctx, result.Edges)
	run.finish(err, map[string]int{
		"processed":  result.Processed,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
		"collisions": result.Collisions,
		"edges":      len(result.Edges),
	})
	return err
}

// --- api subcommand ---

var collisionsAPICmd = &cobra.Command{
	Use:   "api",
	Short: "Query the collision API for every structure placement",
	Long: `API fetches the reference organs and their anatomical structures,
normalizes each structure's placement relative to its reference organ,
asks the collision API which structures it collides with, and writes the
collision summary graph (JSON-LD) and a relations table. A failed API call
is logged as a warning and counts as no collisions.`,
	RunE: runCollisionsAPI,
}

func runCollisionsAPI(cmd *cobra.Command, args []string) error {
	ac := cfg.APICollision
	if v, _ := cmd.Flags().GetString("entities"); v != "" {
		ac.SpatialEntitiesURL = v
	}
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		ac.CollisionURL = v
	}
	if v, _ := cmd.Flags().GetString("graph-output"); v != "" {
		ac.GraphOutput = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		ac.RelationsOutput = v
	}
	if cmd.Flags().Changed("concurrency") {
		ac.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if cmd.Flags().Changed("min-percentage") {
		ac.MinPercentage, _ = cmd.Flags().GetFloat64("min-percentage")
	}
	if ac.CollisionURL == "" {
		return fmt.Errorf("collision API endpoint is required")
	}

	ctx := cmd.Context()
	run := beginJob(ctx, apigen.Job)
	gen := &apigen.Generator{
		Source:        &spatial.Source{Fetcher: newFetcher(ac.HTTPConfig), URL: ac.SpatialEntitiesURL},
		API:           collisionapi.New(ac),
		Concurrency:   ac.Concurrency,
		MinPercentage: ac.MinPercentage,
		Progress:      cmd.OutOrStdout(),
		Metrics:       run.metrics,
	}

	result, err := gen.Generate(ctx)
	if err == nil {
		err = writeAPIOutputs(ac, result)
	}
	run.recordEdges(ctx, result.Edges)
	run.finish(err, map[string]int{
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"warnings":  result.Warnings,
		"edges":     len(result.Edges),
	})
	return err
}

func writeAPIOutputs(ac types.APICollisionConfig, result apigen.Result) error {
	if err := apigen.WriteGraph(ac.GraphOutput, result.Summaries); err != nil {
		return err
	}
	return apigen.WriteEdges(ac.RelationsOutput, result.Edges)
}

func init() {
	collisionsMeshCmd.Flags().String("structures", "", "anatomical structures CSV (URL or path)")
	collisionsMeshCmd.Flags().String("output", "", "relations CSV to write")
	collisionsMeshCmd.Flags().String("work-dir", "", "directory for per-model scratch files")

	collisionsAPICmd.Flags().String("entities", "", "spatial entities JSON-LD (URL or path)")
	collisionsAPICmd.Flags().String("endpoint", "", "collision API URL")
	collisionsAPICmd.Flags().String("graph-output", "", "collision summary JSON-LD to write")
	collisionsAPICmd.Flags().String("output", "", "relations CSV to write")
	collisionsAPICmd.Flags().Int("concurrency", 1, "maximum in-flight collision API calls")
	collisionsAPICmd.Flags().Float64("min-percentage", 0, "drop collisions whose overlap percentage is at or below this")

	collisionsCmd.AddCommand(collisionsMeshCmd)
	collisionsCmd.AddCommand(collisionsAPICmd)
	rootCmd.AddCommand(collisionsCmd)
}
