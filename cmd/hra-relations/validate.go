// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/hra-relations/internal/sparql"
	"github.com/pdiddy/hra-relations/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate [inputs...]",
	Short: "Validate relations against an ontology SPARQL endpoint",
	Long: `Validate reads one or more relations tables (paths or glob patterns),
asks the SPARQL endpoint which (child, parent) pairs are confirmed by one
of the candidate predicates, and writes the valid, invalid and reversed
tables, the queries and a markdown report to the data directory.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	vc := cfg.Validation
	if len(args) > 0 {
		vc.Inputs = args
	}
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		vc.Endpoint = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		vc.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("title"); v != "" {
		vc.ReportTitle = v
	}
	if v, _ := cmd.Flags().GetStringSlice("predicate"); len(v) > 0 {
		vc.Predicates = v
	}
	if cmd.Flags().Changed("no-reversed") {
		noReversed, _ := cmd.Flags().GetBool("no-reversed")
		vc.CheckReversed = !noReversed
	}

	client := sparql.NewClient(vc.Endpoint, vc.HTTPConfig, nil)
	client.Token = vc.EndpointToken

	ctx := cmd.Context()
	run := beginJob(ctx, "validate")
	v := &validate.Validator{
		Client:        client,
		Predicates:    vc.Predicates,
		CheckReversed: vc.CheckReversed,
		DataDir:       vc.DataDir,
		ReportTitle:   vc.ReportTitle,
		Progress:      cmd.OutOrStdout(),
		Metrics:       run.metrics,
	}

	r, err := v.Run(ctx, vc.Inputs)
	counters := map[string]int{}
	if r != nil {
		run.recordClassifications(ctx, r.Edges, r.Status)
		counters["edges"] = len(r.Edges)
		counters["unique"] = r.Unique
		counters["valid"] = r.Valid
		counters["invalid"] = r.Invalid
		counters["reversed"] = r.Reversed
	}
	run.finish(err, counters)
	return err
}

func init() {
	validateCmd.Flags().String("endpoint", "", "SPARQL endpoint URL")
	validateCmd.Flags().String("data-dir", "", "directory for queries, tables and the report")
	validateCmd.Flags().String("title", "", "report title")
	validateCmd.Flags().StringSlice("predicate", nil, "candidate predicate IRI or CURIE (repeatable)")
	validateCmd.Flags().Bool("no-reversed", false, "skip the reversed relationship check")

	rootCmd.AddCommand(validateCmd)
}
