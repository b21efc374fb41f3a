// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hra-relations/internal/cache"
	"github.com/pdiddy/hra-relations/internal/fetch"
	"github.com/pdiddy/hra-relations/internal/sparql"
)

var sparqlCmd = &cobra.Command{
	Use:   "sparql <query-file>",
	Short: "Run a SPARQL SELECT query and print the results as CSV",
	Long: `Sparql reads a query from a file or URL, sends it to the SPARQL
endpoint and prints the results as CSV, one column per projected
variable. Responses are cached unless --no-cache is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runSPARQL,
}

func runSPARQL(cmd *cobra.Command, args []string) error {
	vc := cfg.Validation
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		vc.Endpoint = v
	}

	c := cache.New(cfg.Cache)
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		c = cache.Nop{}
	}

	ctx := cmd.Context()
	query, err := fetch.New(vc.HTTPConfig, nil).Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("reading query: %w", err)
	}

	client := sparql.NewClient(vc.Endpoint, vc.HTTPConfig, c)
	client.Token = vc.EndpointToken
	out, err := client.SelectCSV(ctx, string(query))
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		return fetch.WriteFileAtomic(path, []byte(out))
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func init() {
	sparqlCmd.Flags().String("endpoint", "", "SPARQL endpoint URL (default: validation endpoint)")
	sparqlCmd.Flags().String("output", "", "write the CSV to this file instead of stdout")
	sparqlCmd.Flags().Bool("no-cache", false, "bypass the response cache")

	rootCmd.AddCommand(sparqlCmd)
}
