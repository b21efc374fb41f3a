// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hra-relations/internal/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view [model.glb]",
	Short: "Serve a browser preview of a GLB model",
	Long: `View serves a page that renders one GLB model with three.js. The model
is a local file served at /model.glb or an http(s) URL loaded by the
browser directly. Stop the server with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vc := cfg.Viewer
		if len(args) == 1 {
			vc.Model = args[0]
		}
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			vc.Addr = v
		}
		if vc.Model == "" {
			return fmt.Errorf("provide a GLB model path or URL")
		}

		s := viewer.New(vc.Model)
		if v, _ := cmd.Flags().GetString("three-url"); v != "" {
			s.ThreeURL = v
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Viewer running at http://%s/\n", vc.Addr)
		return s.Serve(cmd.Context(), vc.Addr)
	},
}

func init() {
	viewCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:5173)")
	viewCmd.Flags().String("three-url", "", "base URL of the three.js distribution")

	rootCmd.AddCommand(viewCmd)
}
