// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pdiddy/hra-relations/internal/relations"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// ExpandInputs resolves input paths and glob patterns ("data/**/*.csv") to
// file paths, in argument order with duplicates removed. A pattern that
// matches nothing is an error.
func ExpandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, pat := range patterns {
		if !hasMeta(pat) {
			add(pat)
			continue
		}
		matches, err := doublestar.FilepathGlob(pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad input pattern %q: %w", pat, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pat)
		}
		for _, m := range matches {
			add(m)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no input relations given")
	}
	return out, nil
}

func hasMeta(p string) bool {
	for _, c := range p {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// ReadInputs concatenates the relations tables at paths.
func ReadInputs(paths []string) ([]types.RelationEdge, error) {
	var edges []types.RelationEdge
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("opening relations: %w", err)
		}
		e, err := relations.ReadEdges(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		edges = append(edges, e...)
	}
	return edges, nil
}
