// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/hra-relations/pkg/types"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ExportEdge is an edge of a run with its validation status, if any.
type ExportEdge struct {
	types.RelationEdge `yaml:",inline"`
	Status             types.EdgeStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// RunExport is a run with everything recorded for it.
type RunExport struct {
	Run             Run          `json:"run" yaml:"run"`
	Edges           []ExportEdge `json:"edges,omitempty" yaml:"edges,omitempty"`
	Classifications []ExportEdge `json:"classifications,omitempty" yaml:"classifications,omitempty"`
}

// Load returns the run with id and its recorded edges and classifications.
func (s *Store) Load(ctx context.Context, id string) (*RunExport, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &RunExport{Run: run}

	out.Edges, err = s.queryEdges(ctx,
		`SELECT ref_organ, ref_organ_part, parent, child, '' FROM edges WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	out.Classifications, err = s.queryEdges(ctx,
		`SELECT ref_organ, ref_organ_part, parent, child, status FROM classifications WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying classifications: %w", err)
	}
	return out, nil
}

func (s *Store) queryEdges(ctx context.Context, query, id string) ([]ExportEdge, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportEdge
	for rows.Next() {
		var (
			e      ExportEdge
			status string
		)
		if err := rows.Scan(&e.RefOrgan, &e.RefOrganPart, &e.Parent, &e.Child, &status); err != nil {
			return nil, err
		}
		e.Status = types.EdgeStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Export writes the run with id to w as YAML or JSON.
func (s *Store) Export(ctx context.Context, id, format string, w io.Writer) error {
	run, err := s.Load(ctx, id)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatYAML, "":
		data, err = yaml.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	case FormatJSON:
		data, err = json.MarshalIndent(run, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported export format %q: use yaml or json", format)
	}
	_, err = w.Write(data)
	return err
}
