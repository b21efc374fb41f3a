// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/hra-relations/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testEdges = []types.RelationEdge{
	{RefOrgan: "ccf:kidney#primary", RefOrganPart: "ccf:kidney#cortex", Parent: "UBERON:0001225", Child: "UBERON:0001224"},
	{RefOrgan: "ccf:kidney#primary", RefOrganPart: "ccf:kidney#pelvis", Parent: "UBERON:0001224", Child: "UBERON:0001225"},
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopening existing ledger: %v", err)
	}
	s.Close()
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.BeginRun(ctx, "mesh")
	if err != nil {
		t.Fatal(err)
	}
	if run.ID == "" || run.Status != StatusRunning {
		t.Fatalf("unexpected new run: %+v", run)
	}
	if err := s.RecordEdges(ctx, run.ID, testEdges); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishRun(ctx, run.ID, StatusOK, map[string]int{"processed": 3, "edges": 2}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusOK {
		t.Errorf("status = %q, want %q", got.Status, StatusOK)
	}
	if got.FinishedAt == nil || got.FinishedAt.Before(got.StartedAt) {
		t.Errorf("finished_at = %v, started_at = %v", got.FinishedAt, got.StartedAt)
	}
	if got.Counters["processed"] != 3 || got.Counters["edges"] != 2 {
		t.Errorf("counters = %v", got.Counters)
	}

	exp, err := s.Load(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(exp.Edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(exp.Edges))
	}
	if exp.Edges[1].RelationEdge != testEdges[1] {
		t.Errorf("edge order not preserved: %+v", exp.Edges[1])
	}
	if len(exp.Classifications) != 0 {
		t.Errorf("unexpected classifications: %v", exp.Classifications)
	}
}

func TestRecordClassifications(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	run, err := s.BeginRun(ctx, "validate")
	if err != nil {
		t.Fatal(err)
	}

	status := []types.EdgeStatus{types.EdgeValid, types.EdgeReversed}
	if err := s.RecordClassifications(ctx, run.ID, testEdges, status); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordClassifications(ctx, run.ID, testEdges, status[:1]); err == nil {
		t.Error("expected error for mismatched lengths")
	}

	exp, err := s.Load(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(exp.Classifications) != 2 {
		t.Fatalf("got %d classifications, want 2", len(exp.Classifications))
	}
	if exp.Classifications[1].Status != types.EdgeReversed {
		t.Errorf("status = %q, want reversed", exp.Classifications[1].Status)
	}
}

func TestRecordEdgesUnknownRun(t *testing.T) {
	s := testStore(t)
	if err := s.RecordEdges(context.Background(), "no-such-run", testEdges); err == nil {
		t.Error("expected foreign key error")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	s := testStore(t)
	err := s.FinishRun(context.Background(), "no-such-run", StatusOK, nil)
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
	if _, err := s.Get(context.Background(), "no-such-run"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get err = %v, want ErrRunNotFound", err)
	}
}

func TestRunsNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	var ids []string
	for _, job := range []string{"mesh", "api", "validate"} {
		run, err := s.BeginRun(ctx, job)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := s.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Errorf("runs not newest first: %v", []string{runs[0].Job, runs[1].Job, runs[2].Job})
	}

	limited, err := s.Runs(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d runs, want 2", len(limited))
	}
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	run, err := s.BeginRun(ctx, "mesh")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordEdges(ctx, run.ID, testEdges); err != nil {
		t.Fatal(err)
	}

	var yamlOut bytes.Buffer
	if err := s.Export(ctx, run.ID, FormatYAML, &yamlOut); err != nil {
		t.Fatal(err)
	}
	var fromYAML RunExport
	if err := yaml.Unmarshal(yamlOut.Bytes(), &fromYAML); err != nil {
		t.Fatalf("parsing YAML export: %v", err)
	}
	if fromYAML.Run.ID != run.ID || len(fromYAML.Edges) != 2 {
		t.Errorf("YAML export = %+v", fromYAML)
	}
	if fromYAML.Edges[0].Parent != "UBERON:0001225" {
		t.Errorf("inline edge fields lost: %+v", fromYAML.Edges[0])
	}

	var jsonOut bytes.Buffer
	if err := s.Export(ctx, run.ID, FormatJSON, &jsonOut); err != nil {
		t.Fatal(err)
	}
	var fromJSON RunExport
	if err := json.Unmarshal(jsonOut.Bytes(), &fromJSON); err != nil {
		t.Fatalf("parsing JSON export: %v", err)
	}
	if !strings.Contains(jsonOut.String(), `"ref_organ_part": "ccf:kidney#cortex"`) {
		t.Errorf("JSON export missing flattened edge fields:\n%s", jsonOut.String())
	}

	if err := s.Export(ctx, run.ID, "toml", &jsonOut); err == nil {
		t.Error("expected error for unsupported format")
	}
}
