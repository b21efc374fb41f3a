// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/hra-relations/internal/prefixes"
	"github.com/pdiddy/hra-relations/internal/relations"
	"github.com/pdiddy/hra-relations/internal/sparql"
	"github.com/pdiddy/hra-relations/pkg/types"
)

const (
	organ  = "http://purl.org/ccf/latest/ccf.owl#VHFLeftKidney#primary"
	kidney = "UBERON:0002113"
	cortex = "UBERON:0001225"
	pelvis = "UBERON:0001224"
	hilum  = "UBERON:0008716"
	ureter = "UBERON:0000056"
)

// truth maps compacted (s, o) pairs to the predicate linking them.
var truth = map[types.TermPair]string{
	{Subject: cortex, Object: kidney}: "BFO:0000050",
	{Subject: pelvis, Object: kidney}: "rdfs:subClassOf",
	{Subject: hilum, Object: pelvis}:  "RO:0002131",
}

var rowPattern = regexp.MustCompile(`\( <([^>]*)> <([^>]*)> (\S+) (\S+) \)`)

// ontology answers validation queries from truth, returning full IRIs the
// way an endpoint does.
type ontology struct {
	queries []string
	err     error
}

func (o *ontology) Select(_ context.Context, query string) ([]sparql.Binding, error) {
	o.queries = append(o.queries, query)
	if o.err != nil {
		return nil, o.err
	}
	var out []sparql.Binding
	for _, m := range rowPattern.FindAllStringSubmatch(query, -1) {
		s, obj := prefixes.Compact(strings.Trim(m[3], "<>")), prefixes.Compact(strings.Trim(m[4], "<>"))
		p, ok := truth[types.TermPair{Subject: s, Object: obj}]
		if !ok {
			continue
		}
		out = append(out, sparql.Binding{
			"ref_organ":      m[1],
			"ref_organ_part": m[2],
			"s":              prefixes.Expand(s),
			"p":              prefixes.Expand(p),
			"o":              prefixes.Expand(obj),
			"slabel":         "label of " + s,
			"olabel":         "label of " + obj,
		})
	}
	return out, nil
}

func edge(part, parent, child string) types.RelationEdge {
	return types.RelationEdge{RefOrgan: organ, RefOrganPart: strings.Replace(organ, "#primary", "#"+part, 1), Parent: parent, Child: child}
}

func sampleEdges() []types.RelationEdge {
	return []types.RelationEdge{
		edge("kidney", kidney, cortex),  // valid
		edge("cortex", cortex, kidney),  // reversed
		edge("kidney", kidney, pelvis),  // valid
		edge("pelvis", pelvis, kidney),  // reversed
		edge("ureter", ureter, cortex),  // invalid
		edge("cortex", cortex, ureter),  // invalid
		edge("kidney2", kidney, cortex), // valid, duplicate pair
		// valid, child given as a full IRI
		edge("pelvis", pelvis, "http://purl.obolibrary.org/obo/UBERON_0008716"),
	}
}

func TestBuildQueryTemplate(t *testing.T) {
	q := BuildQuery([]types.RelationEdge{edge("cortex", kidney, cortex)}, nil)
	want := "\n" + prefixes.SPARQL() + `

SELECT DISTINCT ?ref_organ ?ref_organ_part ?slabel ?plabel ?olabel ?s ?p ?o
WHERE {
  VALUES (?ref_organ ?ref_organ_part ?s ?o) {
    ( <http://purl.org/ccf/latest/ccf.owl#VHFLeftKidney#primary> <http://purl.org/ccf/latest/ccf.owl#VHFLeftKidney#cortex> UBERON:0001225 UBERON:0002113 )
  }
  VALUES (?p) {
    ( rdfs:subClassOf ) ( BFO:0000050 ) ( RO:0002170 ) ( RO:0002131 )
  }

  {
    ?s ?p ?o .
  }

  OPTIONAL { ?s rdfs:label ?slabel . }
  OPTIONAL { ?p rdfs:label ?plabel . }
  OPTIONAL { ?o rdfs:label ?olabel . }
}
`
	assert.Equal(t, want, q)
}

func TestBuildQueryCustomPredicates(t *testing.T) {
	q := BuildQuery(nil, []string{"http://purl.obolibrary.org/obo/BFO_0000050", "http://example.org/rel"})
	assert.Contains(t, q, "VALUES (?p) {\n    ( BFO:0000050 ) ( <http://example.org/rel> )\n  }")
	assert.Contains(t, q, "VALUES (?ref_organ ?ref_organ_part ?s ?o) {\n    \n  }")
}

func TestToTriple(t *testing.T) {
	tr := ToTriple(sparql.Binding{
		"ref_organ": organ,
		"s":         "http://purl.obolibrary.org/obo/UBERON_0001224",
		"p":         "http://www.w3.org/2000/01/rdf-schema#subClassOf",
		"o":         "http://purl.obolibrary.org/obo/UBERON_0002113",
		"plabel":    "subClassOf",
	})
	assert.Equal(t, "ccf:VHFLeftKidney#primary", tr.RefOrgan)
	assert.Equal(t, pelvis, tr.S)
	assert.Equal(t, "rdfs:subClassOf", tr.P)
	assert.Equal(t, "is a", tr.PLabel)
	assert.Equal(t, kidney, tr.O)
	assert.Empty(t, tr.SLabel)

	part := ToTriple(sparql.Binding{"p": "http://purl.obolibrary.org/obo/BFO_0000050", "plabel": "part of"})
	assert.Equal(t, "part of", part.PLabel)
}

func TestValidatePartition(t *testing.T) {
	edges := sampleEdges()
	onto := &ontology{}
	v := &Validator{Client: onto, CheckReversed: true}

	var written []string
	r, err := v.Validate(context.Background(), edges, func(name, _ string) error {
		written = append(written, name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{QueryFile, ReversedQueryFile}, written)
	require.Len(t, onto.queries, 2)

	assert.Equal(t, []types.EdgeStatus{
		types.EdgeValid, types.EdgeReversed, types.EdgeValid, types.EdgeReversed,
		types.EdgeInvalid, types.EdgeInvalid, types.EdgeValid, types.EdgeValid,
	}, r.Status)

	assert.Equal(t, 7, r.Unique)
	assert.Equal(t, 3, r.Valid)
	assert.Equal(t, 4, r.Invalid)
	assert.Equal(t, 2, r.Reversed)
	assert.Len(t, r.Triples, 4)
	assert.Len(t, r.ReversedTriples, 2)

	valid, invalid, reversed := r.ValidEdges(), r.InvalidEdges(), r.ReversedEdges()
	assert.Equal(t, len(edges), len(valid)+len(invalid), "every edge is valid or invalid")
	for _, e := range reversed {
		assert.Contains(t, invalid, e, "reversed edges are invalid")
	}
	for _, e := range valid {
		assert.NotContains(t, invalid, e)
	}

	// The reversed query only asks about edges that were not valid.
	assert.NotContains(t, onto.queries[1], "#kidney> ")
	assert.Contains(t, onto.queries[1], "#cortex> UBERON:0001225 UBERON:0002113 )")
}

func TestValidateWithoutReversedCheck(t *testing.T) {
	onto := &ontology{}
	v := &Validator{Client: onto}
	r, err := v.Validate(context.Background(), sampleEdges(), nil)
	require.NoError(t, err)
	assert.Len(t, onto.queries, 1)
	assert.False(t, r.CheckedReversed)
	assert.Equal(t, 0, r.Reversed)
	assert.Empty(t, r.ReversedEdges())
	assert.Len(t, r.InvalidEdges(), 4)
}

func TestValidateEmpty(t *testing.T) {
	onto := &ontology{}
	v := &Validator{Client: onto, CheckReversed: true}
	r, err := v.Validate(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, onto.queries, "nothing to ask")
	assert.Equal(t, 0, r.Unique)
}

func TestValidateEndpointError(t *testing.T) {
	v := &Validator{Client: &ontology{err: errors.New("HTTP 502")}}
	_, err := v.Validate(context.Background(), sampleEdges(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation query")
}

func TestReport(t *testing.T) {
	r := &Result{Unique: 7, Valid: 3, Invalid: 4, Reversed: 2, CheckedReversed: true}
	want := `
# HRA v2.1 Validation Report

## Implicit 3D reference organ 'part of' relationships

- [Valid relationships](valid-ref-organ-relations.csv): 3
- [Invalid relationships](invalid-ref-organ-relations.csv): 4
- [Reversed relationships](reversed-ref-organ-relations.csv): 2
- [Total relationships](ref-organ-relations.csv): 7
`
	assert.Equal(t, want, Report("", r, DefaultTotalFile))

	r.CheckedReversed = false
	out := Report("Kidney check", r, "kidney.csv")
	assert.True(t, strings.HasPrefix(out, "\n# Kidney check\n"))
	assert.NotContains(t, out, "Reversed")
	assert.Contains(t, out, "- [Total relationships](kidney.csv): 7\n")
}

func writeInput(t *testing.T, path string, edges []types.RelationEdge) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, relations.WriteEdges(f, edges))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ref-organ-relations.csv")
	writeInput(t, input, sampleEdges())

	var progress strings.Builder
	v := &Validator{Client: &ontology{}, CheckReversed: true, DataDir: dir, Progress: &progress}
	r, err := v.Run(context.Background(), []string{input})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Valid)

	for _, name := range []string{QueryFile, ReversedQueryFile, ValidFile, InvalidFile, ReversedFile, ReportFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	read := func(name string) []types.RelationEdge {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		defer f.Close()
		e, err := relations.ReadEdges(f)
		require.NoError(t, err)
		return e
	}
	assert.Len(t, read(InvalidFile), 4)
	assert.Len(t, read(ReversedFile), 2)

	f, err := os.Open(filepath.Join(dir, ValidFile))
	require.NoError(t, err)
	defer f.Close()
	table, err := relations.ReadTable(f)
	require.NoError(t, err)
	assert.Equal(t, relations.TripleColumns, table.Header)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, "is a", table.Rows[1]["plabel"])

	report, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(report), "- [Total relationships](ref-organ-relations.csv): 7")

	query, err := os.ReadFile(filepath.Join(dir, QueryFile))
	require.NoError(t, err)
	assert.Equal(t, BuildQuery(sampleEdges(), nil), string(query))

	assert.Contains(t, progress.String(), "Validation summary: 7 unique relationships from 8 edges")
}

func TestRunGlobInputs(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, filepath.Join(dir, "in", "a", "mesh.csv"), sampleEdges()[:2])
	writeInput(t, filepath.Join(dir, "in", "b", "api.csv"), sampleEdges()[2:4])

	v := &Validator{Client: &ontology{}, DataDir: filepath.Join(dir, "out")}
	r, err := v.Run(context.Background(), []string{filepath.Join(dir, "in", "**", "*.csv")})
	require.NoError(t, err)
	assert.Len(t, r.Edges, 4)

	report, err := os.ReadFile(filepath.Join(dir, "out", ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(report), "("+DefaultTotalFile+")")
	assert.NoFileExists(t, filepath.Join(dir, "out", ReversedFile))
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"x/a.csv", "x/b.csv", "x/y/c.csv", "x/notes.txt"} {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o644))
	}

	got, err := ExpandInputs([]string{filepath.Join(dir, "x", "*.csv"), filepath.Join(dir, "x", "a.csv")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "x", "a.csv"), filepath.Join(dir, "x", "b.csv")}, got)

	got, err = ExpandInputs([]string{filepath.Join(dir, "x", "**", "*.csv")})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = ExpandInputs([]string{filepath.Join(dir, "none", "*.csv")})
	assert.ErrorContains(t, err, "no files match")

	_, err = ExpandInputs(nil)
	assert.Error(t, err)

	got, err = ExpandInputs([]string{"data/missing.csv"})
	require.NoError(t, err, "literal paths are checked when read")
	assert.Equal(t, []string{"data/missing.csv"}, got)
}

func TestReadInputsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("ref_organ,parent\r\na,b"), 0o644))
	_, err := ReadInputs([]string{path})
	assert.Error(t, err)
}

func TestValidateAgainstEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		bindings, _ := (&ontology{}).Select(r.Context(), r.Form.Get("query"))
		type term struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}
		var rows []map[string]term
		for _, b := range bindings {
			row := make(map[string]term)
			for k, v := range b {
				row[k] = term{Type: "uri", Value: v}
			}
			rows = append(rows, row)
		}
		w.Header().Set("Content-Type", "application/sparql-results+json")
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"head":    map[string]any{"vars": []string{"ref_organ", "ref_organ_part", "slabel", "plabel", "olabel", "s", "p", "o"}},
			"results": map[string]any{"bindings": rows},
		}))
	}))
	defer srv.Close()

	client := sparql.NewClient(srv.URL, types.HTTPConfig{}, nil)
	v := &Validator{Client: client, CheckReversed: true}
	r, err := v.Validate(context.Background(), sampleEdges(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Valid)
	assert.Equal(t, 2, r.Reversed)
}
