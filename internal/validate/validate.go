// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks candidate relation edges against an ontology
// SPARQL endpoint. An edge is valid when some candidate predicate links
// its child to its parent, reversed when the link only holds with the two
// swapped, and invalid otherwise. Reversed edges are also invalid.
package validate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/pdiddy/hra-relations/internal/fetch"
	"github.com/pdiddy/hra-relations/internal/metrics"
	"github.com/pdiddy/hra-relations/internal/prefixes"
	"github.com/pdiddy/hra-relations/internal/sparql"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// Output file names inside the data directory.
const (
	QueryFile         = "validate-ref-organ-relations.rq"
	ReversedQueryFile = "validate-reversed-ref-organ-relations.rq"
	ValidFile         = "valid-ref-organ-relations.csv"
	InvalidFile       = "invalid-ref-organ-relations.csv"
	ReversedFile      = "reversed-ref-organ-relations.csv"
	ReportFile        = "README.md"
	// DefaultTotalFile is the relations table linked from the report when
	// more than one input was validated.
	DefaultTotalFile = "ref-organ-relations.csv"
)

const subClassOf = "rdfs:subClassOf"

// Selecter runs SELECT queries.
type Selecter interface {
	Select(ctx context.Context, query string) ([]sparql.Binding, error)
}

var _ Selecter = (*sparql.Client)(nil)

// Validator classifies relation edges.
type Validator struct {
	Client Selecter
	// Predicates are the candidate predicate IRIs or CURIEs. Empty uses
	// DefaultPredicates.
	Predicates    []string
	CheckReversed bool

	// DataDir receives the queries, tables and report written by Run.
	DataDir     string
	ReportTitle string

	Progress io.Writer
	Metrics  *metrics.Recorder
}

// Result is the outcome of validating a set of edges.
type Result struct {
	Edges []types.RelationEdge
	// Status has one entry per edge.
	Status []types.EdgeStatus
	// Triples are the confirming triples, compacted.
	Triples []types.ValidatedTriple
	// ReversedTriples confirm edges only in the swapped direction.
	ReversedTriples []types.ValidatedTriple

	// Unique counts distinct (child, parent) pairs of the input.
	Unique   int
	Valid    int
	Invalid  int
	Reversed int

	// CheckedReversed is set when the reversed query ran.
	CheckedReversed bool
}

// Filter returns the edges with any of the given statuses, in input order.
func (r *Result) Filter(statuses ...types.EdgeStatus) []types.RelationEdge {
	want := make(map[types.EdgeStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []types.RelationEdge
	for i, e := range r.Edges {
		if want[r.Status[i]] {
			out = append(out, e)
		}
	}
	return out
}

// ValidEdges returns the edges confirmed by the endpoint.
func (r *Result) ValidEdges() []types.RelationEdge {
	return r.Filter(types.EdgeValid)
}

// InvalidEdges returns every edge that is not valid, reversed ones
// included.
func (r *Result) InvalidEdges() []types.RelationEdge {
	return r.Filter(types.EdgeInvalid, types.EdgeReversed)
}

// ReversedEdges returns the edges confirmed only with parent and child
// swapped.
func (r *Result) ReversedEdges() []types.RelationEdge {
	return r.Filter(types.EdgeReversed)
}

// ToTriple converts a result binding to a compacted triple, labelling
// rdfs:subClassOf as "is a".
func ToTriple(b sparql.Binding) types.ValidatedTriple {
	c := prefixes.CompactAll(b)
	t := types.ValidatedTriple{
		RefOrgan:     c["ref_organ"],
		RefOrganPart: c["ref_organ_part"],
		SLabel:       c["slabel"],
		PLabel:       c["plabel"],
		OLabel:       c["olabel"],
		S:            c["s"],
		P:            c["p"],
		O:            c["o"],
	}
	if t.P == subClassOf {
		t.PLabel = "is a"
	}
	return t
}

// pairOf returns the compacted (child, parent) pair of an edge so input
// terms compare equal to endpoint results whether given as IRIs or CURIEs.
func pairOf(e types.RelationEdge) types.TermPair {
	return types.TermPair{Subject: prefixes.Compact(e.Child), Object: prefixes.Compact(e.Parent)}
}

// Validate queries the endpoint for edges and classifies each of them.
// The query texts are returned through onQuery, when set, before running.
func (v *Validator) Validate(ctx context.Context, edges []types.RelationEdge, onQuery func(name, query string) error) (*Result, error) {
	r := &Result{Edges: edges, Status: make([]types.EdgeStatus, len(edges))}

	unique := make(map[types.TermPair]bool)
	for _, e := range edges {
		unique[pairOf(e)] = true
	}
	r.Unique = len(unique)

	query := BuildQuery(edges, v.Predicates)
	if onQuery != nil {
		if err := onQuery(QueryFile, query); err != nil {
			return nil, err
		}
	}
	triples, err := v.selectTriples(ctx, query, len(edges))
	if err != nil {
		return nil, fmt.Errorf("validation query: %w", err)
	}
	r.Triples = triples

	valid := make(map[types.TermPair]bool)
	for _, t := range triples {
		valid[t.Pair()] = true
	}
	r.Valid = len(valid)

	var rest []types.RelationEdge
	for i, e := range edges {
		if valid[pairOf(e)] {
			r.Status[i] = types.EdgeValid
		} else {
			r.Status[i] = types.EdgeInvalid
			rest = append(rest, e)
		}
	}
	invalid := make(map[types.TermPair]bool)
	for _, e := range rest {
		invalid[pairOf(e)] = true
	}
	r.Invalid = len(invalid)

	if !v.CheckReversed {
		return r, nil
	}
	r.CheckedReversed = true

	reversedQuery := BuildQuery(swapped(rest), v.Predicates)
	if onQuery != nil {
		if err := onQuery(ReversedQueryFile, reversedQuery); err != nil {
			return nil, err
		}
	}
	rtriples, err := v.selectTriples(ctx, reversedQuery, len(rest))
	if err != nil {
		return nil, fmt.Errorf("reversed validation query: %w", err)
	}
	r.ReversedTriples = rtriples

	reversed := make(map[types.TermPair]bool)
	for _, t := range rtriples {
		reversed[t.Pair().Swap()] = true
	}
	counted := make(map[types.TermPair]bool)
	for i, e := range edges {
		p := pairOf(e)
		if r.Status[i] == types.EdgeInvalid && reversed[p] {
			r.Status[i] = types.EdgeReversed
			counted[p] = true
		}
	}
	r.Reversed = len(counted)
	return r, nil
}

// selectTriples runs query unless there is nothing to ask about.
func (v *Validator) selectTriples(ctx context.Context, query string, n int) ([]types.ValidatedTriple, error) {
	if n == 0 {
		return nil, nil
	}
	bindings, err := v.Client.Select(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]types.ValidatedTriple, len(bindings))
	for i, b := range bindings {
		out[i] = ToTriple(b)
	}
	return out, nil
}

// Run reads the input tables, validates their edges and writes the
// queries, the valid, invalid and reversed tables and the report to
// DataDir.
func (v *Validator) Run(ctx context.Context, inputs []string) (*Result, error) {
	paths, err := ExpandInputs(inputs)
	if err != nil {
		return nil, err
	}
	edges, err := ReadInputs(paths)
	if err != nil {
		return nil, err
	}
	slog.Info("validating relations", "inputs", len(paths), "edges", len(edges))

	writeQuery := func(name, query string) error {
		return v.write(name, []byte(query))
	}
	r, err := v.Validate(ctx, edges, writeQuery)
	if err != nil {
		return nil, err
	}

	if err := v.WriteOutputs(r, totalLink(v.DataDir, paths)); err != nil {
		return nil, err
	}

	w := v.progress()
	fmt.Fprintf(w, "valid:    %d\n", r.Valid)
	fmt.Fprintf(w, "invalid:  %d\n", r.Invalid)
	if r.CheckedReversed {
		fmt.Fprintf(w, "reversed: %d\n", r.Reversed)
	}
	fmt.Fprintf(w, "\nValidation summary: %d unique relationships from %d edges, report in %s\n",
		r.Unique, len(r.Edges), filepath.Join(v.DataDir, ReportFile))

	v.Metrics.Edges(string(types.EdgeValid), r.Valid)
	v.Metrics.Edges(string(types.EdgeInvalid), r.Invalid)
	v.Metrics.Edges(string(types.EdgeReversed), r.Reversed)
	return r, nil
}

// totalLink is the report link to the validated table: the input itself,
// relative to dataDir, when there is exactly one.
func totalLink(dataDir string, paths []string) string {
	if len(paths) != 1 {
		return DefaultTotalFile
	}
	rel, err := filepath.Rel(dataDir, paths[0])
	if err != nil {
		return DefaultTotalFile
	}
	return filepath.ToSlash(rel)
}

func (v *Validator) write(name string, data []byte) error {
	path := filepath.Join(v.DataDir, name)
	if err := fetch.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (v *Validator) progress() io.Writer {
	if v.Progress == nil {
		return io.Discard
	}
	return v.Progress
}

