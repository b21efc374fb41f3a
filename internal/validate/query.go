// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"

	"github.com/pdiddy/hra-relations/internal/prefixes"
	"github.com/pdiddy/hra-relations/internal/sparql"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// DefaultPredicates are the relations accepted as confirming that the
// child is part of, or a kind of, the parent.
var DefaultPredicates = []string{
	"http://www.w3.org/2000/01/rdf-schema#subClassOf",
	"http://purl.obolibrary.org/obo/BFO_0000050", // part of
	"http://purl.obolibrary.org/obo/RO_0002170",  // connected to
	"http://purl.obolibrary.org/obo/RO_0002131",  // overlaps
}

const queryTemplate = `
%s

SELECT DISTINCT ?ref_organ ?ref_organ_part ?slabel ?plabel ?olabel ?s ?p ?o
WHERE {
  VALUES (?ref_organ ?ref_organ_part ?s ?o) {
    %s
  }
  VALUES (?p) {
    %s
  }

  {
    ?s ?p ?o .
  }

  OPTIONAL { ?s rdfs:label ?slabel . }
  OPTIONAL { ?p rdfs:label ?plabel . }
  OPTIONAL { ?o rdfs:label ?olabel . }
}
`

// BuildQuery returns the query that looks for a triple (child, p, parent)
// for every edge and candidate predicate.
func BuildQuery(edges []types.RelationEdge, predicates []string) string {
	rows := make([][]string, len(edges))
	for i, e := range edges {
		rows[i] = []string{sparql.IRI(e.RefOrgan), sparql.IRI(e.RefOrganPart), sparql.Term(e.Child), sparql.Term(e.Parent)}
	}
	return fmt.Sprintf(queryTemplate, prefixes.SPARQL(), sparql.Rows(rows), predicateRows(predicates))
}

func predicateRows(predicates []string) string {
	if len(predicates) == 0 {
		predicates = DefaultPredicates
	}
	rows := make([][]string, len(predicates))
	for i, p := range predicates {
		rows[i] = []string{sparql.Term(prefixes.Compact(p))}
	}
	return sparql.Rows(rows)
}

// swapped returns edges with parent and child exchanged.
func swapped(edges []types.RelationEdge) []types.RelationEdge {
	out := make([]types.RelationEdge, len(edges))
	for i, e := range edges {
		out[i] = e
		out[i].Parent, out[i].Child = e.Child, e.Parent
	}
	return out
}
