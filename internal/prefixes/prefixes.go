// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prefixes compacts ontology IRIs to CURIEs and back using the
// fixed prefix map of the HRA ontologies.
package prefixes

import "strings"

// Prefix binds a CURIE code to its namespace IRI.
type Prefix struct {
	Code string
	IRI  string
}

// Map is the ordered prefix map. Compaction walks it in order, so the order
// is significant when namespaces overlap.
var Map = []Prefix{
	{Code: "ccf", IRI: "http://purl.org/ccf/latest/ccf.owl#"},
	{Code: "UBERON", IRI: "http://purl.obolibrary.org/obo/UBERON_"},
	{Code: "CL", IRI: "http://purl.obolibrary.org/obo/CL_"},
	{Code: "rdfs", IRI: "http://www.w3.org/2000/01/rdf-schema#"},
	{Code: "fma", IRI: "http://purl.org/sig/ont/fma/"},
	{Code: "BFO", IRI: "http://purl.obolibrary.org/obo/BFO_"},
	{Code: "RO", IRI: "http://purl.obolibrary.org/obo/RO_"},
}

// Compact replaces, for each prefix in order, the first occurrence of its
// namespace IRI in iri with "code:".
func Compact(iri string) string {
	for _, p := range Map {
		iri = strings.Replace(iri, p.IRI, p.Code+":", 1)
	}
	return iri
}

// CompactAll returns a copy of values with every value compacted.
func CompactAll(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = Compact(v)
	}
	return out
}

// Expand turns a CURIE with a known code back into a full IRI. Values that
// are not CURIEs of a known code are returned unchanged.
func Expand(curie string) string {
	code, local, ok := strings.Cut(curie, ":")
	if !ok || strings.HasPrefix(local, "//") {
		return curie
	}
	for _, p := range Map {
		if p.Code == code {
			return p.IRI + local
		}
	}
	return curie
}

// SPARQL returns the PREFIX declarations for every entry, one per line.
func SPARQL() string {
	lines := make([]string, len(Map))
	for i, p := range Map {
		lines[i] = "PREFIX " + p.Code + ": <" + p.IRI + ">"
	}
	return strings.Join(lines, "\n")
}
