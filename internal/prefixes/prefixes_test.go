// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prefixes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"uberon", "http://purl.obolibrary.org/obo/UBERON_0002113", "UBERON:0002113"},
		{"cell type", "http://purl.obolibrary.org/obo/CL_0000084", "CL:0000084"},
		{"subclass", "http://www.w3.org/2000/01/rdf-schema#subClassOf", "rdfs:subClassOf"},
		{"part of", "http://purl.obolibrary.org/obo/BFO_0000050", "BFO:0000050"},
		{"relation", "http://purl.obolibrary.org/obo/RO_0002131", "RO:0002131"},
		{"ccf", "http://purl.org/ccf/latest/ccf.owl#VHFemale", "ccf:VHFemale"},
		{"unknown namespace", "http://example.org/thing", "http://example.org/thing"},
		{"literal", "kidney", "kidney"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compact(tt.in))
		})
	}
}

func TestCompact_FirstOccurrenceOnly(t *testing.T) {
	in := "http://purl.obolibrary.org/obo/UBERON_1 http://purl.obolibrary.org/obo/UBERON_2"
	assert.Equal(t, "UBERON:1 http://purl.obolibrary.org/obo/UBERON_2", Compact(in))
}

func TestCompactAll(t *testing.T) {
	in := map[string]string{
		"s":      "http://purl.obolibrary.org/obo/UBERON_0002113",
		"slabel": "kidney",
	}
	out := CompactAll(in)
	assert.Equal(t, map[string]string{"s": "UBERON:0002113", "slabel": "kidney"}, out)
	assert.Equal(t, "http://purl.obolibrary.org/obo/UBERON_0002113", in["s"], "input must not be modified")
}

func TestExpand(t *testing.T) {
	assert.Equal(t, "http://purl.obolibrary.org/obo/UBERON_0002113", Expand("UBERON:0002113"))
	assert.Equal(t, "http://www.w3.org/2000/01/rdf-schema#label", Expand("rdfs:label"))
	assert.Equal(t, "http://example.org/x", Expand("http://example.org/x"))
	assert.Equal(t, "foo:bar", Expand("foo:bar"))
	assert.Equal(t, "plain", Expand("plain"))

	for _, p := range Map {
		iri := p.IRI + "123"
		assert.Equal(t, iri, Expand(Compact(iri)), p.Code)
	}
}

func TestSPARQL(t *testing.T) {
	lines := strings.Split(SPARQL(), "\n")
	assert.Len(t, lines, len(Map))
	assert.Equal(t, "PREFIX ccf: <http://purl.org/ccf/latest/ccf.owl#>", lines[0])
	assert.Equal(t, "PREFIX RO: <http://purl.obolibrary.org/obo/RO_>", lines[len(lines)-1])
}
