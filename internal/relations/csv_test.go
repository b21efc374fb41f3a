// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relations

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/hra-relations/pkg/types"
)

const kidney = "http://purl.org/ccf/latest/ccf.owl#VH_F_Kidney_L"

func sampleEdges() []types.RelationEdge {
	return []types.RelationEdge{
		{RefOrgan: kidney + "#primary", RefOrganPart: kidney + "#VH_F_renal_pyramid_L_a", Parent: "UBERON:0004200", Child: "UBERON:0001228"},
		{RefOrgan: kidney + "#primary", RefOrganPart: kidney + "#VH_F_renal_papilla_L_a", Parent: "UBERON:0001228", Child: "UBERON:0004200"},
		{RefOrgan: kidney + "#primary", RefOrganPart: `part, with "quotes"`, Parent: "UBERON:1", Child: "UBERON:2"},
	}
}

func TestEdges_RoundTrip(t *testing.T) {
	edges := sampleEdges()

	var buf bytes.Buffer
	require.NoError(t, WriteEdges(&buf, edges))

	got, err := ReadEdges(&buf)
	require.NoError(t, err)
	assert.Equal(t, edges, got)
}

func TestWriteEdges_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEdges(&buf, sampleEdges()[:1]))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "ref_organ,ref_organ_part,parent,child\r\n"))
	assert.False(t, strings.HasSuffix(out, "\n"), "no trailing line break")
	assert.Equal(t, 1, strings.Count(out, "\r\n"))
}

func TestWriteTable_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTriples(&buf, nil))
	assert.Equal(t, "ref_organ,ref_organ_part,slabel,plabel,olabel,s,p,o", buf.String())
}

func TestWriteTable_SingleEmptyField(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, []string{"x"}, [][]string{{""}, {"v"}}))
	assert.Equal(t, "x\r\n\"\"\r\nv", buf.String())

	tbl, err := ReadTable(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "", tbl.Rows[0]["x"])
	assert.Equal(t, "v", tbl.Rows[1]["x"])
}

func TestReadEdges_MissingColumn(t *testing.T) {
	_, err := ReadEdges(strings.NewReader("ref_organ,parent,child\na,b,c\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ref_organ_part")
}

func TestReadEdges_Empty(t *testing.T) {
	_, err := ReadEdges(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadTable(t *testing.T) {
	in := "\ufeffsource,target,percentage\r\nVH_a,VH_b,0.25\r\n\r\nVH_c,VH_d\r\n"
	tbl, err := ReadTable(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"source", "target", "percentage"}, tbl.Header)
	require.Len(t, tbl.Rows, 2, "blank line skipped")
	assert.Equal(t, "0.25", tbl.Rows[0]["percentage"])
	assert.Equal(t, "", tbl.Rows[1]["percentage"], "short row padded")
	assert.NoError(t, tbl.Has("source", "target"))
	assert.Error(t, tbl.Has("glb_file"))
}

func TestReadTable_LongRow(t *testing.T) {
	_, err := ReadTable(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}
