// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relations reads and writes the CSV tables exchanged between the
// collision generators and the validator.
//
// Output matches the files the pipeline has always published: CRLF line
// endings, minimal quoting, and no line break after the last row.
package relations

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/hra-relations/pkg/types"
)

// EdgeColumns is the column order of a relations table.
var EdgeColumns = []string{"ref_organ", "ref_organ_part", "parent", "child"}

// TripleColumns is the column order of the valid-relations table.
var TripleColumns = []string{"ref_organ", "ref_organ_part", "slabel", "plabel", "olabel", "s", "p", "o"}

// Table is a parsed CSV file with a header row.
type Table struct {
	Header []string
	Rows   []map[string]string
}

// Has reports whether the table has every named column.
func (t *Table) Has(columns ...string) error {
	present := make(map[string]bool, len(t.Header))
	for _, h := range t.Header {
		present[h] = true
	}
	var missing []string
	for _, c := range columns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// ReadTable parses CSV with a header row. Blank lines are skipped. Short
// rows leave the trailing columns empty; long rows are an error.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty CSV: header row required")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(t.Rows)+1, err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadEdges parses a relations table.
func ReadEdges(r io.Reader) ([]types.RelationEdge, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.Has(EdgeColumns...); err != nil {
		return nil, fmt.Errorf("relations table: %w", err)
	}
	edges := make([]types.RelationEdge, len(t.Rows))
	for i, row := range t.Rows {
		edges[i] = types.RelationEdge{
			RefOrgan:     row["ref_organ"],
			RefOrganPart: row["ref_organ_part"],
			Parent:       row["parent"],
			Child:        row["child"],
		}
	}
	return edges, nil
}

// WriteEdges writes a relations table.
func WriteEdges(w io.Writer, edges []types.RelationEdge) error {
	rows := make([][]string, len(edges))
	for i, e := range edges {
		rows[i] = []string{e.RefOrgan, e.RefOrganPart, e.Parent, e.Child}
	}
	return WriteTable(w, EdgeColumns, rows)
}

// WriteTriples writes the valid-relations table.
func WriteTriples(w io.Writer, triples []types.ValidatedTriple) error {
	rows := make([][]string, len(triples))
	for i, t := range triples {
		rows[i] = []string{t.RefOrgan, t.RefOrganPart, t.SLabel, t.PLabel, t.OLabel, t.S, t.P, t.O}
	}
	return WriteTable(w, TripleColumns, rows)
}

// WriteTable writes header and rows. The header is written even when there
// are no rows.
func WriteTable(w io.Writer, header []string, rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.UseCRLF = true
	if err := writeRecord(cw, &buf, header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := writeRecord(cw, &buf, row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\r\n")))
	return err
}

// writeRecord writes rec to cw. A record holding one empty field is
// written as "" so it does not read back as a blank line.
func writeRecord(cw *csv.Writer, buf *bytes.Buffer, rec []string) error {
	if len(rec) == 1 && rec[0] == "" {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		buf.WriteString("\"\"\r\n")
		return nil
	}
	return cw.Write(rec)
}
