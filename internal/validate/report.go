// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdiddy/hra-relations/internal/relations"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// Report renders the markdown validation report. total is the link target
// of the total relationships line.
func Report(title string, r *Result, total string) string {
	if title == "" {
		title = types.DefaultReportTitle
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n# %s\n\n", title)
	b.WriteString("## Implicit 3D reference organ 'part of' relationships\n\n")
	fmt.Fprintf(&b, "- [Valid relationships](%s): %d\n", ValidFile, r.Valid)
	fmt.Fprintf(&b, "- [Invalid relationships](%s): %d\n", InvalidFile, r.Invalid)
	if r.CheckedReversed {
		fmt.Fprintf(&b, "- [Reversed relationships](%s): %d\n", ReversedFile, r.Reversed)
	}
	fmt.Fprintf(&b, "- [Total relationships](%s): %d\n", total, r.Unique)
	return b.String()
}

// WriteOutputs writes the valid, invalid and (when checked) reversed
// tables and the report to DataDir.
func (v *Validator) WriteOutputs(r *Result, total string) error {
	var valid bytes.Buffer
	if err := relations.WriteTriples(&valid, r.Triples); err != nil {
		return err
	}
	if err := v.write(ValidFile, valid.Bytes()); err != nil {
		return err
	}

	var invalid bytes.Buffer
	if err := relations.WriteEdges(&invalid, r.InvalidEdges()); err != nil {
		return err
	}
	if err := v.write(InvalidFile, invalid.Bytes()); err != nil {
		return err
	}

	if r.CheckedReversed {
		var reversed bytes.Buffer
		if err := relations.WriteEdges(&reversed, r.ReversedEdges()); err != nil {
			return err
		}
		if err := v.write(ReversedFile, reversed.Bytes()); err != nil {
			return err
		}
	}

	return v.write(ReportFile, []byte(Report(v.ReportTitle, r, total)))
}
