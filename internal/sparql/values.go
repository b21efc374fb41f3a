// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sparql

import "strings"

// Term renders a value for inline query data: absolute IRIs are wrapped in
// angle brackets, CURIEs and already-bracketed IRIs pass through.
func Term(v string) string {
	if strings.HasPrefix(v, "<") {
		return v
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "urn:") {
		return "<" + v + ">"
	}
	return v
}

// Rows renders inline data rows as "( a b ) ( c d )". Each value is used
// verbatim; callers format terms with Term or IRI first.
func Rows(rows [][]string) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = "( " + strings.Join(r, " ") + " )"
	}
	return strings.Join(parts, " ")
}

// Values renders a complete VALUES block for vars and rows.
func Values(vars []string, rows [][]string) string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = "?" + strings.TrimPrefix(v, "?")
	}
	return "VALUES (" + strings.Join(names, " ") + ") {\n  " + Rows(rows) + "\n}"
}

// IRI wraps v in angle brackets unconditionally.
func IRI(v string) string {
	return "<" + v + ">"
}
