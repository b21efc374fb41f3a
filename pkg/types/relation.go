// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RelationEdge is one row of a reference-organ relations table. Parent and
// Child are ontology terms (usually CURIEs such as "UBERON:0002113").
type RelationEdge struct {
	// RefOrgan is the reference organ IRI (e.g. ".../VH_F_Kidney_L#primary").
	RefOrgan string `json:"ref_organ" yaml:"ref_organ"`

	// RefOrganPart is the IRI of the mesh part within the reference organ.
	RefOrganPart string `json:"ref_organ_part" yaml:"ref_organ_part"`

	Parent string `json:"parent" yaml:"parent"`
	Child  string `json:"child" yaml:"child"`
}

// TermPair is a subject/object pair of ontology terms, independent of the
// reference organ that produced it.
type TermPair struct {
	Subject string
	Object  string
}

// Swap returns the pair with subject and object exchanged.
func (p TermPair) Swap() TermPair {
	return TermPair{Subject: p.Object, Object: p.Subject}
}

// ValidatedTriple is one row returned by the validation query: a
// (subject, predicate, object) triple that confirms an input edge, with
// the labels of each term.
type ValidatedTriple struct {
	RefOrgan     string `json:"ref_organ" yaml:"ref_organ"`
	RefOrganPart string `json:"ref_organ_part" yaml:"ref_organ_part"`
	SLabel       string `json:"slabel" yaml:"slabel"`
	PLabel       string `json:"plabel" yaml:"plabel"`
	OLabel       string `json:"olabel" yaml:"olabel"`
	S            string `json:"s" yaml:"s"`
	P            string `json:"p" yaml:"p"`
	O            string `json:"o" yaml:"o"`
}

// Pair returns the (s, o) pair of the triple.
func (t ValidatedTriple) Pair() TermPair {
	return TermPair{Subject: t.S, Object: t.O}
}

// EdgeStatus classifies a relation edge after validation.
type EdgeStatus string

const (
	EdgeValid    EdgeStatus = "valid"
	EdgeInvalid  EdgeStatus = "invalid"
	EdgeReversed EdgeStatus = "reversed"
)
