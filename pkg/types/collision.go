// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Collision is an overlap between two mesh parts of a 3D model.
type Collision struct {
	// Source and Target are node names (mesh detector) or 3D structure IRIs
	// (collision API).
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`

	// Percentage is the share of the source part overlapped by the target.
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// CollisionItem is one entry returned by the collision API: an anatomical
// structure the submitted RUI location overlaps.
type CollisionItem struct {
	Type            string  `json:"@type,omitempty" yaml:"type,omitempty"`
	CollisionMethod string  `json:"collision_method,omitempty" yaml:"collision_method,omitempty"`
	AS3DID          string  `json:"as_3d_id" yaml:"as_3d_id"`
	ASID            string  `json:"as_id" yaml:"as_id"`
	ASLabel         string  `json:"as_label,omitempty" yaml:"as_label,omitempty"`
	Percentage      float64 `json:"percentage" yaml:"percentage"`
}

// CollisionSummary lists everything a single anatomical structure collides
// with. It is a node of the collision summary graph.
type CollisionSummary struct {
	ID             string          `json:"@id" yaml:"id"`
	Type           string          `json:"@type" yaml:"type"`
	Source         string          `json:"source" yaml:"source"`
	SourceTerm     string          `json:"source_term,omitempty" yaml:"source_term,omitempty"`
	ReferenceOrgan string          `json:"reference_organ" yaml:"reference_organ"`
	Collisions     []CollisionItem `json:"collisions" yaml:"collisions"`
}

// CollisionGraph is the JSON-LD document emitted by the API generator.
type CollisionGraph struct {
	Context any                `json:"@context"`
	Graph   []CollisionSummary `json:"@graph"`
}
