// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
)

// Placement positions a spatial entity relative to a target entity.
// Field names follow the CCF JSON-LD context.
type Placement struct {
	ID     string `json:"@id,omitempty" yaml:"id,omitempty"`
	Type   string `json:"@type,omitempty" yaml:"type,omitempty"`
	Target string `json:"target" yaml:"target"`

	XScaling     float64 `json:"x_scaling" yaml:"x_scaling"`
	YScaling     float64 `json:"y_scaling" yaml:"y_scaling"`
	ZScaling     float64 `json:"z_scaling" yaml:"z_scaling"`
	ScalingUnits string  `json:"scaling_units,omitempty" yaml:"scaling_units,omitempty"`

	XRotation     float64 `json:"x_rotation" yaml:"x_rotation"`
	YRotation     float64 `json:"y_rotation" yaml:"y_rotation"`
	ZRotation     float64 `json:"z_rotation" yaml:"z_rotation"`
	RotationOrder string  `json:"rotation_order,omitempty" yaml:"rotation_order,omitempty"`
	RotationUnits string  `json:"rotation_units,omitempty" yaml:"rotation_units,omitempty"`

	XTranslation     float64 `json:"x_translation" yaml:"x_translation"`
	YTranslation     float64 `json:"y_translation" yaml:"y_translation"`
	ZTranslation     float64 `json:"z_translation" yaml:"z_translation"`
	TranslationUnits string  `json:"translation_units,omitempty" yaml:"translation_units,omitempty"`
}

// SpatialObject references the 3D file that renders a spatial entity.
type SpatialObject struct {
	ID          string `json:"@id,omitempty" yaml:"id,omitempty"`
	Type        string `json:"@type,omitempty" yaml:"type,omitempty"`
	File        string `json:"file" yaml:"file"`
	FileFormat  string `json:"file_format,omitempty" yaml:"file_format,omitempty"`
	FileSubpath string `json:"file_subpath,omitempty" yaml:"file_subpath,omitempty"`
}

// SpatialEntity is a reference organ, one of its anatomical structures, or
// a RUI location (tissue block).
type SpatialEntity struct {
	Context          any    `json:"@context,omitempty" yaml:"-"`
	ID               string `json:"@id" yaml:"id"`
	Type             string `json:"@type" yaml:"type"`
	Label            string `json:"label,omitempty" yaml:"label,omitempty"`
	RepresentationOf string `json:"representation_of,omitempty" yaml:"representation_of,omitempty"`
	ReferenceOrgan   string `json:"reference_organ,omitempty" yaml:"reference_organ,omitempty"`

	XDimension     float64 `json:"x_dimension" yaml:"x_dimension"`
	YDimension     float64 `json:"y_dimension" yaml:"y_dimension"`
	ZDimension     float64 `json:"z_dimension" yaml:"z_dimension"`
	DimensionUnits string  `json:"dimension_units,omitempty" yaml:"dimension_units,omitempty"`

	Object    *SpatialObject `json:"object,omitempty" yaml:"object,omitempty"`
	Placement Placements     `json:"placement,omitempty" yaml:"placement,omitempty"`
}

// PlacementFor returns the first placement whose target is target.
func (e SpatialEntity) PlacementFor(target string) (Placement, bool) {
	for _, p := range e.Placement {
		if p.Target == target {
			return p, true
		}
	}
	return Placement{}, false
}

// Placements decodes either a single placement object or an array of them;
// sources publish both shapes.
type Placements []Placement

// UnmarshalJSON accepts an object, an array, or null.
func (p *Placements) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if data[0] == '{' {
		var one Placement
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*p = Placements{one}
		return nil
	}
	var many []Placement
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*p = many
	return nil
}
