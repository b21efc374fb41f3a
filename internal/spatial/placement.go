// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spatial

import (
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/hra-relations/pkg/types"
)

const (
	Millimeter = "millimeter"
	Degree     = "degree"
)

var lengthFactors = map[string]float64{
	"":           1,
	"mm":         1,
	"millimeter": 1,
	"cm":         10,
	"centimeter": 10,
	"m":          1000,
	"meter":      1000,
}

var angleFactors = map[string]float64{
	"":       1,
	"deg":    1,
	"degree": 1,
	"rad":    180 / math.Pi,
	"radian": 180 / math.Pi,
}

// ToMillimeters converts v in units to millimeters.
func ToMillimeters(v float64, units string) (float64, error) {
	f, ok := lengthFactors[normalizeUnit(units)]
	if !ok {
		return 0, fmt.Errorf("unknown length unit %q", units)
	}
	return v * f, nil
}

// ToDegrees converts v in units to degrees.
func ToDegrees(v float64, units string) (float64, error) {
	f, ok := angleFactors[normalizeUnit(units)]
	if !ok {
		return 0, fmt.Errorf("unknown angle unit %q", units)
	}
	return v * f, nil
}

func normalizeUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if len(u) > 3 && strings.HasSuffix(u, "s") {
		u = strings.TrimSuffix(u, "s")
	}
	return u
}

// Canonical returns p with translations in millimeters and rotations in
// degrees. Scaling is unitless and untouched.
func Canonical(p types.Placement) (types.Placement, error) {
	var err error
	out := p
	for _, v := range []*float64{&out.XTranslation, &out.YTranslation, &out.ZTranslation} {
		if *v, err = ToMillimeters(*v, p.TranslationUnits); err != nil {
			return types.Placement{}, fmt.Errorf("placement %s: %w", p.ID, err)
		}
	}
	for _, v := range []*float64{&out.XRotation, &out.YRotation, &out.ZRotation} {
		if *v, err = ToDegrees(*v, p.RotationUnits); err != nil {
			return types.Placement{}, fmt.Errorf("placement %s: %w", p.ID, err)
		}
	}
	out.TranslationUnits = Millimeter
	out.RotationUnits = Degree
	return out, nil
}

// NormalizePlacement expresses p relative to organ.
//
// A placement that already targets the organ is returned in canonical
// units. Otherwise the organ must have a placement on the same target as
// p; the translation becomes (p.t - organ.t) / organ.scale and the rotation
// p.r - organ.r, with the target rewritten to the organ.
func NormalizePlacement(p types.Placement, organ types.SpatialEntity) (types.Placement, error) {
	cp, err := Canonical(p)
	if err != nil {
		return types.Placement{}, err
	}
	if p.Target == organ.ID {
		return cp, nil
	}

	op, ok := organ.PlacementFor(p.Target)
	if !ok {
		return types.Placement{}, fmt.Errorf("organ %s has no placement on %s", organ.ID, p.Target)
	}
	op, err = Canonical(op)
	if err != nil {
		return types.Placement{}, err
	}

	out := cp
	out.Target = organ.ID
	out.XTranslation = (cp.XTranslation - op.XTranslation) / scale(op.XScaling)
	out.YTranslation = (cp.YTranslation - op.YTranslation) / scale(op.YScaling)
	out.ZTranslation = (cp.ZTranslation - op.ZTranslation) / scale(op.ZScaling)
	out.XRotation = cp.XRotation - op.XRotation
	out.YRotation = cp.YRotation - op.YRotation
	out.ZRotation = cp.ZRotation - op.ZRotation
	return out, nil
}

// scale treats a missing scale factor as 1.
func scale(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}

// RUILocation builds the tissue block sent to the collision API for a
// structure: a box with the structure's dimensions placed where the
// structure sits inside organ.
func RUILocation(entity, organ types.SpatialEntity) (types.SpatialEntity, error) {
	if len(entity.Placement) == 0 {
		return types.SpatialEntity{}, fmt.Errorf("%s has no placement", entity.ID)
	}
	p, ok := entity.PlacementFor(organ.ID)
	if !ok {
		p = entity.Placement[0]
	}
	np, err := NormalizePlacement(p, organ)
	if err != nil {
		return types.SpatialEntity{}, fmt.Errorf("normalizing %s: %w", entity.ID, err)
	}

	id := entity.ID + "_RUILocation"
	np.ID = id + "_placement"
	np.Type = "SpatialPlacement"

	rui := types.SpatialEntity{
		Context:        CCFContext,
		ID:             id,
		Type:           "SpatialEntity",
		Label:          strings.TrimSpace("RUI location of " + entity.Label),
		ReferenceOrgan: organ.ID,
		DimensionUnits: Millimeter,
		Placement:      types.Placements{np},
	}
	dims := []struct {
		in  float64
		out *float64
	}{
		{entity.XDimension, &rui.XDimension},
		{entity.YDimension, &rui.YDimension},
		{entity.ZDimension, &rui.ZDimension},
	}
	for _, d := range dims {
		if *d.out, err = ToMillimeters(d.in, entity.DimensionUnits); err != nil {
			return types.SpatialEntity{}, fmt.Errorf("dimensions of %s: %w", entity.ID, err)
		}
	}
	return rui, nil
}
