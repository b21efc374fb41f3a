// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spatial loads reference organs and their anatomical structures
// from a CCF spatial entities document and expresses structure placements
// relative to their reference organ.
package spatial

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/hra-relations/internal/fetch"
	"github.com/pdiddy/hra-relations/pkg/types"
)

// CCFContext is the JSON-LD context of documents sent to and produced from
// the CCF services.
const CCFContext = "https://hubmapconsortium.github.io/ccf-ontology/ccf-context.jsonld"

// Getter is the part of fetch.Fetcher a Source needs.
type Getter interface {
	Get(ctx context.Context, src string) ([]byte, error)
}

var _ Getter = (*fetch.Fetcher)(nil)

// Source reads spatial entities from a URL or file.
type Source struct {
	Fetcher Getter
	URL     string
}

// Entities fetches and decodes every spatial entity in the document.
func (s *Source) Entities(ctx context.Context) ([]types.SpatialEntity, error) {
	data, err := s.Fetcher.Get(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching spatial entities: %w", err)
	}
	entities, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding spatial entities from %s: %w", s.URL, err)
	}
	return entities, nil
}

// ReferenceOrgans returns the entities that are their own reference organ.
func (s *Source) ReferenceOrgans(ctx context.Context) ([]types.SpatialEntity, error) {
	entities, err := s.Entities(ctx)
	if err != nil {
		return nil, err
	}
	organs, _ := Split(entities)
	return organs, nil
}

// AnatomicalStructures returns the entities placed inside a reference organ.
func (s *Source) AnatomicalStructures(ctx context.Context) ([]types.SpatialEntity, error) {
	entities, err := s.Entities(ctx)
	if err != nil {
		return nil, err
	}
	_, structures := Split(entities)
	return structures, nil
}

// Split separates reference organs from anatomical structures, keeping
// document order in both.
func Split(entities []types.SpatialEntity) (organs, structures []types.SpatialEntity) {
	for _, e := range entities {
		if IsReferenceOrgan(e) {
			organs = append(organs, e)
		} else {
			structures = append(structures, e)
		}
	}
	return organs, structures
}

// IsReferenceOrgan reports whether e is a reference organ. Entities without
// a reference_organ are treated as organs.
func IsReferenceOrgan(e types.SpatialEntity) bool {
	return e.ReferenceOrgan == "" || e.ReferenceOrgan == e.ID
}

// Decode accepts a JSON array of entities, a JSON-LD document with an
// @graph, or a single entity object.
func Decode(data []byte) ([]types.SpatialEntity, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if data[0] == '[' {
		var entities []types.SpatialEntity
		if err := json.Unmarshal(data, &entities); err != nil {
			return nil, err
		}
		return entities, nil
	}

	var doc struct {
		Graph []types.SpatialEntity `json:"@graph"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Graph != nil {
		return doc.Graph, nil
	}

	var one types.SpatialEntity
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	if one.ID == "" {
		return nil, fmt.Errorf("document has no @graph and no @id")
	}
	return []types.SpatialEntity{one}, nil
}
