package codec

import (
	"encoding/json"
	"fmt"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

// EntityWithSpans pairs an extracted entity with its hydrated source spans.
// This is the wire unit queued for entity curation.
type EntityWithSpans struct {
	Entity entities.Entity
	Spans  []valueobjects.Span
}

type entityWithSpansWire struct {
	Entity json.RawMessage     `json:"entity"`
	Spans  []valueobjects.Span `json:"spans"`
}

// MarshalJSON implements json.Marshaler
func (e EntityWithSpans) MarshalJSON() ([]byte, error) {
	raw, err := MarshalEntity(e.Entity)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entityWithSpansWire{Entity: raw, Spans: e.Spans})
}

// UnmarshalJSON implements json.Unmarshaler
func (e *EntityWithSpans) UnmarshalJSON(raw []byte) error {
	var wire entityWithSpansWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	entity, err := UnmarshalEntity(wire.Entity)
	if err != nil {
		return err
	}
	e.Entity = entity
	e.Spans = wire.Spans
	return nil
}

// CuratableKind discriminates the relationship-phase curation variants
type CuratableKind string

const (
	CuratableRelation        CuratableKind = "relation"
	CuratableConceptRelation CuratableKind = "concept_relation"
	CuratableFeelingEmotion  CuratableKind = "feeling_emotion"
	CuratableFeelingConcept  CuratableKind = "feeling_concept"
)

// RelationshipContext is a disambiguation annotation tying a relationship to
// one of its participant entities with proposed sub-types.
type RelationshipContext struct {
	EntityUUID valueobjects.EntityID `json:"entity_uuid"`
	SubType    []string              `json:"sub_type"`
}

// CuratableItem is the wire unit queued for relationship curation. Exactly
// one of the data fields is set, matching Kind.
type CuratableItem struct {
	Kind            CuratableKind
	Relation        *entities.Relation
	ConceptRelation *entities.ConceptRelation
	FeelingEmotion  *entities.FeelingEmotion
	FeelingConcept  *entities.FeelingConcept
	Spans           []valueobjects.Span
	Context         []RelationshipContext
}

// NewRelationItem wraps a relation for curation
func NewRelationItem(rel *entities.Relation, spans []valueobjects.Span, ctx []RelationshipContext) CuratableItem {
	return CuratableItem{Kind: CuratableRelation, Relation: rel, Spans: spans, Context: ctx}
}

// NewConceptRelationItem wraps a concept relation for curation
func NewConceptRelationItem(rel *entities.ConceptRelation) CuratableItem {
	return CuratableItem{Kind: CuratableConceptRelation, ConceptRelation: rel}
}

// NewFeelingEmotionItem wraps an emotion feeling for curation
func NewFeelingEmotionItem(f *entities.FeelingEmotion, spans []valueobjects.Span) CuratableItem {
	return CuratableItem{Kind: CuratableFeelingEmotion, FeelingEmotion: f, Spans: spans}
}

// NewFeelingConceptItem wraps a concept feeling for curation
func NewFeelingConceptItem(f *entities.FeelingConcept, spans []valueobjects.Span) CuratableItem {
	return CuratableItem{Kind: CuratableFeelingConcept, FeelingConcept: f, Spans: spans}
}

// UUID returns the stable identifier of whichever variant is set
func (c CuratableItem) UUID() valueobjects.EntityID {
	switch c.Kind {
	case CuratableRelation:
		if c.Relation != nil {
			return c.Relation.UUID
		}
	case CuratableConceptRelation:
		if c.ConceptRelation != nil {
			return c.ConceptRelation.UUID
		}
	case CuratableFeelingEmotion:
		if c.FeelingEmotion != nil {
			return c.FeelingEmotion.UUID
		}
	case CuratableFeelingConcept:
		if c.FeelingConcept != nil {
			return c.FeelingConcept.UUID
		}
	}
	return ""
}

type curatableWire struct {
	Kind    CuratableKind         `json:"kind"`
	Data    json.RawMessage       `json:"data"`
	Spans   []valueobjects.Span   `json:"spans,omitempty"`
	Context []RelationshipContext `json:"context,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (c CuratableItem) MarshalJSON() ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch c.Kind {
	case CuratableRelation:
		data, err = json.Marshal(c.Relation)
	case CuratableConceptRelation:
		data, err = json.Marshal(c.ConceptRelation)
	case CuratableFeelingEmotion:
		data, err = json.Marshal(c.FeelingEmotion)
	case CuratableFeelingConcept:
		data, err = json.Marshal(c.FeelingConcept)
	default:
		return nil, fmt.Errorf("unknown curatable kind %q", c.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal curatable %s: %w", c.Kind, err)
	}
	return json.Marshal(curatableWire{Kind: c.Kind, Data: data, Spans: c.Spans, Context: c.Context})
}

// UnmarshalJSON implements json.Unmarshaler
func (c *CuratableItem) UnmarshalJSON(raw []byte) error {
	var wire curatableWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	c.Kind = wire.Kind
	c.Spans = wire.Spans
	c.Context = wire.Context
	c.Relation = nil
	c.ConceptRelation = nil
	c.FeelingEmotion = nil
	c.FeelingConcept = nil

	switch wire.Kind {
	case CuratableRelation:
		c.Relation = &entities.Relation{}
		return json.Unmarshal(wire.Data, c.Relation)
	case CuratableConceptRelation:
		c.ConceptRelation = &entities.ConceptRelation{}
		return json.Unmarshal(wire.Data, c.ConceptRelation)
	case CuratableFeelingEmotion:
		c.FeelingEmotion = &entities.FeelingEmotion{}
		return json.Unmarshal(wire.Data, c.FeelingEmotion)
	case CuratableFeelingConcept:
		c.FeelingConcept = &entities.FeelingConcept{}
		return json.Unmarshal(wire.Data, c.FeelingConcept)
	}
	return fmt.Errorf("unknown curatable kind %q", wire.Kind)
}
