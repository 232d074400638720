package entities

import (
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// Relation is a typed edge between two DOMAIN entities. It references entity
// UUIDs; it never owns them. ProposedTypes always holds at least one entry,
// the chosen Type among them.
type Relation struct {
	Base
	SourceUUID    valueobjects.EntityID `json:"source_uuid"`
	TargetUUID    valueobjects.EntityID `json:"target_uuid"`
	Type          string                `json:"type"`
	ProposedTypes []string              `json:"proposed_types"`
	Summary       string                `json:"summary,omitempty"`
	SummaryShort  string                `json:"summary_short,omitempty"`
	Embedding     []float32             `json:"embedding,omitempty"`
}

// NewRelation creates a relation with validation
func NewRelation(source, target valueobjects.EntityID, relType string, proposed []string) (*Relation, error) {
	if source.IsEmpty() || target.IsEmpty() {
		return nil, pkgerrors.NewValidation("relation requires both source and target uuids")
	}
	if relType == "" {
		return nil, pkgerrors.NewValidation("relation type cannot be empty")
	}
	if len(proposed) == 0 {
		proposed = []string{relType}
	}
	return &Relation{
		Base:          NewBase(valueobjects.PartitionDomain),
		SourceUUID:    source,
		TargetUUID:    target,
		Type:          relType,
		ProposedTypes: proposed,
	}, nil
}

// Kind returns the codec discriminator for relations
func (r *Relation) Kind() Kind { return KindRelation }

// ConceptRelation is a typed edge between two concepts drawn from the closed
// relation vocabulary. Only the forward direction is stored here; the reverse
// is applied explicitly by the orchestration that processes curation output.
type ConceptRelation struct {
	Base
	SourceUUID   valueobjects.EntityID            `json:"source_uuid"`
	TargetUUID   valueobjects.EntityID            `json:"target_uuid"`
	Type         valueobjects.ConceptRelationType `json:"type"`
	Summary      string                           `json:"summary,omitempty"`
	SummaryShort string                           `json:"summary_short,omitempty"`
}

// NewConceptRelation creates a concept relation with validation
func NewConceptRelation(source, target valueobjects.EntityID, relType valueobjects.ConceptRelationType) (*ConceptRelation, error) {
	if source.IsEmpty() || target.IsEmpty() {
		return nil, pkgerrors.NewValidation("concept relation requires both source and target uuids")
	}
	if !relType.Valid() {
		return nil, pkgerrors.NewValidation("unknown concept relation type: " + string(relType))
	}
	return &ConceptRelation{
		Base:       NewBase(valueobjects.PartitionDomain),
		SourceUUID: source,
		TargetUUID: target,
		Type:       relType,
	}, nil
}

// Kind returns the codec discriminator for concept relations
func (r *ConceptRelation) Kind() Kind { return KindConceptRelation }

// Reversed returns the explicit reverse edge (B, reverse(t), A) with a fresh
// UUID. Applying Reversed twice yields an edge equivalent to the original.
func (r *ConceptRelation) Reversed() *ConceptRelation {
	return &ConceptRelation{
		Base:         NewBase(valueobjects.PartitionDomain),
		SourceUUID:   r.TargetUUID,
		TargetUUID:   r.SourceUUID,
		Type:         r.Type.Reverse(),
		Summary:      r.Summary,
		SummaryShort: r.SummaryShort,
	}
}
