package valueobjects

import (
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// EntityID is the stable identifier shared by every node in the knowledge
// graph. It is a UUIDv4 string; the zero value is invalid.
type EntityID string

// NewEntityID creates a new random EntityID
func NewEntityID() EntityID {
	return EntityID(uuid.New().String())
}

// ParseEntityID creates an EntityID from a string, validating it's a proper UUID
func ParseEntityID(id string) (EntityID, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return "", pkgerrors.NewValidation("invalid entity id: " + id)
	}
	return EntityID(id), nil
}

// String returns the string representation of the EntityID
func (id EntityID) String() string {
	return string(id)
}

// IsEmpty checks if the EntityID is empty
func (id EntityID) IsEmpty() bool {
	return id == ""
}

// Partition classifies every node as a real-world referent, a text
// artifact, or a time anchor.
type Partition string

const (
	PartitionDomain   Partition = "DOMAIN"
	PartitionLexical  Partition = "LEXICAL"
	PartitionTemporal Partition = "TEMPORAL"
)

// Valid reports whether the partition is one of the three known tags
func (p Partition) Valid() bool {
	switch p {
	case PartitionDomain, PartitionLexical, PartitionTemporal:
		return true
	}
	return false
}
