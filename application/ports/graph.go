package ports

import (
	"context"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

// GraphStore is the kind-dispatched surface the write stages use when the
// concrete entity type is only known at runtime (curated items come back
// from the store as tagged payloads). Per-label repositories stay the
// primary API; this is the thin polymorphic layer over them.
type GraphStore interface {
	// FindEntity retrieves an entity by kind and uuid, or NotFound
	FindEntity(ctx context.Context, kind entities.Kind, id valueobjects.EntityID) (entities.Entity, error)

	// EntityExists reports whether a node of the kind exists under the uuid
	EntityExists(ctx context.Context, kind entities.Kind, id valueobjects.EntityID) (bool, error)

	// CreateEntity persists the entity under its label, generating an
	// embedding from Summary when none is present
	CreateEntity(ctx context.Context, e entities.Entity) (valueobjects.EntityID, error)

	// UpdateEntity applies a field patch to an existing node of the kind
	UpdateEntity(ctx context.Context, kind entities.Kind, id valueobjects.EntityID, updates map[string]any) (valueobjects.EntityID, error)
}
