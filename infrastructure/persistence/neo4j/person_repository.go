package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
)

// PersonRepository adds the person-specific finders
type PersonRepository struct {
	*Repository[*entities.Person]
}

// NewPersonRepository builds the person repository
func NewPersonRepository(driver neo4j.DriverWithContext, embedder ports.Embedder, logger *zap.Logger) *PersonRepository {
	return &PersonRepository{Repository: NewRepository(driver, PersonMapping, embedder, logger)}
}

var _ ports.PersonRepository = (*PersonRepository)(nil)

// FindByOccupation matches persons whose occupation contains the term
func (r *PersonRepository) FindByOccupation(ctx context.Context, occupation string, limit int) ([]*entities.Person, error) {
	return r.queryNodes(ctx,
		`MATCH (p:Person)
		 WHERE toLower(p.occupation) CONTAINS toLower($occupation)
		 RETURN p LIMIT $limit`,
		map[string]any{"occupation": occupation, "limit": limit})
}

// FindByBirthYear matches persons born in the given year. Birth dates are
// RFC 3339 strings, so a prefix match on the year is exact.
func (r *PersonRepository) FindByBirthYear(ctx context.Context, year int) ([]*entities.Person, error) {
	return r.queryNodes(ctx,
		`MATCH (p:Person)
		 WHERE p.birth_date STARTS WITH $prefix
		 RETURN p`,
		map[string]any{"prefix": fmt.Sprintf("%04d-", year)})
}
