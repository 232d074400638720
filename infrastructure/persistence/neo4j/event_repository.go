package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
)

// EventRepository adds the event-specific finders
type EventRepository struct {
	*Repository[*entities.Event]
}

// NewEventRepository builds the event repository
func NewEventRepository(driver neo4j.DriverWithContext, embedder ports.Embedder, logger *zap.Logger) *EventRepository {
	return &EventRepository{Repository: NewRepository(driver, EventMapping, embedder, logger)}
}

var _ ports.EventRepository = (*EventRepository)(nil)

// FindByDateRange returns events dated within [from, to]. Dates are
// RFC 3339 strings, which order lexicographically.
func (r *EventRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]*entities.Event, error) {
	return r.queryNodes(ctx,
		`MATCH (e:Event)
		 WHERE e.date >= $from AND e.date <= $to
		 RETURN e ORDER BY e.date`,
		map[string]any{
			"from": from.UTC().Format(timeFormat),
			"to":   to.UTC().Format(timeFormat),
		})
}

// FindByCategory returns events in a category
func (r *EventRepository) FindByCategory(ctx context.Context, category string, limit int) ([]*entities.Event, error) {
	return r.queryNodes(ctx,
		`MATCH (e:Event)
		 WHERE toLower(e.category) = toLower($category)
		 RETURN e ORDER BY e.date LIMIT $limit`,
		map[string]any{"category": category, "limit": limit})
}
