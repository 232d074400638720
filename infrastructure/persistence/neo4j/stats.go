package neo4j

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/alexelgier/minerva/application/ports"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// StatsReader aggregates per-label node counts and the edge total for the
// curation dashboard.
type StatsReader struct {
	driver neo4j.DriverWithContext
}

// NewStatsReader builds the stats reader
func NewStatsReader(driver neo4j.DriverWithContext) *StatsReader {
	return &StatsReader{driver: driver}
}

var _ ports.GraphStats = (*StatsReader)(nil)

// GetStatistics counts nodes per label and relationships overall
func (s *StatsReader) GetStatistics(ctx context.Context) (ports.GraphStatistics, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	stats := ports.GraphStatistics{NodesByLabel: make(map[string]int64)}

	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) (ports.GraphStatistics, error) {
		res, err := tx.Run(ctx,
			`MATCH (n) UNWIND labels(n) AS label
			 RETURN label, count(*) AS count`, nil)
		if err != nil {
			return stats, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return stats, err
		}
		for _, record := range records {
			label, _ := record.Values[0].(string)
			count, _ := record.Values[1].(int64)
			if label != "" {
				stats.NodesByLabel[label] = count
			}
		}

		res, err = tx.Run(ctx, `MATCH ()-[rel]->() RETURN count(rel) AS count`, nil)
		if err != nil {
			return stats, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return stats, err
		}
		stats.EdgeCount, _ = record.Values[0].(int64)
		return stats, nil
	})
	if err != nil {
		return ports.GraphStatistics{}, pkgerrors.NewUnavailable("graph statistics", err)
	}
	return out, nil
}
