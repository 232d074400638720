// Package neo4j implements the graph writer over a labeled property graph.
// Entities live under one label per type with a uuid uniqueness constraint
// and a per-label cosine vector index over the embedding property. Node
// relations are created in one direction only; callers that need both
// directions (concept relations) request the reverse explicitly.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Labels used by the graph writer.
const (
	LabelPerson         = "Person"
	LabelEmotion        = "Emotion"
	LabelConcept        = "Concept"
	LabelContent        = "Content"
	LabelConsumable     = "Consumable"
	LabelPlace          = "Place"
	LabelEvent          = "Event"
	LabelProject        = "Project"
	LabelFeelingEmotion = "FeelingEmotion"
	LabelFeelingConcept = "FeelingConcept"
	LabelQuote          = "Quote"
	LabelJournal        = "JournalEntry"
)

// EmbeddingDimension matches the embedder; the vector indexes are built
// with it.
const EmbeddingDimension = 1024

// Connect opens a driver and verifies connectivity
func Connect(ctx context.Context, uri, username, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return driver, nil
}

// vectorIndexName derives the per-label vector index name
func vectorIndexName(label string) string {
	return strings.ToLower(label) + "_embedding_idx"
}

// EnsureSchema creates the uuid constraints and vector indexes for every
// label the writer uses. Safe to run repeatedly.
func EnsureSchema(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	labels := []string{
		LabelPerson, LabelEmotion, LabelConcept, LabelContent, LabelConsumable,
		LabelPlace, LabelEvent, LabelProject, LabelFeelingEmotion,
		LabelFeelingConcept, LabelQuote, LabelJournal,
	}
	for _, label := range labels {
		constraint := fmt.Sprintf(
			"CREATE CONSTRAINT %s_uuid IF NOT EXISTS FOR (n:%s) REQUIRE n.uuid IS UNIQUE",
			strings.ToLower(label), label)
		if _, err := session.Run(ctx, constraint, nil); err != nil {
			return fmt.Errorf("create constraint for %s: %w", label, err)
		}

		index := fmt.Sprintf(
			"CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.embedding) "+
				"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
			vectorIndexName(label), label, EmbeddingDimension)
		if _, err := session.Run(ctx, index, nil); err != nil {
			return fmt.Errorf("create vector index for %s: %w", label, err)
		}
	}
	return nil
}
