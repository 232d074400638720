package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/infrastructure/llm"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

const (
	// MaxConceptsPerContent caps candidate concepts per extraction run
	MaxConceptsPerContent = 5
	// MaxQuotesForExtraction caps the source quotes fed to the prompt
	MaxQuotesForExtraction = 20
)

// ConceptService extracts candidate concepts from content quotes, detects
// duplicates against the existing graph, discovers concept relations, and
// runs the critique/refine pass.
type ConceptService struct {
	llm      ports.LLMClient
	concepts ports.ConceptRepository
	logger   *zap.Logger
}

// NewConceptService builds the concept service
func NewConceptService(client ports.LLMClient, concepts ports.ConceptRepository, logger *zap.Logger) *ConceptService {
	return &ConceptService{llm: client, concepts: concepts, logger: logger}
}

type conceptWire struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	ConceptText  string `json:"concept_text"`
	Analysis     string `json:"analysis"`
	Summary      string `json:"summary"`
	SummaryShort string `json:"summary_short"`
}

const conceptSystemPrompt = `You distill durable concepts from quotes. A concept is an abstract,
reusable idea, not a summary of one quote. Respond with a single JSON array
and nothing else.`

// ExtractConcepts proposes up to MaxConceptsPerContent candidate concepts
// from the content's quotes. Quotes beyond the cap are ignored.
func (s *ConceptService) ExtractConcepts(ctx context.Context, content *entities.Content, quotes []*entities.Quote) ([]*entities.Concept, error) {
	if len(quotes) == 0 {
		return nil, nil
	}
	if len(quotes) > MaxQuotesForExtraction {
		quotes = quotes[:MaxQuotesForExtraction]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Extract up to %d concepts supported by these quotes from "%s".

Quotes:
`, MaxConceptsPerContent, content.Title)
	for i, quote := range quotes {
		fmt.Fprintf(&b, "%d. %q\n", i+1, quote.Text)
	}
	b.WriteString(`
Return a JSON array:
[{"name": "...", "title": "...", "concept_text": "the idea in its own words", "analysis": "why it matters", "summary": "up to 100 words", "summary_short": "up to 30 words"}]`)

	var candidates []conceptWire
	err := llm.GenerateJSON(ctx, s.llm, ports.GenerateRequest{
		System: conceptSystemPrompt,
		Prompt: b.String(),
	}, &candidates)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "extract concepts")
	}

	if len(candidates) > MaxConceptsPerContent {
		candidates = candidates[:MaxConceptsPerContent]
	}

	var out []*entities.Concept
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.Name) == "" {
			continue
		}
		concept, err := entities.NewConcept(candidate.Name, candidate.SummaryShort, candidate.Summary)
		if err != nil {
			continue
		}
		concept.Title = candidate.Title
		concept.ConceptText = candidate.ConceptText
		concept.Analysis = candidate.Analysis
		concept.Source = content.Title
		out = append(out, concept)
	}
	return out, nil
}

// DetectDuplicates splits candidates into genuinely new concepts and ones
// that already exist in the graph (matched by name/title or by vector
// similarity). Duplicates are returned with the existing entity so the
// caller can link quotes to it instead of creating a twin.
func (s *ConceptService) DetectDuplicates(ctx context.Context, candidates []*entities.Concept) (fresh []*entities.Concept, existing []*entities.Concept, err error) {
	for _, candidate := range candidates {
		match, err := s.findExisting(ctx, candidate)
		if err != nil {
			return nil, nil, err
		}
		if match != nil {
			s.logger.Info("concept candidate matches existing concept",
				zap.String("candidate", candidate.Name),
				zap.String("existing", match.UUID.String()))
			existing = append(existing, match)
			continue
		}
		fresh = append(fresh, candidate)
	}
	return fresh, existing, nil
}

func (s *ConceptService) findExisting(ctx context.Context, candidate *entities.Concept) (*entities.Concept, error) {
	byName, err := s.concepts.FindByNameOrTitle(ctx, candidate.Name)
	if err == nil {
		return byName, nil
	}
	if !pkgerrors.IsNotFound(err) {
		return nil, err
	}
	if candidate.Title != "" && !strings.EqualFold(candidate.Title, candidate.Name) {
		byTitle, err := s.concepts.FindByNameOrTitle(ctx, candidate.Title)
		if err == nil {
			return byTitle, nil
		}
		if !pkgerrors.IsNotFound(err) {
			return nil, err
		}
	}

	// Vector pass: a near-identical summary under a different name is still
	// a duplicate.
	similar, err := s.concepts.VectorSearch(ctx, candidate.Summary, 1, 0.9)
	if err != nil {
		return nil, err
	}
	if len(similar) > 0 {
		return similar[0], nil
	}
	return nil, nil
}

type conceptRelationWire struct {
	SourceUUID string `json:"source_uuid"`
	TargetUUID string `json:"target_uuid"`
	Type       string `json:"type"`
}

const conceptRelationSystemPrompt = `You identify typed relations between concepts. Respond with a single JSON
array and nothing else. Use only the UUIDs and relation types listed.`

// DiscoverRelations proposes typed relations among the new concepts and
// between new concepts and relevant existing ones. Invalid UUIDs or types
// are dropped.
func (s *ConceptService) DiscoverRelations(ctx context.Context, concepts []*entities.Concept) ([]*entities.ConceptRelation, error) {
	if len(concepts) < 1 {
		return nil, nil
	}

	pool := make(map[valueobjects.EntityID]*entities.Concept, len(concepts))
	var b strings.Builder
	b.WriteString("Concepts:\n")
	for _, concept := range concepts {
		pool[concept.UUID] = concept
		fmt.Fprintf(&b, "- %s uuid=%s: %s\n", concept.Name, concept.UUID, concept.SummaryShort)
	}

	// Pull in existing neighbors so new concepts can attach to the graph.
	for _, concept := range concepts {
		relevant, err := s.concepts.FindRelevant(ctx, concept.Summary, 3)
		if err != nil {
			return nil, err
		}
		for _, neighbor := range relevant {
			if _, seen := pool[neighbor.UUID]; seen {
				continue
			}
			pool[neighbor.UUID] = neighbor
			fmt.Fprintf(&b, "- %s uuid=%s: %s\n", neighbor.Name, neighbor.UUID, neighbor.SummaryShort)
		}
	}

	fmt.Fprintf(&b, `
Relation types: GENERALIZES, SPECIFIC_OF, PART_OF, HAS_PART, SUPPORTS, SUPPORTED_BY, OPPOSES, SIMILAR_TO, RELATES_TO.
Return a JSON array:
[{"source_uuid": "...", "target_uuid": "...", "type": "RELATES_TO"}]`)

	var candidates []conceptRelationWire
	err := llm.GenerateJSON(ctx, s.llm, ports.GenerateRequest{
		System: conceptRelationSystemPrompt,
		Prompt: b.String(),
	}, &candidates)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "discover concept relations")
	}

	var out []*entities.ConceptRelation
	for _, candidate := range candidates {
		source := valueobjects.EntityID(candidate.SourceUUID)
		target := valueobjects.EntityID(candidate.TargetUUID)
		if pool[source] == nil || pool[target] == nil || source == target {
			continue
		}
		rel, err := entities.NewConceptRelation(source, target, valueobjects.ConceptRelationType(candidate.Type))
		if err != nil {
			s.logger.Debug("dropping invalid concept relation", zap.Error(err))
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

type critiqueWire struct {
	Issues []string `json:"issues"`
}

const critiqueSystemPrompt = `You review extracted concepts for quality. Respond with a single JSON
object and nothing else.`

// Critique asks the model to review the candidate set; an empty issue list
// means the set passes.
func (s *ConceptService) Critique(ctx context.Context, concepts []*entities.Concept) ([]string, error) {
	if len(concepts) == 0 {
		return nil, nil
	}
	var b strings.Builder
	b.WriteString("Review these concepts. Flag ones that are vague, redundant, or just quote summaries.\n\n")
	for _, concept := range concepts {
		fmt.Fprintf(&b, "- %s: %s\n", concept.Name, concept.Summary)
	}
	b.WriteString(`
Return JSON: {"issues": ["one sentence per problem, naming the concept", ...]}. Empty array if all pass.`)

	var critique critiqueWire
	err := llm.GenerateJSON(ctx, s.llm, ports.GenerateRequest{
		System: critiqueSystemPrompt,
		Prompt: b.String(),
	}, &critique)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "critique concepts")
	}
	return critique.Issues, nil
}

// Refine rewrites the candidate set to address critique issues. UUIDs of
// surviving concepts are preserved by matching on name.
func (s *ConceptService) Refine(ctx context.Context, concepts []*entities.Concept, issues []string) ([]*entities.Concept, error) {
	if len(issues) == 0 {
		return concepts, nil
	}

	var b strings.Builder
	b.WriteString("Revise these concepts to address the issues. Drop irreparable ones; keep names stable where possible.\n\nConcepts:\n")
	for _, concept := range concepts {
		fmt.Fprintf(&b, "- %s | %s | %s\n", concept.Name, concept.SummaryShort, concept.Summary)
	}
	b.WriteString("\nIssues:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	b.WriteString(`
Return a JSON array:
[{"name": "...", "title": "...", "concept_text": "...", "analysis": "...", "summary": "...", "summary_short": "..."}]`)

	var revised []conceptWire
	err := llm.GenerateJSON(ctx, s.llm, ports.GenerateRequest{
		System: conceptSystemPrompt,
		Prompt: b.String(),
	}, &revised)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "refine concepts")
	}

	byName := make(map[string]*entities.Concept, len(concepts))
	for _, concept := range concepts {
		byName[strings.ToLower(concept.Name)] = concept
	}

	var out []*entities.Concept
	for _, w := range revised {
		if strings.TrimSpace(w.Name) == "" {
			continue
		}
		if original, ok := byName[strings.ToLower(w.Name)]; ok {
			original.Title = w.Title
			original.ConceptText = w.ConceptText
			original.Analysis = w.Analysis
			original.Summary = w.Summary
			original.SummaryShort = w.SummaryShort
			original.Embedding = nil
			out = append(out, original)
			continue
		}
		concept, err := entities.NewConcept(w.Name, w.SummaryShort, w.Summary)
		if err != nil {
			continue
		}
		concept.Title = w.Title
		concept.ConceptText = w.ConceptText
		concept.Analysis = w.Analysis
		out = append(out, concept)
	}
	if len(out) > MaxConceptsPerContent {
		out = out[:MaxConceptsPerContent]
	}
	return out, nil
}
