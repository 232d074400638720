package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/infrastructure/llm"
	"github.com/alexelgier/minerva/pkg/codec"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// GraphReader fetches existing entities during the merge step. Implemented
// by the graph writer; NotFound means the vault UUID has no node yet.
type GraphReader interface {
	FindEntity(ctx context.Context, kind entities.Kind, id valueobjects.EntityID) (entities.Entity, error)
}

// ExtractionService runs the LLM extraction passes over a journal entry.
// Entity extraction goes type by type; relationship and feeling extraction
// run over the curated entity set after the human gate.
type ExtractionService struct {
	llm      ports.LLMClient
	resolver ports.LinkResolver
	graph    GraphReader
	hydrator *SpanHydrator
	logger   *zap.Logger
}

// NewExtractionService builds the extraction service
func NewExtractionService(client ports.LLMClient, resolver ports.LinkResolver, graph GraphReader, hydrator *SpanHydrator, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		llm:      client,
		resolver: resolver,
		graph:    graph,
		hydrator: hydrator,
		logger:   logger,
	}
}

// extractedEntityWire is the JSON shape the entity extraction prompts ask
// for. Type-specific fields stay empty for kinds that do not use them.
type extractedEntityWire struct {
	Name         string   `json:"name"`
	Summary      string   `json:"summary"`
	SummaryShort string   `json:"summary_short"`
	Spans        []string `json:"spans"`

	Occupation string `json:"occupation,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`

	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Author   string `json:"author,omitempty"`
	URL      string `json:"url,omitempty"`

	Date     string `json:"date,omitempty"`
	Duration string `json:"duration,omitempty"`
	Location string `json:"location,omitempty"`
}

type mergedSummaries struct {
	Summary      string `json:"summary"`
	SummaryShort string `json:"summary_short"`
}

// ExtractEntities runs the per-type extraction pipeline: link index, LLM
// extraction, within-type dedup, merge with existing graph entities, and
// span hydration.
func (s *ExtractionService) ExtractEntities(ctx context.Context, journal *entities.JournalEntry) ([]codec.EntityWithSpans, error) {
	if journal == nil || journal.Text == "" {
		return nil, pkgerrors.NewValidation("journal text cannot be empty")
	}

	index, err := BuildLinkIndex(ctx, s.resolver, journal.Text, s.logger)
	if err != nil {
		return nil, err
	}
	glossary := index.Glossary()

	var out []codec.EntityWithSpans
	for _, kind := range extractionKinds {
		items, err := s.extractKind(ctx, journal, kind, index, glossary)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func (s *ExtractionService) extractKind(ctx context.Context, journal *entities.JournalEntry, kind entities.Kind, index *LinkIndex, glossary string) ([]codec.EntityWithSpans, error) {
	var candidates []extractedEntityWire
	err := llm.GenerateJSON(ctx, s.llm, ports.GenerateRequest{
		System: entitySystemPrompt,
		Prompt: buildEntityPrompt(kind, journal.Text, glossary),
	}, &candidates)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "extract "+string(kind))
	}

	// Dedup by canonical name, strictly within this type. Cross-type
	// collisions are legitimate: a person and a consumable may share a name.
	seen := make(map[string]bool)
	var out []codec.EntityWithSpans
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.Name) == "" {
			continue
		}
		canonical := index.CanonicalName(candidate.Name)
		key := strings.ToLower(canonical)
		if seen[key] {
			continue
		}
		seen[key] = true

		entity, err := s.resolveCandidate(ctx, journal, kind, canonical, candidate, index)
		if err != nil {
			return nil, err
		}

		spans, err := s.hydrator.HydrateAll(journal.Text, candidate.Spans)
		if err != nil {
			return nil, err
		}
		out = append(out, codec.EntityWithSpans{Entity: entity, Spans: spans})
	}
	return out, nil
}

// resolveCandidate builds the entity for one extraction candidate. When the
// link index knows an existing UUID, the candidate is merged with the graph
// entity (UUID preserved, summaries merged by LLM) or, if the graph has no
// node yet, re-hydrated under that UUID.
func (s *ExtractionService) resolveCandidate(ctx context.Context, journal *entities.JournalEntry, kind entities.Kind, canonical string, candidate extractedEntityWire, index *LinkIndex) (entities.Entity, error) {
	entity, err := buildEntity(kind, canonical, candidate)
	if err != nil {
		return nil, err
	}

	note, known := index.Lookup(canonical)
	if !known || note.EntityID == nil {
		return entity, nil
	}

	existing, err := s.graph.FindEntity(ctx, kind, *note.EntityID)
	switch {
	case err == nil && existing != nil:
		merged, err := s.mergeSummaries(ctx, canonical, existing.Core().Summary, candidate.Summary)
		if err != nil {
			return nil, err
		}
		core := entity.Core()
		core.UUID = existing.Core().UUID
		core.CreatedAt = existing.Core().CreatedAt
		core.Summary = merged.Summary
		core.SummaryShort = merged.SummaryShort
		return entity, nil
	case pkgerrors.IsNotFound(err):
		hydrated, err := s.hydrateEntity(ctx, journal, canonical)
		if err != nil {
			return nil, err
		}
		core := entity.Core()
		core.UUID = *note.EntityID
		core.Summary = hydrated.Summary
		core.SummaryShort = hydrated.SummaryShort
		if hydrated.Name != "" {
			core.Name = hydrated.Name
		}
		return entity, nil
	default:
		return nil, pkgerrors.Wrap(err, "fetch existing entity "+note.EntityID.String())
	}
}

func (s *ExtractionService) mergeSummaries(ctx context.Context, name, existingSummary, newSummary string) (mergedSummaries, error) {
	var merged mergedSummaries
	err := llm.GenerateJSON(ctx, s.llm, ports.GenerateRequest{
		System: mergeSystemPrompt,
		Prompt: buildMergePrompt(name, existingSummary, newSummary),
	}, &merged)
	if err != nil {
		return mergedSummaries{}, pkgerrors.Wrap(err, "merge summaries for "+name)
	}
	return merged, nil
}

type hydratedEntity struct {
	Name         string `json:"name"`
	Summary      string `json:"summary"`
	SummaryShort string `json:"summary_short"`
}

func (s *ExtractionService) hydrateEntity(ctx context.Context, journal *entities.JournalEntry, name string) (hydratedEntity, error) {
	var hydrated hydratedEntity
	err := llm.GenerateJSON(ctx, s.llm, ports.GenerateRequest{
		System: hydrateSystemPrompt,
		Prompt: buildHydratePrompt(name, journal.Text),
	}, &hydrated)
	if err != nil {
		return hydratedEntity{}, pkgerrors.Wrap(err, "hydrate entity "+name)
	}
	return hydrated, nil
}

// buildEntity constructs the concrete entity for one candidate
func buildEntity(kind entities.Kind, name string, w extractedEntityWire) (entities.Entity, error) {
	switch kind {
	case entities.KindPerson:
		person, err := entities.NewPerson(name, w.SummaryShort, w.Summary)
		if err != nil {
			return nil, err
		}
		person.Occupation = w.Occupation
		if t, err := time.Parse("2006-01-02", w.BirthDate); err == nil {
			person.BirthDate = &t
		}
		return person, nil
	case entities.KindEmotion:
		return entities.NewEmotion(name, w.SummaryShort, w.Summary)
	case entities.KindConcept:
		concept, err := entities.NewConcept(name, w.SummaryShort, w.Summary)
		if err != nil {
			return nil, err
		}
		concept.Title = w.Title
		return concept, nil
	case entities.KindContent:
		category := valueobjects.ContentCategory(strings.ToUpper(w.Category))
		if !category.Valid() {
			category = valueobjects.ContentCategoryMisc
		}
		content, err := entities.NewContent(name, w.SummaryShort, w.Summary, category)
		if err != nil {
			return nil, err
		}
		if w.Title != "" {
			content.Title = w.Title
		}
		content.Author = w.Author
		content.URL = w.URL
		return content, nil
	case entities.KindConsumable:
		return entities.NewConsumable(name, w.SummaryShort, w.Summary)
	case entities.KindPlace:
		return entities.NewPlace(name, w.SummaryShort, w.Summary)
	case entities.KindEvent:
		event, err := entities.NewEvent(name, w.SummaryShort, w.Summary)
		if err != nil {
			return nil, err
		}
		event.Category = w.Category
		event.Location = w.Location
		if t, err := time.Parse("2006-01-02", w.Date); err == nil {
			event.Date = &t
		}
		event.Duration = valueobjects.ParseFlexibleDuration(w.Duration)
		return event, nil
	case entities.KindProject:
		return entities.NewProject(name, w.SummaryShort, w.Summary)
	}
	return nil, pkgerrors.NewInternal("no builder for entity kind "+string(kind), nil)
}
