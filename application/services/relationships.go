package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/infrastructure/llm"
	"github.com/alexelgier/minerva/pkg/codec"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

type relationshipWire struct {
	SourceUUID    string   `json:"source_uuid"`
	TargetUUID    string   `json:"target_uuid"`
	Type          string   `json:"type"`
	ProposedTypes []string `json:"proposed_types"`
	Summary       string   `json:"summary"`
	SummaryShort  string   `json:"summary_short"`
	Spans         []string `json:"spans"`
	Context       []struct {
		EntityUUID string   `json:"entity_uuid"`
		SubType    []string `json:"sub_type"`
	} `json:"context"`
}

// ExtractRelationships runs relationship extraction over the curated entity
// set. Triples whose source or target UUID is not in the curated set are
// dropped; invalid context entities are dropped from their annotation. No
// inference happens beyond what the LLM returns.
func (s *ExtractionService) ExtractRelationships(ctx context.Context, journal *entities.JournalEntry, curated []codec.EntityWithSpans) ([]codec.CuratableItem, error) {
	if journal == nil || journal.Text == "" {
		return nil, pkgerrors.NewValidation("journal text cannot be empty")
	}
	if len(curated) == 0 {
		return nil, nil
	}

	var candidates []relationshipWire
	err := llm.GenerateJSON(ctx, s.llm, ports.GenerateRequest{
		System: relationshipSystemPrompt,
		Prompt: buildRelationshipPrompt(journal.Text, curated),
	}, &candidates)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "extract relationships")
	}

	valid := curatedUUIDSet(curated)
	var out []codec.CuratableItem
	for _, candidate := range candidates {
		source := valueobjects.EntityID(candidate.SourceUUID)
		target := valueobjects.EntityID(candidate.TargetUUID)
		if !valid[source] || !valid[target] {
			s.logger.Debug("dropping relationship with unknown endpoint",
				zap.String("source", candidate.SourceUUID),
				zap.String("target", candidate.TargetUUID))
			continue
		}

		rel, err := entities.NewRelation(source, target, candidate.Type, candidate.ProposedTypes)
		if err != nil {
			s.logger.Debug("dropping malformed relationship", zap.Error(err))
			continue
		}
		rel.Summary = candidate.Summary
		rel.SummaryShort = candidate.SummaryShort

		spans, err := s.hydrator.HydrateAll(journal.Text, candidate.Spans)
		if err != nil {
			return nil, err
		}

		var context []codec.RelationshipContext
		for _, c := range candidate.Context {
			entityUUID := valueobjects.EntityID(c.EntityUUID)
			if !valid[entityUUID] {
				s.logger.Debug("dropping context with unknown entity", zap.String("entity", c.EntityUUID))
				continue
			}
			context = append(context, codec.RelationshipContext{EntityUUID: entityUUID, SubType: c.SubType})
		}

		out = append(out, codec.NewRelationItem(rel, spans, context))
	}
	return out, nil
}

type feelingWire struct {
	PersonUUID  string   `json:"person_uuid"`
	EmotionUUID string   `json:"emotion_uuid,omitempty"`
	ConceptUUID string   `json:"concept_uuid,omitempty"`
	Name        string   `json:"name"`
	Timestamp   string   `json:"timestamp"`
	Intensity   *int     `json:"intensity,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Spans       []string `json:"spans"`
}

// ExtractFeelings extracts FeelingEmotion and FeelingConcept items over the
// curated entity set. Without people, or without both emotions and
// concepts, there is nothing to extract.
func (s *ExtractionService) ExtractFeelings(ctx context.Context, journal *entities.JournalEntry, curated []codec.EntityWithSpans) ([]codec.CuratableItem, error) {
	if journal == nil || journal.Text == "" {
		return nil, pkgerrors.NewValidation("journal text cannot be empty")
	}

	persons := filterByKind(curated, entities.KindPerson)
	emotions := filterByKind(curated, entities.KindEmotion)
	concepts := filterByKind(curated, entities.KindConcept)
	if len(persons) == 0 || (len(emotions) == 0 && len(concepts) == 0) {
		return nil, nil
	}

	var candidates []feelingWire
	err := llm.GenerateJSON(ctx, s.llm, ports.GenerateRequest{
		System: feelingSystemPrompt,
		Prompt: buildFeelingPrompt(journal.Text, journal.DateString(), persons, emotions, concepts),
	}, &candidates)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "extract feelings")
	}

	personSet := curatedUUIDSet(persons)
	emotionSet := curatedUUIDSet(emotions)
	conceptSet := curatedUUIDSet(concepts)

	var out []codec.CuratableItem
	for _, candidate := range candidates {
		person := valueobjects.EntityID(candidate.PersonUUID)
		if !personSet[person] {
			s.logger.Debug("dropping feeling with unknown person", zap.String("person", candidate.PersonUUID))
			continue
		}

		at := s.parseFeelingTimestamp(candidate.Timestamp, journal.Date)
		spans, err := s.hydrator.HydrateAll(journal.Text, candidate.Spans)
		if err != nil {
			return nil, err
		}

		name := candidate.Name
		if name == "" {
			name = "feeling"
		}

		switch {
		case candidate.EmotionUUID != "" && emotionSet[valueobjects.EntityID(candidate.EmotionUUID)]:
			feeling, err := entities.NewFeelingEmotion(name, person, valueobjects.EntityID(candidate.EmotionUUID), at)
			if err != nil {
				continue
			}
			if candidate.Intensity != nil {
				if err := feeling.SetIntensity(*candidate.Intensity); err != nil {
					s.logger.Debug("ignoring out-of-range intensity", zap.Intp("intensity", candidate.Intensity))
				}
			}
			feeling.Duration = valueobjects.ParseFlexibleDuration(candidate.Duration)
			out = append(out, codec.NewFeelingEmotionItem(feeling, spans))

		case candidate.ConceptUUID != "" && conceptSet[valueobjects.EntityID(candidate.ConceptUUID)]:
			feeling, err := entities.NewFeelingConcept(name, person, valueobjects.EntityID(candidate.ConceptUUID), at)
			if err != nil {
				continue
			}
			out = append(out, codec.NewFeelingConceptItem(feeling, spans))

		default:
			s.logger.Debug("dropping feeling without a valid emotion or concept")
		}
	}
	return out, nil
}

func (s *ExtractionService) parseFeelingTimestamp(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return fallback
}

func curatedUUIDSet(items []codec.EntityWithSpans) map[valueobjects.EntityID]bool {
	set := make(map[valueobjects.EntityID]bool, len(items))
	for _, item := range items {
		set[item.Entity.ID()] = true
	}
	return set
}

func filterByKind(items []codec.EntityWithSpans, kind entities.Kind) []codec.EntityWithSpans {
	var out []codec.EntityWithSpans
	for _, item := range items {
		if item.Entity.Kind() == kind {
			out = append(out, item)
		}
	}
	return out
}
