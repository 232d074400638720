package neo4j

import (
	"fmt"
	"time"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

// Mapping is the explicit per-label property schema. Every field is mapped
// by name in both directions; nothing is inferred from property-name
// suffixes. Datetimes are stored as RFC 3339 strings.
type Mapping[T entities.Entity] struct {
	Label     string
	ToProps   func(T) map[string]any
	FromProps func(map[string]any) (T, error)
}

const timeFormat = time.RFC3339

func coreToProps(c *entities.EntityCore) map[string]any {
	props := map[string]any{
		"uuid":          c.UUID.String(),
		"created_at":    c.CreatedAt.UTC().Format(timeFormat),
		"partition":     string(c.Partition),
		"name":          c.Name,
		"summary_short": c.SummaryShort,
		"summary":       c.Summary,
	}
	if len(c.Embedding) > 0 {
		props["embedding"] = embeddingToProp(c.Embedding)
	}
	return props
}

func coreFromProps(props map[string]any) (entities.EntityCore, error) {
	uuid, ok := props["uuid"].(string)
	if !ok || uuid == "" {
		return entities.EntityCore{}, fmt.Errorf("node has no uuid property")
	}
	core := entities.EntityCore{
		Base: entities.Base{
			UUID:      valueobjects.EntityID(uuid),
			Partition: valueobjects.Partition(stringProp(props, "partition")),
		},
		Name:         stringProp(props, "name"),
		SummaryShort: stringProp(props, "summary_short"),
		Summary:      stringProp(props, "summary"),
		Embedding:    propToEmbedding(props["embedding"]),
	}
	if t := parseTimeProp(props, "created_at"); t != nil {
		core.CreatedAt = *t
	}
	return core, nil
}

func embeddingToProp(embedding []float32) []float64 {
	out := make([]float64, len(embedding))
	for i, v := range embedding {
		out[i] = float64(v)
	}
	return out
}

func propToEmbedding(raw any) []float32 {
	values, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(values))
	for _, v := range values {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		out = append(out, float32(f))
	}
	return out
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func intProp(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func setIfNotEmpty(props map[string]any, key, value string) {
	if value != "" {
		props[key] = value
	}
}

func setTime(props map[string]any, key string, t *time.Time) {
	if t != nil {
		props[key] = t.UTC().Format(timeFormat)
	}
}

func parseTimeProp(props map[string]any, key string) *time.Time {
	s, ok := props[key].(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return nil
	}
	return &t
}

func setDurationSeconds(props map[string]any, key string, d *time.Duration) {
	if d != nil {
		props[key] = int64(*d / time.Second)
	}
}

func durationProp(props map[string]any, key string) *time.Duration {
	v, ok := props[key].(int64)
	if !ok {
		return nil
	}
	d := time.Duration(v) * time.Second
	return &d
}

// PersonMapping maps Person nodes
var PersonMapping = Mapping[*entities.Person]{
	Label: LabelPerson,
	ToProps: func(p *entities.Person) map[string]any {
		props := coreToProps(&p.EntityCore)
		setIfNotEmpty(props, "occupation", p.Occupation)
		setTime(props, "birth_date", p.BirthDate)
		return props
	},
	FromProps: func(props map[string]any) (*entities.Person, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		return &entities.Person{
			EntityCore: core,
			Occupation: stringProp(props, "occupation"),
			BirthDate:  parseTimeProp(props, "birth_date"),
		}, nil
	},
}

// EmotionMapping maps Emotion nodes
var EmotionMapping = Mapping[*entities.Emotion]{
	Label: LabelEmotion,
	ToProps: func(e *entities.Emotion) map[string]any {
		return coreToProps(&e.EntityCore)
	},
	FromProps: func(props map[string]any) (*entities.Emotion, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		return &entities.Emotion{EntityCore: core}, nil
	},
}

// ConceptMapping maps Concept nodes
var ConceptMapping = Mapping[*entities.Concept]{
	Label: LabelConcept,
	ToProps: func(c *entities.Concept) map[string]any {
		props := coreToProps(&c.EntityCore)
		setIfNotEmpty(props, "title", c.Title)
		setIfNotEmpty(props, "concept_text", c.ConceptText)
		setIfNotEmpty(props, "analysis", c.Analysis)
		setIfNotEmpty(props, "source", c.Source)
		return props
	},
	FromProps: func(props map[string]any) (*entities.Concept, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		return &entities.Concept{
			EntityCore:  core,
			Title:       stringProp(props, "title"),
			ConceptText: stringProp(props, "concept_text"),
			Analysis:    stringProp(props, "analysis"),
			Source:      stringProp(props, "source"),
		}, nil
	},
}

// ContentMapping maps Content nodes. Quotes are separate Quote nodes linked
// by HAS_QUOTE edges, not properties.
var ContentMapping = Mapping[*entities.Content]{
	Label: LabelContent,
	ToProps: func(c *entities.Content) map[string]any {
		props := coreToProps(&c.EntityCore)
		setIfNotEmpty(props, "title", c.Title)
		props["category"] = string(c.Category)
		props["status"] = string(c.Status)
		setIfNotEmpty(props, "author", c.Author)
		setIfNotEmpty(props, "url", c.URL)
		return props
	},
	FromProps: func(props map[string]any) (*entities.Content, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		return &entities.Content{
			EntityCore: core,
			Title:      stringProp(props, "title"),
			Category:   valueobjects.ContentCategory(stringProp(props, "category")),
			Status:     entities.ContentStatus(stringProp(props, "status")),
			Author:     stringProp(props, "author"),
			URL:        stringProp(props, "url"),
		}, nil
	},
}

// ConsumableMapping maps Consumable nodes
var ConsumableMapping = Mapping[*entities.Consumable]{
	Label: LabelConsumable,
	ToProps: func(c *entities.Consumable) map[string]any {
		return coreToProps(&c.EntityCore)
	},
	FromProps: func(props map[string]any) (*entities.Consumable, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		return &entities.Consumable{EntityCore: core}, nil
	},
}

// PlaceMapping maps Place nodes
var PlaceMapping = Mapping[*entities.Place]{
	Label: LabelPlace,
	ToProps: func(p *entities.Place) map[string]any {
		return coreToProps(&p.EntityCore)
	},
	FromProps: func(props map[string]any) (*entities.Place, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		return &entities.Place{EntityCore: core}, nil
	},
}

// EventMapping maps Event nodes
var EventMapping = Mapping[*entities.Event]{
	Label: LabelEvent,
	ToProps: func(e *entities.Event) map[string]any {
		props := coreToProps(&e.EntityCore)
		setIfNotEmpty(props, "category", e.Category)
		setTime(props, "date", e.Date)
		setDurationSeconds(props, "duration_seconds", e.Duration)
		setIfNotEmpty(props, "location", e.Location)
		return props
	},
	FromProps: func(props map[string]any) (*entities.Event, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		return &entities.Event{
			EntityCore: core,
			Category:   stringProp(props, "category"),
			Date:       parseTimeProp(props, "date"),
			Duration:   durationProp(props, "duration_seconds"),
			Location:   stringProp(props, "location"),
		}, nil
	},
}

// ProjectMapping maps Project nodes
var ProjectMapping = Mapping[*entities.Project]{
	Label: LabelProject,
	ToProps: func(p *entities.Project) map[string]any {
		props := coreToProps(&p.EntityCore)
		props["status"] = string(p.Status)
		props["progress"] = int64(p.Progress)
		setTime(props, "start_date", p.StartDate)
		setTime(props, "target_completion", p.TargetCompletion)
		return props
	},
	FromProps: func(props map[string]any) (*entities.Project, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		return &entities.Project{
			EntityCore:       core,
			Status:           entities.ProjectStatus(stringProp(props, "status")),
			Progress:         intProp(props, "progress"),
			StartDate:        parseTimeProp(props, "start_date"),
			TargetCompletion: parseTimeProp(props, "target_completion"),
		}, nil
	},
}

// FeelingEmotionMapping maps FeelingEmotion nodes
var FeelingEmotionMapping = Mapping[*entities.FeelingEmotion]{
	Label: LabelFeelingEmotion,
	ToProps: func(f *entities.FeelingEmotion) map[string]any {
		props := coreToProps(&f.EntityCore)
		props["person_uuid"] = f.PersonUUID.String()
		props["emotion_uuid"] = f.EmotionUUID.String()
		props["timestamp"] = f.Timestamp.UTC().Format(timeFormat)
		if f.Intensity != nil {
			props["intensity"] = int64(*f.Intensity)
		}
		setDurationSeconds(props, "duration_seconds", f.Duration)
		return props
	},
	FromProps: func(props map[string]any) (*entities.FeelingEmotion, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		f := &entities.FeelingEmotion{
			EntityCore:  core,
			PersonUUID:  valueobjects.EntityID(stringProp(props, "person_uuid")),
			EmotionUUID: valueobjects.EntityID(stringProp(props, "emotion_uuid")),
			Duration:    durationProp(props, "duration_seconds"),
		}
		if t := parseTimeProp(props, "timestamp"); t != nil {
			f.Timestamp = *t
		}
		if _, ok := props["intensity"]; ok {
			intensity := intProp(props, "intensity")
			f.Intensity = &intensity
		}
		return f, nil
	},
}

// FeelingConceptMapping maps FeelingConcept nodes
var FeelingConceptMapping = Mapping[*entities.FeelingConcept]{
	Label: LabelFeelingConcept,
	ToProps: func(f *entities.FeelingConcept) map[string]any {
		props := coreToProps(&f.EntityCore)
		props["person_uuid"] = f.PersonUUID.String()
		props["concept_uuid"] = f.ConceptUUID.String()
		props["timestamp"] = f.Timestamp.UTC().Format(timeFormat)
		return props
	},
	FromProps: func(props map[string]any) (*entities.FeelingConcept, error) {
		core, err := coreFromProps(props)
		if err != nil {
			return nil, err
		}
		f := &entities.FeelingConcept{
			EntityCore:  core,
			PersonUUID:  valueobjects.EntityID(stringProp(props, "person_uuid")),
			ConceptUUID: valueobjects.EntityID(stringProp(props, "concept_uuid")),
		}
		if t := parseTimeProp(props, "timestamp"); t != nil {
			f.Timestamp = *t
		}
		return f, nil
	},
}

func quoteToProps(q *entities.Quote) map[string]any {
	props := map[string]any{
		"uuid":       q.UUID.String(),
		"created_at": q.CreatedAt.UTC().Format(timeFormat),
		"partition":  string(q.Partition),
		"text":       q.Text,
	}
	setIfNotEmpty(props, "section", q.Section)
	setIfNotEmpty(props, "page_ref", q.PageRef)
	if len(q.Embedding) > 0 {
		props["embedding"] = embeddingToProp(q.Embedding)
	}
	return props
}

func quoteFromProps(props map[string]any) (*entities.Quote, error) {
	uuid, ok := props["uuid"].(string)
	if !ok || uuid == "" {
		return nil, fmt.Errorf("quote node has no uuid property")
	}
	q := &entities.Quote{
		Base: entities.Base{
			UUID:      valueobjects.EntityID(uuid),
			Partition: valueobjects.Partition(stringProp(props, "partition")),
		},
		Text:      stringProp(props, "text"),
		Section:   stringProp(props, "section"),
		PageRef:   stringProp(props, "page_ref"),
		Embedding: propToEmbedding(props["embedding"]),
	}
	if t := parseTimeProp(props, "created_at"); t != nil {
		q.CreatedAt = *t
	}
	return q, nil
}
