// Package codec serializes the polymorphic entity and curation payloads that
// cross the workflow-engine and curation-store boundaries. Every sum type is
// encoded as a tagged envelope {"type": ..., "data": ...}; one registry keyed
// on the tag replaces per-type serializers. Datetimes are RFC 3339 strings on
// the wire.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/alexelgier/minerva/domain/core/entities"
)

// envelope is the wire form of every polymorphic value
type envelope struct {
	Type entities.Kind   `json:"type"`
	Data json.RawMessage `json:"data"`
}

// entityFactories maps each discriminator to a zero-value constructor.
// Unknown tags fail decoding; callers that tolerate unknown types (the
// curation store) skip and log.
var entityFactories = map[entities.Kind]func() entities.Entity{
	entities.KindPerson:         func() entities.Entity { return &entities.Person{} },
	entities.KindEmotion:        func() entities.Entity { return &entities.Emotion{} },
	entities.KindConcept:        func() entities.Entity { return &entities.Concept{} },
	entities.KindContent:        func() entities.Entity { return &entities.Content{} },
	entities.KindConsumable:     func() entities.Entity { return &entities.Consumable{} },
	entities.KindPlace:          func() entities.Entity { return &entities.Place{} },
	entities.KindEvent:          func() entities.Entity { return &entities.Event{} },
	entities.KindProject:        func() entities.Entity { return &entities.Project{} },
	entities.KindFeelingEmotion: func() entities.Entity { return &entities.FeelingEmotion{} },
	entities.KindFeelingConcept: func() entities.Entity { return &entities.FeelingConcept{} },
}

// KnownEntityKind reports whether the codec can reconstruct the given tag
func KnownEntityKind(kind entities.Kind) bool {
	_, ok := entityFactories[kind]
	return ok
}

// MarshalEntity encodes an entity as a tagged envelope
func MarshalEntity(e entities.Entity) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("cannot marshal nil entity")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.Kind(), err)
	}
	return json.Marshal(envelope{Type: e.Kind(), Data: data})
}

// UnmarshalEntity decodes a tagged envelope back into its concrete type
func UnmarshalEntity(raw []byte) (entities.Entity, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode entity envelope: %w", err)
	}
	factory, ok := entityFactories[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", env.Type)
	}
	e := factory()
	if err := json.Unmarshal(env.Data, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return e, nil
}

// MarshalEntityList encodes a slice of entities as a JSON array of envelopes
func MarshalEntityList(list []entities.Entity) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(list))
	for _, e := range list {
		raw, err := MarshalEntity(e)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

// UnmarshalEntityList decodes a JSON array of envelopes
func UnmarshalEntityList(raw []byte) ([]entities.Entity, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(raw, &raws); err != nil {
		return nil, fmt.Errorf("decode entity list: %w", err)
	}
	out := make([]entities.Entity, 0, len(raws))
	for _, r := range raws {
		e, err := UnmarshalEntity(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
