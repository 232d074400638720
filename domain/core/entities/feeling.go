package entities

import (
	"time"

	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// FeelingEmotion is a reified relation: a person experienced an emotion at a
// point in time, optionally with intensity (1-10) and a duration.
type FeelingEmotion struct {
	EntityCore
	PersonUUID  valueobjects.EntityID `json:"person_uuid"`
	EmotionUUID valueobjects.EntityID `json:"emotion_uuid"`
	Timestamp   time.Time             `json:"timestamp"`
	Intensity   *int                  `json:"intensity,omitempty"`
	Duration    *time.Duration        `json:"duration,omitempty"`
}

// NewFeelingEmotion creates a feeling with validation
func NewFeelingEmotion(name string, person, emotion valueobjects.EntityID, at time.Time) (*FeelingEmotion, error) {
	core, err := NewEntityCore(name, "", "")
	if err != nil {
		return nil, err
	}
	if person.IsEmpty() || emotion.IsEmpty() {
		return nil, pkgerrors.NewValidation("feeling requires both a person and an emotion uuid")
	}
	return &FeelingEmotion{
		EntityCore:  core,
		PersonUUID:  person,
		EmotionUUID: emotion,
		Timestamp:   at,
	}, nil
}

// Kind implements Entity
func (f *FeelingEmotion) Kind() Kind { return KindFeelingEmotion }

// SetIntensity records intensity with range validation
func (f *FeelingEmotion) SetIntensity(intensity int) error {
	if intensity < 1 || intensity > 10 {
		return pkgerrors.NewValidation("feeling intensity must be between 1 and 10")
	}
	f.Intensity = &intensity
	return nil
}

// FeelingConcept is a reified relation: a person has a feeling about a concept
type FeelingConcept struct {
	EntityCore
	PersonUUID  valueobjects.EntityID `json:"person_uuid"`
	ConceptUUID valueobjects.EntityID `json:"concept_uuid"`
	Timestamp   time.Time             `json:"timestamp"`
}

// NewFeelingConcept creates a concept feeling with validation
func NewFeelingConcept(name string, person, concept valueobjects.EntityID, at time.Time) (*FeelingConcept, error) {
	core, err := NewEntityCore(name, "", "")
	if err != nil {
		return nil, err
	}
	if person.IsEmpty() || concept.IsEmpty() {
		return nil, pkgerrors.NewValidation("feeling requires both a person and a concept uuid")
	}
	return &FeelingConcept{
		EntityCore:  core,
		PersonUUID:  person,
		ConceptUUID: concept,
		Timestamp:   at,
	}, nil
}

// Kind implements Entity
func (f *FeelingConcept) Kind() Kind { return KindFeelingConcept }
