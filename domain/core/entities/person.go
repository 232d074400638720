package entities

import (
	"time"
)

// Person is a DOMAIN entity for a real person mentioned in a journal
type Person struct {
	EntityCore
	Occupation string     `json:"occupation,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
}

// NewPerson creates a person with validation
func NewPerson(name, summaryShort, summary string) (*Person, error) {
	core, err := NewEntityCore(name, summaryShort, summary)
	if err != nil {
		return nil, err
	}
	return &Person{EntityCore: core}, nil
}

// Kind implements Entity
func (p *Person) Kind() Kind { return KindPerson }

// Emotion is a DOMAIN entity for a named emotion (joy, anxiety, ...)
type Emotion struct {
	EntityCore
}

// NewEmotion creates an emotion with validation
func NewEmotion(name, summaryShort, summary string) (*Emotion, error) {
	core, err := NewEntityCore(name, summaryShort, summary)
	if err != nil {
		return nil, err
	}
	return &Emotion{EntityCore: core}, nil
}

// Kind implements Entity
func (e *Emotion) Kind() Kind { return KindEmotion }

// Consumable is a DOMAIN entity for food, drink, or substances consumed
type Consumable struct {
	EntityCore
}

// NewConsumable creates a consumable with validation
func NewConsumable(name, summaryShort, summary string) (*Consumable, error) {
	core, err := NewEntityCore(name, summaryShort, summary)
	if err != nil {
		return nil, err
	}
	return &Consumable{EntityCore: core}, nil
}

// Kind implements Entity
func (c *Consumable) Kind() Kind { return KindConsumable }

// Place is a DOMAIN entity for a physical location
type Place struct {
	EntityCore
}

// NewPlace creates a place with validation
func NewPlace(name, summaryShort, summary string) (*Place, error) {
	core, err := NewEntityCore(name, summaryShort, summary)
	if err != nil {
		return nil, err
	}
	return &Place{EntityCore: core}, nil
}

// Kind implements Entity
func (p *Place) Kind() Kind { return KindPlace }
