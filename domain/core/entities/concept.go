package entities

// Concept is a DOMAIN entity for an abstract idea extracted from journals
// or from content quotes.
type Concept struct {
	EntityCore
	Title       string `json:"title,omitempty"`
	ConceptText string `json:"concept_text,omitempty"`
	Analysis    string `json:"analysis,omitempty"`
	Source      string `json:"source,omitempty"`
}

// NewConcept creates a concept with validation
func NewConcept(name, summaryShort, summary string) (*Concept, error) {
	core, err := NewEntityCore(name, summaryShort, summary)
	if err != nil {
		return nil, err
	}
	return &Concept{EntityCore: core}, nil
}

// Kind implements Entity
func (c *Concept) Kind() Kind { return KindConcept }
