package entities

import (
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// ContentStatus tracks whether a piece of content has been through the
// concept-extraction pipeline.
type ContentStatus string

const (
	ContentStatusNew       ContentStatus = "NEW"
	ContentStatusProcessed ContentStatus = "PROCESSED"
)

// Content is a DOMAIN entity for a consumed piece of media (book, article,
// video...). Its quotes feed the secondary concept-extraction pipeline.
type Content struct {
	EntityCore
	Title    string                       `json:"title,omitempty"`
	Category valueobjects.ContentCategory `json:"category"`
	Status   ContentStatus                `json:"status"`
	Author   string                       `json:"author,omitempty"`
	Quotes   []Quote                      `json:"quotes,omitempty"`
	URL      string                       `json:"url,omitempty"`
}

// NewContent creates a content entity with validation
func NewContent(name, summaryShort, summary string, category valueobjects.ContentCategory) (*Content, error) {
	core, err := NewEntityCore(name, summaryShort, summary)
	if err != nil {
		return nil, err
	}
	if !category.Valid() {
		return nil, pkgerrors.NewValidation("unknown content category: " + string(category))
	}
	return &Content{
		EntityCore: core,
		Title:      name,
		Category:   category,
		Status:     ContentStatusNew,
	}, nil
}

// Kind implements Entity
func (c *Content) Kind() Kind { return KindContent }

// MarkProcessed flips the content to PROCESSED after concept extraction
func (c *Content) MarkProcessed() {
	c.Status = ContentStatusProcessed
}

// Quote is a LEXICAL text artifact: a verbatim quote from a piece of content
type Quote struct {
	Base
	Text      string    `json:"text"`
	Section   string    `json:"section,omitempty"`
	PageRef   string    `json:"page_ref,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// NewQuote creates a quote with validation
func NewQuote(text, section, pageRef string) (*Quote, error) {
	if text == "" {
		return nil, pkgerrors.NewValidation("quote text cannot be empty")
	}
	return &Quote{
		Base:    NewBase(valueobjects.PartitionLexical),
		Text:    text,
		Section: section,
		PageRef: pageRef,
	}, nil
}

// Chunk is a LEXICAL text artifact: a contiguous slice of a larger document
type Chunk struct {
	Base
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// NewChunk creates a chunk with validation
func NewChunk(text string, index int) (*Chunk, error) {
	if text == "" {
		return nil, pkgerrors.NewValidation("chunk text cannot be empty")
	}
	if index < 0 {
		return nil, pkgerrors.NewValidation("chunk index cannot be negative")
	}
	return &Chunk{
		Base:  NewBase(valueobjects.PartitionLexical),
		Text:  text,
		Index: index,
	}, nil
}
