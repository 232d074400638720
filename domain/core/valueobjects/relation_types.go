package valueobjects

// ConceptRelationType is the closed set of typed edges between concepts.
// The first six form directed pairs; the last three are symmetric.
type ConceptRelationType string

const (
	ConceptRelGeneralizes ConceptRelationType = "GENERALIZES"
	ConceptRelSpecificOf  ConceptRelationType = "SPECIFIC_OF"
	ConceptRelPartOf      ConceptRelationType = "PART_OF"
	ConceptRelHasPart     ConceptRelationType = "HAS_PART"
	ConceptRelSupports    ConceptRelationType = "SUPPORTS"
	ConceptRelSupportedBy ConceptRelationType = "SUPPORTED_BY"
	ConceptRelOpposes     ConceptRelationType = "OPPOSES"
	ConceptRelSimilarTo   ConceptRelationType = "SIMILAR_TO"
	ConceptRelRelatesTo   ConceptRelationType = "RELATES_TO"
)

var conceptRelationReverse = map[ConceptRelationType]ConceptRelationType{
	ConceptRelGeneralizes: ConceptRelSpecificOf,
	ConceptRelSpecificOf:  ConceptRelGeneralizes,
	ConceptRelPartOf:      ConceptRelHasPart,
	ConceptRelHasPart:     ConceptRelPartOf,
	ConceptRelSupports:    ConceptRelSupportedBy,
	ConceptRelSupportedBy: ConceptRelSupports,
	ConceptRelOpposes:     ConceptRelOpposes,
	ConceptRelSimilarTo:   ConceptRelSimilarTo,
	ConceptRelRelatesTo:   ConceptRelRelatesTo,
}

// Valid reports whether the relation type is one of the known nine
func (t ConceptRelationType) Valid() bool {
	_, ok := conceptRelationReverse[t]
	return ok
}

// Reverse returns the opposite direction of the relation. Symmetric types
// return themselves; Reverse is an involution.
func (t ConceptRelationType) Reverse() ConceptRelationType {
	if rev, ok := conceptRelationReverse[t]; ok {
		return rev
	}
	return t
}

// IsSymmetric reports whether the relation reads the same in both directions
func (t ConceptRelationType) IsSymmetric() bool {
	return conceptRelationReverse[t] == t
}

// ContentCategory classifies a piece of consumed media
type ContentCategory string

const (
	ContentCategoryBook    ContentCategory = "BOOK"
	ContentCategoryArticle ContentCategory = "ARTICLE"
	ContentCategoryYoutube ContentCategory = "YOUTUBE"
	ContentCategoryMovie   ContentCategory = "MOVIE"
	ContentCategoryMisc    ContentCategory = "MISC"
)

// Valid reports whether the category is a known one
func (c ContentCategory) Valid() bool {
	switch c {
	case ContentCategoryBook, ContentCategoryArticle, ContentCategoryYoutube,
		ContentCategoryMovie, ContentCategoryMisc:
		return true
	}
	return false
}
