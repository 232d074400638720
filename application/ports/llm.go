package ports

import (
	"context"

	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

// GenerateRequest is one LLM generation call. Model and MaxTokens default
// from configuration when zero. DisableCache bypasses the response cache for
// calls that must not be replayed from disk.
type GenerateRequest struct {
	Prompt       string
	System       string
	Model        string
	MaxTokens    int
	Temperature  float64
	DisableCache bool
}

// LLMClient is the process-wide, thread-safe generation client. Caching, the
// circuit breaker, and telemetry are decorators over the same interface.
type LLMClient interface {
	// Generate returns the raw text completion for the request
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Embedder produces the vectors stored alongside entities and queried by the
// per-label vector indexes. Dimension is fixed per deployment (1024 in the
// reference embedder).
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// LinkedNote is an externally maintained record mapping a human-friendly
// entity name (with aliases) to an optional known UUID and short summary.
type LinkedNote struct {
	EntityName    string
	CanonicalName string
	Aliases       []string
	EntityID      *valueobjects.EntityID
	ShortSummary  string
}

// LinkResolver resolves wiki-style links against the external note vault.
// Called once per unique link per journal.
type LinkResolver interface {
	ResolveLink(ctx context.Context, linkText string) (*LinkedNote, error)
}
