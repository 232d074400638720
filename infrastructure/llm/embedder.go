package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// embeddingDimension matches the vector indexes in the graph store
const embeddingDimension = 1024

// OpenAIEmbedder implements ports.Embedder over any OpenAI-compatible
// embeddings endpoint via langchaingo. Transient failures retry with
// exponential backoff, bounded so an activity heartbeat never starves.
type OpenAIEmbedder struct {
	client *openai.LLM
	logger *zap.Logger
}

// NewOpenAIEmbedder builds the embedder. baseURL may point at any
// OpenAI-compatible server; model names the embedding model.
func NewOpenAIEmbedder(apiKey, baseURL, model string, logger *zap.Logger) (*OpenAIEmbedder, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, pkgerrors.NewUnavailable("create embedding client", err)
	}
	return &OpenAIEmbedder{client: client, logger: logger}, nil
}

var _ ports.Embedder = (*OpenAIEmbedder)(nil)

// Dimension returns the fixed embedding dimension
func (e *OpenAIEmbedder) Dimension() int {
	return embeddingDimension
}

// CreateEmbedding embeds one text, retrying transient failures
func (e *OpenAIEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, pkgerrors.NewValidation("cannot embed empty text")
	}

	var embedding []float32
	operation := func() error {
		vectors, err := e.client.CreateEmbedding(ctx, []string{text})
		if err != nil {
			return err
		}
		if len(vectors) == 0 {
			return backoff.Permanent(pkgerrors.NewProcessing("embedding response is empty", nil))
		}
		embedding = vectors[0]
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxInterval(10*time.Second),
	), 4), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, pkgerrors.NewUnavailable("create embedding", err)
	}
	if len(embedding) != embeddingDimension {
		e.logger.Warn("embedding dimension mismatch",
			zap.Int("got", len(embedding)),
			zap.Int("want", embeddingDimension))
	}
	return embedding, nil
}
