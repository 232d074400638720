// Package llm implements the generation and embedding clients behind the
// application ports. The Anthropic client is a single-shot caller; retry
// policy belongs to the workflow layer, which replays failed activities
// with its own backoff.
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// aiMetrics holds lazily-initialized OTel instruments for Anthropic calls.
var aiMetrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}

var aiMetricsOnce sync.Once

func initAIMetrics() {
	m := otel.Meter("github.com/alexelgier/minerva/llm")
	aiMetrics.inputTokens, _ = m.Int64Counter("minerva.llm.input_tokens",
		metric.WithDescription("Anthropic API input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.outputTokens, _ = m.Int64Counter("minerva.llm.output_tokens",
		metric.WithDescription("Anthropic API output tokens generated"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.duration, _ = m.Float64Histogram("minerva.llm.request.duration",
		metric.WithDescription("Anthropic API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}

// AnthropicClient implements ports.LLMClient over the Anthropic Messages
// API. Thread-safe; one instance serves the whole worker.
type AnthropicClient struct {
	client           anthropic.Client
	defaultModel     anthropic.Model
	defaultMaxTokens int64
	logger           *zap.Logger
}

// NewAnthropicClient builds the client. The API key is required; model and
// max tokens are the defaults applied when a request leaves them zero.
func NewAnthropicClient(apiKey, model string, maxTokens int, logger *zap.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, pkgerrors.NewValidation("anthropic api key is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	aiMetricsOnce.Do(initAIMetrics)
	return &AnthropicClient{
		client:           anthropic.NewClient(option.WithAPIKey(apiKey)),
		defaultModel:     anthropic.Model(model),
		defaultMaxTokens: int64(maxTokens),
		logger:           logger,
	}, nil
}

var _ ports.LLMClient = (*AnthropicClient)(nil)

// Generate returns the raw text completion for the request
func (c *AnthropicClient) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	model := c.defaultModel
	if req.Model != "" {
		model = anthropic.Model(req.Model)
	}
	maxTokens := c.defaultMaxTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	tracer := otel.Tracer("github.com/alexelgier/minerva/llm")
	ctx, span := tracer.Start(ctx, "anthropic.messages.new", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("minerva.llm.model", string(model)))

	t0 := time.Now()
	message, err := c.client.Messages.New(ctx, params)
	ms := float64(time.Since(t0).Milliseconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", pkgerrors.NewUnavailable("anthropic generate", err)
	}

	modelAttr := attribute.String("minerva.llm.model", string(model))
	if aiMetrics.inputTokens != nil {
		aiMetrics.inputTokens.Add(ctx, message.Usage.InputTokens, metric.WithAttributes(modelAttr))
		aiMetrics.outputTokens.Add(ctx, message.Usage.OutputTokens, metric.WithAttributes(modelAttr))
		aiMetrics.duration.Record(ctx, ms, metric.WithAttributes(modelAttr))
	}
	span.SetAttributes(
		attribute.Int64("minerva.llm.input_tokens", message.Usage.InputTokens),
		attribute.Int64("minerva.llm.output_tokens", message.Usage.OutputTokens),
	)

	if len(message.Content) == 0 {
		return "", pkgerrors.NewProcessing("anthropic response has no content blocks", nil)
	}
	content := message.Content[0]
	if content.Type != "text" {
		return "", pkgerrors.NewProcessing(fmt.Sprintf("anthropic response is not a text block (type=%s)", content.Type), nil)
	}
	return content.Text, nil
}
