package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// BreakerClient decorates an LLMClient with a circuit breaker so a
// misbehaving provider fails fast instead of tying up activity slots
// until their timeouts fire.
type BreakerClient struct {
	inner   ports.LLMClient
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps the inner client. The breaker opens after five
// consecutive failures and half-opens after thirty seconds.
func NewBreakerClient(inner ports.LLMClient, logger *zap.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:    "llm",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerClient{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

var _ ports.LLMClient = (*BreakerClient)(nil)

// Generate calls through the breaker
func (c *BreakerClient) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.inner.Generate(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", pkgerrors.NewUnavailable("llm circuit open", err)
		}
		return "", err
	}
	return out.(string), nil
}
