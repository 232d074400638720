package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_InstallsGlobalProviders(t *testing.T) {
	// The exporter connection is lazy, so no collector needs to listen on
	// the endpoint for Init to succeed.
	provider, err := Init(context.Background(), "minerva-test", "test", "localhost:4317")
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "telemetry.test.span")
	assert.True(t, span.SpanContext().IsValid(), "the installed provider samples every span")
	assert.True(t, span.IsRecording())

	counter, err := otel.Meter("telemetry-test").Int64Counter("telemetry.test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	// Shutdown flushes toward an endpoint nothing listens on; the error is
	// expected and irrelevant here.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = provider.Shutdown(shutdownCtx)
}
