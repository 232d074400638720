// The worker runs the minerva pipeline: it hosts the journal and concept
// workflows, their activities, and the metrics endpoint. One process
// serves both task queues.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/application/services"
	"github.com/alexelgier/minerva/application/workflows"
	"github.com/alexelgier/minerva/infrastructure/config"
	"github.com/alexelgier/minerva/infrastructure/llm"
	"github.com/alexelgier/minerva/infrastructure/messaging"
	minervaneo4j "github.com/alexelgier/minerva/infrastructure/persistence/neo4j"
	"github.com/alexelgier/minerva/infrastructure/persistence/postgres"
	"github.com/alexelgier/minerva/infrastructure/telemetry"
	"github.com/alexelgier/minerva/infrastructure/vault"
	"github.com/alexelgier/minerva/pkg/observability"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "worker failed:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Environment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Telemetry. The LLM client records into the otel globals; without this
	// install they stay no-op.
	if cfg.Telemetry.OTLPEndpoint != "" {
		provider, err := telemetry.Init(ctx, "minerva-worker", cfg.Environment, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer provider.Shutdown(context.Background())
	}

	// Curation store.
	db, err := postgres.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		return err
	}
	store := postgres.NewCurationStore(db, logger)

	// Graph writer.
	driver, err := minervaneo4j.Connect(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password)
	if err != nil {
		return err
	}
	defer driver.Close(context.Background())
	if err := minervaneo4j.EnsureSchema(ctx, driver); err != nil {
		return err
	}

	// LLM stack: anthropic, wrapped by the circuit breaker, wrapped by the
	// optional on-disk response cache.
	var llmClient ports.LLMClient
	anthropicClient, err := llm.NewAnthropicClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, logger)
	if err != nil {
		return err
	}
	llmClient = llm.NewBreakerClient(anthropicClient, logger)
	if !cfg.LLM.CacheOff {
		cached, err := llm.NewCachingClient(llmClient, cfg.LLM.CachePath, logger)
		if err != nil {
			return err
		}
		defer cached.Close()
		llmClient = cached
	}

	embedder, err := llm.NewOpenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, logger)
	if err != nil {
		return err
	}

	graph := minervaneo4j.NewGraph(driver, embedder, logger)

	resolver, err := vault.NewResolver(cfg.Vault.Dir, logger)
	if err != nil {
		return err
	}

	var notifier ports.CurationNotifier = messaging.NopNotifier{}
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		notifier = messaging.NewRedisNotifier(redisClient, logger)
	}

	// Services and activities.
	hydrator := services.NewSpanHydrator(cfg.Extraction.FuzzyThreshold, logger)
	extraction := services.NewExtractionService(llmClient, resolver, graph, hydrator, logger)
	concepts := services.NewConceptService(llmClient, graph.Concepts, logger)
	writer := services.NewGraphWriteService(graph, graph.Journals, graph.Relations, graph.Feelings, graph.Concepts, graph.Contents, logger)
	metrics := observability.NewMetrics()
	activities := workflows.NewActivities(extraction, concepts, writer, store, notifier, graph.Contents,
		metrics, cfg.Extraction.PollInterval, logger)

	// Temporal client and one worker per task queue.
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer temporalClient.Close()

	pipelineWorker := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})
	workflows.Register(pipelineWorker, activities)
	conceptWorker := worker.New(temporalClient, cfg.Temporal.ConceptTaskQueue, worker.Options{})
	workflows.Register(conceptWorker, activities)

	// Metrics endpoint.
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	defer metricsServer.Shutdown(context.Background())

	logger.Info("minerva worker starting",
		zap.String("task_queue", cfg.Temporal.TaskQueue),
		zap.String("concept_task_queue", cfg.Temporal.ConceptTaskQueue),
		zap.String("metrics_addr", cfg.MetricsAddr))

	if err := pipelineWorker.Start(); err != nil {
		return fmt.Errorf("start pipeline worker: %w", err)
	}
	defer pipelineWorker.Stop()

	// Run blocks until SIGINT/SIGTERM.
	if err := conceptWorker.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("run concept worker: %w", err)
	}
	return nil
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
