// The minerva CLI submits journals to the pipeline and inspects running
// workflows. It talks only to the Temporal frontend; the heavy
// dependencies live in the worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/workflows"
	"github.com/alexelgier/minerva/domain/core/entities"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "minerva:", err)
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf("usage: minerva <submit|status|cancel> [flags]")
}

func run(args []string) error {
	if len(args) < 1 {
		return usage()
	}

	flags := flag.NewFlagSet(args[0], flag.ExitOnError)
	hostPort := flags.String("temporal", "localhost:7233", "temporal frontend host:port")
	namespace := flags.String("namespace", "default", "temporal namespace")
	taskQueue := flags.String("task-queue", workflows.DefaultTaskQueue, "pipeline task queue")
	conceptQueue := flags.String("concept-task-queue", workflows.DefaultConceptTaskQueue, "concept task queue")
	file := flags.String("file", "", "journal markdown file (submit)")
	workflowID := flags.String("workflow", "", "workflow id (status, cancel)")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  *hostPort,
		Namespace: *namespace,
	})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer temporalClient.Close()

	orchestrator := workflows.NewOrchestrator(temporalClient, *taskQueue, *conceptQueue, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "submit":
		if *file == "" {
			return fmt.Errorf("submit requires -file")
		}
		raw, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		journal, err := entities.ParseJournalTemplate(string(raw))
		if err != nil {
			return fmt.Errorf("parse journal: %w", err)
		}
		id, err := orchestrator.SubmitJournal(ctx, journal)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil

	case "status":
		if *workflowID == "" {
			return fmt.Errorf("status requires -workflow")
		}
		state, err := orchestrator.GetPipelineStatus(ctx, *workflowID)
		if err != nil {
			return err
		}
		fmt.Printf("stage:      %s\n", state.Stage)
		fmt.Printf("journal:    %s (%s)\n", state.JournalUUID, state.JournalDate)
		fmt.Printf("entities:   %d extracted, %d curated\n", state.ExtractedEntityCount, state.CuratedEntityCount)
		fmt.Printf("relations:  %d extracted, %d curated\n", state.ExtractedRelationshipCount, state.CuratedRelationshipCount)
		fmt.Printf("errors:     %d\n", state.ErrorCount)
		return nil

	case "cancel":
		if *workflowID == "" {
			return fmt.Errorf("cancel requires -workflow")
		}
		canceled, err := orchestrator.CancelWorkflow(ctx, *workflowID)
		if err != nil {
			return err
		}
		if !canceled {
			return fmt.Errorf("no workflow %s", *workflowID)
		}
		fmt.Println("canceled", *workflowID)
		return nil

	default:
		return usage()
	}
}
