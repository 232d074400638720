package workflows

import (
	"go.temporal.io/sdk/worker"
)

// Register adds both workflows and every activity to a worker. The same
// set serves the pipeline and the concept task queues; run one worker per
// queue with its own concurrency settings.
func Register(w worker.Worker, a *Activities) {
	w.RegisterWorkflow(JournalPipelineWorkflow)
	w.RegisterWorkflow(ConceptExtractionWorkflow)

	w.RegisterActivity(a.ExtractEntities)
	w.RegisterActivity(a.SubmitEntityCuration)
	w.RegisterActivity(a.WaitForEntityCuration)
	w.RegisterActivity(a.ExtractFeelings)
	w.RegisterActivity(a.ExtractRelationships)
	w.RegisterActivity(a.SubmitRelationshipCuration)
	w.RegisterActivity(a.WaitForRelationshipCuration)
	w.RegisterActivity(a.WriteToKnowledgeGraph)

	w.RegisterActivity(a.LoadContentQuotes)
	w.RegisterActivity(a.ExtractCandidateConcepts)
	w.RegisterActivity(a.DetectConceptDuplicates)
	w.RegisterActivity(a.CritiqueAndRefineConcepts)
	w.RegisterActivity(a.DiscoverConceptRelations)
	w.RegisterActivity(a.SubmitConceptCuration)
	w.RegisterActivity(a.WaitForConceptCuration)
	w.RegisterActivity(a.WriteConceptGraph)
	w.RegisterActivity(a.MarkContentProcessed)
}
