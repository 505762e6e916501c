package research

import (
	"context"
	"fmt"
	"log"
	"strings"

	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/research/progress"
	"deep-research-be/pkg/research/search"
	"deep-research-be/pkg/research/writer"
	"deep-research-be/pkg/store"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("deep-research-be/pipeline")

// Orchestrator drives one session through the staged pipeline:
// Plan → Search → Write → (Verify). It owns all mutations of the session
// and all appends to the session's progress log.
type Orchestrator struct {
	runner  agents.IRunner
	variant Variant
	logger  *log.Logger

	coordinator *search.Coordinator
	writeStage  *writer.Stage
}

func NewOrchestrator(runner agents.IRunner, variant Variant, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		runner:      runner,
		variant:     variant,
		logger:      logger,
		coordinator: search.NewCoordinator(runner, variant.Searcher, logger),
		writeStage:  writer.NewStage(runner, variant.Writer, variant.WritingLabels, logger),
	}
}

// WriteStage exposes the stage for test clock injection.
func (o *Orchestrator) WriteStage() *writer.Stage {
	return o.writeStage
}

// Run executes the full pipeline for the session. A planning, writing,
// or verification failure leaves the session in StageFailed with the log
// silent from that point on; per-item search failures never surface here.
func (o *Orchestrator) Run(ctx context.Context, session *store.Session) error {
	ctx, span := tracer.Start(ctx, "Research run")
	defer span.End()
	defer session.Log.Close()

	plog := session.Log

	plog.Append(progress.KindTraceID,
		fmt.Sprintf("Trace ID: %s", span.SpanContext().TraceID().String()), true)
	plog.Append(progress.KindStarting, "Starting research...", true)

	// ── PLANNING ──
	session.Stage = store.StagePlanning
	plan, err := o.planSearches(ctx, session.Query)
	if err != nil {
		o.logger.Printf("[ERROR] Planning failed for session %s: %v", session.ID, err)
		session.Stage = store.StageFailed
		return fmt.Errorf("planning: %w", err)
	}
	session.Plan = plan
	plog.Append(progress.KindPlanning,
		fmt.Sprintf("Will perform %d searches", len(plan.Searches)), true)

	// ── SEARCHING ──
	// Per-item failures are absorbed inside the coordinator; an empty
	// result set is not an error.
	session.Stage = store.StageSearching
	session.SearchResults = o.coordinator.Run(ctx, plan, plog)

	// ── WRITING ──
	session.Stage = store.StageWriting
	input := fmt.Sprintf("Original query: %s\nSummarized search results: %v",
		session.Query, session.SearchResults)
	report, err := o.writeStage.Run(ctx, input, plog)
	if err != nil {
		o.logger.Printf("[ERROR] Writing failed for session %s: %v", session.ID, err)
		session.Stage = store.StageFailed
		return fmt.Errorf("writing: %w", err)
	}
	session.Report = report

	plog.Append(progress.KindFinalReport,
		fmt.Sprintf("Report summary\n\n%s", report.ShortSummary), true)
	plog.Append(progress.KindFullReport, report.MarkdownReport, true)
	plog.Append(progress.KindFollowUps,
		strings.Join(report.FollowUpQuestions, "\n"), true)

	// ── VERIFYING ──
	if o.variant.Verify {
		session.Stage = store.StageVerifying
		verification, err := o.verifyReport(ctx, report, plog)
		if err != nil {
			o.logger.Printf("[ERROR] Verification failed for session %s: %v", session.ID, err)
			session.Stage = store.StageFailed
			return fmt.Errorf("verifying: %w", err)
		}
		session.Verification = verification
	}

	session.Stage = store.StageDone
	return nil
}

func (o *Orchestrator) planSearches(ctx context.Context, query string) (*store.SearchPlan, error) {
	result, err := o.runner.Run(ctx, o.variant.Planner, fmt.Sprintf("Query: %s", query))
	if err != nil {
		return nil, err
	}

	var plan store.SearchPlan
	if err := agents.DecodeJSON(result.FinalOutput, &plan); err != nil {
		return nil, fmt.Errorf("parse search plan: %w", err)
	}
	return &plan, nil
}

func (o *Orchestrator) verifyReport(ctx context.Context, report *store.Report, plog *progress.Log) (*store.VerificationResult, error) {
	plog.Append(progress.KindVerifying, "Verifying report...", false)

	result, err := o.runner.Run(ctx, o.variant.Verifier, report.MarkdownReport)
	if err != nil {
		return nil, err
	}

	var verification store.VerificationResult
	if err := agents.DecodeJSON(result.FinalOutput, &verification); err != nil {
		return nil, fmt.Errorf("parse verification: %w", err)
	}

	plog.Append(progress.KindVerifying, "Verification completed", true)
	plog.Append(progress.KindVerification,
		fmt.Sprintf("Verified: %t\n\nIssues: %s", verification.Verified, verification.Issues), true)
	return &verification, nil
}
