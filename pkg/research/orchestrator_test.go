package research

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/llm"
	"deep-research-be/pkg/research/progress"
	"deep-research-be/pkg/research/session"
	"deep-research-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roleProvider answers each agent by pattern-matching its system
// message, so one provider can play every role in the pipeline.
type roleProvider struct {
	planErr   error
	planJSON  string
	searchErr error
	report    string
	verify    string
}

const testPlanJSON = `{"searches": [
	{"query": "first", "reason": "r1"},
	{"query": "second", "reason": "r2"},
	{"query": "third", "reason": "r3"}
]}`

const testReportJSON = `{"short_summary": "Summary", "markdown_report": "# Full report", "follow_up_questions": ["q1", "q2"]}`

const testVerifyJSON = `{"verified": true, "issues": ""}`

func (p *roleProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	system := history[0].Content
	switch {
	case strings.Contains(system, "planner"):
		if p.planErr != nil {
			return "", p.planErr
		}
		return p.planJSON, nil
	case strings.Contains(system, "research assistant"):
		if p.searchErr != nil {
			return "", p.searchErr
		}
		return "summary of " + history[1].Content, nil
	case strings.Contains(system, "audit"):
		return p.verify, nil
	default: // writer
		return p.report, nil
	}
}

func (p *roleProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "system"}, {Role: "user", Content: prompt}}, options...)
}

func newTestOrchestrator(provider llm.LLMProvider, variant Variant) *Orchestrator {
	logger := log.New(io.Discard, "", 0)
	return NewOrchestrator(agents.NewRunner(provider, logger), variant, logger)
}

func newTestSession(variant string) *store.Session {
	return session.NewRegistry().Create("What moved the markets this week?", variant)
}

func kinds(records []progress.UpdateRecord) []progress.UpdateKind {
	out := make([]progress.UpdateKind, len(records))
	for i, r := range records {
		out[i] = r.Kind
	}
	return out
}

func TestRunGeneralPipeline(t *testing.T) {
	provider := &roleProvider{planJSON: testPlanJSON, report: testReportJSON}
	o := newTestOrchestrator(provider, GeneralResearch())
	sess := newTestSession(VariantGeneral)

	require.NoError(t, o.Run(context.Background(), sess))
	assert.Equal(t, store.StageDone, sess.Stage)

	require.NotNil(t, sess.Report)
	assert.Equal(t, "Summary", sess.Report.ShortSummary)
	assert.Equal(t, "# Full report", sess.Report.MarkdownReport)
	assert.Len(t, sess.SearchResults, 3)
	assert.Nil(t, sess.Verification)

	records, _ := sess.Log.ReadFrom(0)
	assert.Equal(t, []progress.UpdateKind{
		progress.KindTraceID,
		progress.KindStarting,
		progress.KindPlanning,
		progress.KindSearching, // 1/3
		progress.KindSearching, // 2/3
		progress.KindSearching, // 3/3
		progress.KindSearching, // Search completed
		progress.KindWriting,   // Report completed
		progress.KindFinalReport,
		progress.KindFullReport,
		progress.KindFollowUps,
	}, kinds(records))

	assert.Equal(t, "Will perform 3 searches", records[2].Content)
	assert.Equal(t, "Report summary\n\nSummary", records[8].Content)
	assert.Equal(t, "# Full report", records[9].Content)
	assert.Equal(t, "q1\nq2", records[10].Content)
	assert.True(t, sess.Log.Closed())
}

func TestRunFinancialPipelineVerifies(t *testing.T) {
	provider := &roleProvider{planJSON: testPlanJSON, report: testReportJSON, verify: testVerifyJSON}
	o := newTestOrchestrator(provider, FinancialResearch())
	sess := newTestSession(VariantFinancial)

	require.NoError(t, o.Run(context.Background(), sess))
	assert.Equal(t, store.StageDone, sess.Stage)

	require.NotNil(t, sess.Verification)
	assert.True(t, sess.Verification.Verified)

	records, _ := sess.Log.ReadFrom(0)
	tail := records[len(records)-3:]
	assert.Equal(t, progress.KindVerifying, tail[0].Kind)
	assert.Equal(t, "Verifying report...", tail[0].Content)
	assert.False(t, tail[0].Done)
	assert.Equal(t, "Verification completed", tail[1].Content)
	assert.True(t, tail[1].Done)
	assert.Equal(t, progress.KindVerification, tail[2].Kind)
	assert.Equal(t, "Verified: true\n\nIssues: ", tail[2].Content)
}

func TestRunPlanningFailureLeavesLogSilent(t *testing.T) {
	provider := &roleProvider{planErr: errors.New("model unavailable")}
	o := newTestOrchestrator(provider, GeneralResearch())
	sess := newTestSession(VariantGeneral)

	err := o.Run(context.Background(), sess)
	require.Error(t, err)
	assert.Equal(t, store.StageFailed, sess.Stage)

	// Only the preamble made it to the log; the failure itself is silent.
	records, _ := sess.Log.ReadFrom(0)
	assert.Equal(t, []progress.UpdateKind{
		progress.KindTraceID,
		progress.KindStarting,
	}, kinds(records))
	assert.True(t, sess.Log.Closed())
}

func TestRunSearchFailuresDoNotFailThePipeline(t *testing.T) {
	provider := &roleProvider{planJSON: testPlanJSON, searchErr: errors.New("search backend down"), report: testReportJSON}
	o := newTestOrchestrator(provider, GeneralResearch())
	sess := newTestSession(VariantGeneral)

	require.NoError(t, o.Run(context.Background(), sess))
	assert.Equal(t, store.StageDone, sess.Stage)
	assert.Empty(t, sess.SearchResults)

	// Progress still counted every item.
	records, _ := sess.Log.ReadFrom(0)
	var searching []string
	for _, r := range records {
		if r.Kind == progress.KindSearching {
			searching = append(searching, r.Content)
		}
	}
	assert.Equal(t, []string{
		"Searching... 1/3 completed",
		"Searching... 2/3 completed",
		"Searching... 3/3 completed",
		"Search completed",
	}, searching)
}

func TestRunWritingFailureStopsBeforeReportRecords(t *testing.T) {
	provider := &roleProvider{planJSON: testPlanJSON, report: "not json at all"}
	o := newTestOrchestrator(provider, GeneralResearch())
	sess := newTestSession(VariantGeneral)

	err := o.Run(context.Background(), sess)
	require.Error(t, err)
	assert.Equal(t, store.StageFailed, sess.Stage)
	assert.Nil(t, sess.Report)

	records, _ := sess.Log.ReadFrom(0)
	last := records[len(records)-1]
	assert.Equal(t, progress.KindSearching, last.Kind)
	assert.Equal(t, "Search completed", last.Content)
	assert.True(t, sess.Log.Closed())
}

func TestVariantByNameDefaultsToGeneral(t *testing.T) {
	assert.Equal(t, VariantGeneral, VariantByName("something else").Name)
	assert.Equal(t, VariantFinancial, VariantByName("financial").Name)
}
