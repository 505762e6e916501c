// FILE: internal/service/research_service_test.go
package service

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"deep-research-be/internal/dto"
	"deep-research-be/internal/pkg/logger"
	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/llm"
	"deep-research-be/pkg/research/progress"
	"deep-research-be/pkg/research/session"
	"deep-research-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipelineProvider plays every agent role with canned happy-path output.
type pipelineProvider struct{}

func (pipelineProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	system := history[0].Content
	switch {
	case strings.Contains(system, "planner"):
		return `{"searches": [{"query": "one", "reason": "r"}, {"query": "two", "reason": "r"}]}`, nil
	case strings.Contains(system, "research assistant"):
		return "a short summary", nil
	default:
		return `{"short_summary": "s", "markdown_report": "# r", "follow_up_questions": ["q"]}`, nil
	}
}

func (p pipelineProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "system"}, {Role: "user", Content: prompt}}, options...)
}

// capturingPublisher records every update pushed onto the bus.
type capturingPublisher struct {
	mu      sync.Mutex
	updates []progress.UpdateRecord
}

func (p *capturingPublisher) PublishUpdate(_ string, record progress.UpdateRecord) {
	p.mu.Lock()
	p.updates = append(p.updates, record)
	p.mu.Unlock()
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}

func newTestResearchService(t *testing.T) (IResearchService, *capturingPublisher) {
	t.Helper()
	pipelineLogger := log.New(io.Discard, "", 0)
	publisher := &capturingPublisher{}
	svc := NewResearchService(
		session.NewRegistry(),
		agents.NewRunner(pipelineProvider{}, pipelineLogger),
		publisher,
		nil, // nats
		nil, // archive
		nil, // email
		"",
		logger.NewIsolatedLogger(t.TempDir()+"/test.log"),
		pipelineLogger,
	)
	return svc, publisher
}

func waitForStage(t *testing.T, svc IResearchService, id, stage string) {
	t.Helper()
	require.Eventually(t, func() bool {
		sess, found := svc.Session(id)
		return found && sess.Stage == stage
	}, 3*time.Second, 10*time.Millisecond)
}

func TestStartRunsPipelineToCompletion(t *testing.T) {
	svc, publisher := newTestResearchService(t)

	res, err := svc.Start(&dto.StartResearchRequest{Query: "anything", Variant: "general"})
	require.NoError(t, err)
	require.NotEmpty(t, res.ResearchId)

	waitForStage(t, svc, res.ResearchId, store.StageDone)

	snapshot, err := svc.Snapshot(res.ResearchId)
	require.NoError(t, err)
	assert.Equal(t, "s", snapshot.ShortSummary)
	assert.Equal(t, "# r", snapshot.MarkdownReport)
	assert.Nil(t, snapshot.Verified)

	// Every log record was mirrored onto the update bus.
	sess, _ := svc.Session(res.ResearchId)
	assert.Equal(t, sess.Log.Len(), publisher.count())
}

func TestPollDistinguishesUnknownFromQuiet(t *testing.T) {
	svc, _ := newTestResearchService(t)

	_, err := svc.Poll("does-not-exist", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	res, err := svc.Start(&dto.StartResearchRequest{Query: "anything", Variant: "general"})
	require.NoError(t, err)
	waitForStage(t, svc, res.ResearchId, store.StageDone)

	first, err := svc.Poll(res.ResearchId, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Updates)

	// Caught-up cursor on a known session: empty page, no error.
	quiet, err := svc.Poll(res.ResearchId, first.Cursor)
	require.NoError(t, err)
	assert.Empty(t, quiet.Updates)
	assert.Equal(t, first.Cursor, quiet.Cursor)
}

func TestSnapshotUnknownSession(t *testing.T) {
	svc, _ := newTestResearchService(t)

	_, err := svc.Snapshot("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
