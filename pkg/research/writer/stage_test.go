package writer

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/llm"
	"deep-research-be/pkg/research/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamProvider replays scripted chunks through ChatStream.
type streamProvider struct {
	chunks []string
	final  string
	err    error
}

func (p *streamProvider) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return p.final, p.err
}

func (p *streamProvider) Generate(context.Context, string, ...llm.Option) (string, error) {
	return p.final, p.err
}

func (p *streamProvider) ChatStream(_ context.Context, _ []llm.Message, onChunk llm.StreamHandler, _ ...llm.Option) (string, error) {
	for _, chunk := range p.chunks {
		onChunk(chunk)
	}
	return p.final, p.err
}

// tickingClock advances by step on every reading, which makes heartbeat
// timing a pure function of how many events the stream produced.
func tickingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

const reportJSON = `{"short_summary": "A short take", "markdown_report": "# Report", "follow_up_questions": ["What next?"]}`

func newStage(provider llm.LLMProvider, labels []string) *Stage {
	runner := agents.NewRunner(provider, discardLogger())
	return NewStage(runner, agents.Agent{Name: "Writer agent"}, labels, discardLogger())
}

func writingRecords(plog *progress.Log) []progress.UpdateRecord {
	records, _ := plog.ReadFrom(0)
	var out []progress.UpdateRecord
	for _, r := range records {
		if r.Kind == progress.KindWriting {
			out = append(out, r)
		}
	}
	return out
}

func TestRunParsesReportAndAppendsDoneRecord(t *testing.T) {
	provider := &streamProvider{chunks: []string{"partial"}, final: reportJSON}
	s := newStage(provider, []string{"Writing outline..."})

	plog := progress.NewLog()
	report, err := s.Run(context.Background(), "Original query: x", plog)
	require.NoError(t, err)

	assert.Equal(t, "A short take", report.ShortSummary)
	assert.Equal(t, "# Report", report.MarkdownReport)
	assert.Equal(t, []string{"What next?"}, report.FollowUpQuestions)

	records := writingRecords(plog)
	require.NotEmpty(t, records)
	last := records[len(records)-1]
	assert.Equal(t, "Report completed", last.Content)
	assert.True(t, last.Done)
}

func TestRunEmitsLabelsInOrderWhenStreamIsSlow(t *testing.T) {
	labels := []string{"Thinking about report...", "Planning report structure...", "Writing outline..."}
	provider := &streamProvider{
		chunks: []string{"a", "b", "c", "d", "e", "f"},
		final:  reportJSON,
	}
	s := newStage(provider, labels)
	// Every clock reading moves 6s, so each event boundary crosses the
	// heartbeat threshold until the labels run out.
	s.SetClock(tickingClock(6 * time.Second))

	plog := progress.NewLog()
	_, err := s.Run(context.Background(), "input", plog)
	require.NoError(t, err)

	records := writingRecords(plog)
	require.Len(t, records, len(labels)+1) // labels + terminal done record
	for i, label := range labels {
		assert.Equal(t, label, records[i].Content)
		assert.False(t, records[i].Done)
	}
}

func TestRunEmitsNoHeartbeatsWhenStreamIsFast(t *testing.T) {
	provider := &streamProvider{
		chunks: []string{"a", "b", "c"},
		final:  reportJSON,
	}
	s := newStage(provider, []string{"Writing outline..."})
	s.SetClock(tickingClock(0)) // stream time never advances

	plog := progress.NewLog()
	_, err := s.Run(context.Background(), "input", plog)
	require.NoError(t, err)

	records := writingRecords(plog)
	require.Len(t, records, 1)
	assert.Equal(t, "Report completed", records[0].Content)
}

func TestRunStopsHeartbeatsOnceLabelsRunOut(t *testing.T) {
	labels := []string{"Writing outline...", "Finalizing report..."}
	provider := &streamProvider{
		chunks: []string{"a", "b", "c", "d", "e", "f", "g", "h"},
		final:  reportJSON,
	}
	s := newStage(provider, labels)
	s.SetClock(tickingClock(6 * time.Second))

	plog := progress.NewLog()
	_, err := s.Run(context.Background(), "input", plog)
	require.NoError(t, err)

	// Stream keeps going well past the label supply, but no label repeats.
	records := writingRecords(plog)
	require.Len(t, records, len(labels)+1)
}

func TestRunStreamErrorLeavesNoDoneRecord(t *testing.T) {
	provider := &streamProvider{
		chunks: []string{"a"},
		err:    errors.New("model unavailable"),
	}
	s := newStage(provider, []string{"Writing outline..."})

	plog := progress.NewLog()
	_, err := s.Run(context.Background(), "input", plog)
	require.Error(t, err)

	for _, r := range writingRecords(plog) {
		assert.False(t, r.Done)
	}
}

func TestRunMalformedOutputIsAnError(t *testing.T) {
	provider := &streamProvider{chunks: []string{"x"}, final: "I could not write the report, sorry."}
	s := newStage(provider, nil)

	plog := progress.NewLog()
	_, err := s.Run(context.Background(), "input", plog)
	require.Error(t, err)
	assert.Zero(t, len(writingRecords(plog)))
}
