package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"deep-research-be/pkg/llm"
)

// RunResult wraps the final output of a single agent invocation.
type RunResult struct {
	FinalOutput string
}

// StreamEvent is one incremental chunk produced by a streamed run.
type StreamEvent struct {
	Delta string
}

// StreamedRunResult exposes the event stream of a streamed invocation.
// Events() is closed when the stream ends; after that FinalOutput() and
// Err() hold the outcome.
type StreamedRunResult struct {
	events chan StreamEvent

	finalOutput string
	err         error
}

func (r *StreamedRunResult) Events() <-chan StreamEvent {
	return r.events
}

// FinalOutput is valid only after Events() is exhausted.
func (r *StreamedRunResult) FinalOutput() string {
	return r.finalOutput
}

// Err is valid only after Events() is exhausted.
func (r *StreamedRunResult) Err() error {
	return r.err
}

// IRunner executes agents. Split out so pipeline stages can be tested
// with stub runners.
type IRunner interface {
	Run(ctx context.Context, agent Agent, input string) (*RunResult, error)
	RunStreamed(ctx context.Context, agent Agent, input string) *StreamedRunResult
}

// Runner drives agents against a configured LLM provider.
type Runner struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewRunner(provider llm.LLMProvider, logger *log.Logger) *Runner {
	return &Runner{
		provider: provider,
		logger:   logger,
	}
}

var _ IRunner = &Runner{}

// Run invokes the agent once and returns its full output.
func (r *Runner) Run(ctx context.Context, agent Agent, input string) (*RunResult, error) {
	history := []llm.Message{
		{Role: "system", Content: agent.Instructions},
		{Role: "user", Content: input},
	}

	var opts []llm.Option
	if agent.Model != "" {
		opts = append(opts, llm.WithModel(agent.Model))
	}

	output, err := r.provider.Chat(ctx, history, opts...)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", agent.Name, err)
	}

	return &RunResult{FinalOutput: output}, nil
}

// RunStreamed invokes the agent in streaming mode. Providers without
// native streaming fall back to a single event carrying the whole output.
func (r *Runner) RunStreamed(ctx context.Context, agent Agent, input string) *StreamedRunResult {
	result := &StreamedRunResult{
		events: make(chan StreamEvent),
	}

	history := []llm.Message{
		{Role: "system", Content: agent.Instructions},
		{Role: "user", Content: input},
	}

	var opts []llm.Option
	if agent.Model != "" {
		opts = append(opts, llm.WithModel(agent.Model))
	}

	go func() {
		defer close(result.events)

		if streamer, ok := r.provider.(llm.StreamingProvider); ok {
			full, err := streamer.ChatStream(ctx, history, func(chunk string) {
				select {
				case result.events <- StreamEvent{Delta: chunk}:
				case <-ctx.Done():
				}
			}, opts...)
			result.finalOutput = full
			result.err = err
			if err != nil {
				r.logger.Printf("[ERROR] Streamed run of agent %s failed: %v", agent.Name, err)
			}
			return
		}

		output, err := r.provider.Chat(ctx, history, opts...)
		if err != nil {
			result.err = fmt.Errorf("agent %s: %w", agent.Name, err)
			r.logger.Printf("[ERROR] Run of agent %s failed: %v", agent.Name, err)
			return
		}
		result.finalOutput = output
		select {
		case result.events <- StreamEvent{Delta: output}:
		case <-ctx.Done():
		}
	}()

	return result
}

// DecodeJSON parses an agent's output into out, tolerating markdown
// code fences and surrounding prose around the JSON body.
func DecodeJSON(output string, out interface{}) error {
	cleaned := extractJSON(output)
	if cleaned == "" {
		return fmt.Errorf("no JSON object found in agent output")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("unmarshal agent output: %w", err)
	}
	return nil
}

// extractJSON strips ```json fences and trims to the outermost braces.
func extractJSON(output string) string {
	trimmed := strings.TrimSpace(output)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < start {
		return ""
	}
	return trimmed[start : end+1]
}
