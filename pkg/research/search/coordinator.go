package search

import (
	"context"
	"fmt"
	"log"

	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/research/progress"
	"deep-research-be/pkg/store"
)

// Coordinator fans a search plan out to concurrent agent invocations
// and collects the results as they complete.
type Coordinator struct {
	runner agents.IRunner
	agent  agents.Agent
	logger *log.Logger
}

func NewCoordinator(runner agents.IRunner, agent agents.Agent, logger *log.Logger) *Coordinator {
	return &Coordinator{
		runner: runner,
		agent:  agent,
		logger: logger,
	}
}

// Run executes every plan item concurrently. Results come back in
// completion order; a failed item contributes nothing and never aborts
// the others. One `searching` record is appended per completion with a
// running count, then a terminal done record.
func (c *Coordinator) Run(ctx context.Context, plan *store.SearchPlan, plog *progress.Log) []string {
	total := len(plan.Searches)

	type outcome struct {
		result string
		err    error
	}

	done := make(chan outcome, total)
	for _, item := range plan.Searches {
		go func(item store.SearchPlanItem) {
			result, err := c.search(ctx, item)
			done <- outcome{result: result, err: err}
		}(item)
	}

	var results []string
	for completed := 1; completed <= total; completed++ {
		out := <-done
		if out.err != nil {
			c.logger.Printf("[WARN] Search task failed, dropping result: %v", out.err)
		} else {
			results = append(results, out.result)
		}
		plog.Append(progress.KindSearching,
			fmt.Sprintf("Searching... %d/%d completed", completed, total), false)
	}

	plog.Append(progress.KindSearching, "Search completed", true)
	return results
}

func (c *Coordinator) search(ctx context.Context, item store.SearchPlanItem) (string, error) {
	input := fmt.Sprintf("Search term: %s\nReason for searching: %s", item.Query, item.Reason)
	result, err := c.runner.Run(ctx, c.agent, input)
	if err != nil {
		return "", err
	}
	return result.FinalOutput, nil
}
