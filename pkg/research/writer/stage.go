package writer

import (
	"context"
	"fmt"
	"log"
	"time"

	"deep-research-be/pkg/agents"
	"deep-research-be/pkg/research/progress"
	"deep-research-be/pkg/store"
)

// Heartbeats fire once at least this much stream time has passed since
// the previous one.
const heartbeatInterval = 5 * time.Second

// Stage drives the long-running report generation, consuming the agent's
// event stream and emitting phase-label heartbeats while it runs.
type Stage struct {
	runner agents.IRunner
	agent  agents.Agent
	labels []string
	logger *log.Logger

	// now is swappable so tests can control stream time.
	now func() time.Time
}

func NewStage(runner agents.IRunner, agent agents.Agent, labels []string, logger *log.Logger) *Stage {
	return &Stage{
		runner: runner,
		agent:  agent,
		labels: labels,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Stage) SetClock(now func() time.Time) {
	s.now = now
}

// Run streams the write agent to completion. The heartbeat check happens
// only at stream-event boundaries: whenever >= 5s have elapsed since the
// last emitted label and unused labels remain, the next label is appended
// as a `writing` record. Labels are consumed at most once, in order.
func (s *Stage) Run(ctx context.Context, input string, plog *progress.Log) (*store.Report, error) {
	stream := s.runner.RunStreamed(ctx, s.agent, input)

	lastUpdate := s.now()
	nextLabel := 0
	for range stream.Events() {
		if s.now().Sub(lastUpdate) > heartbeatInterval && nextLabel < len(s.labels) {
			plog.Append(progress.KindWriting, s.labels[nextLabel], false)
			nextLabel++
			lastUpdate = s.now()
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("write stream: %w", err)
	}

	var report store.Report
	if err := agents.DecodeJSON(stream.FinalOutput(), &report); err != nil {
		s.logger.Printf("[ERROR] Writer output did not parse as a report: %v", err)
		return nil, fmt.Errorf("parse report: %w", err)
	}

	plog.Append(progress.KindWriting, "Report completed", true)
	return &report, nil
}
